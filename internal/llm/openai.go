package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

type OpenAIClient struct {
	client openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model string, opts ...option.RequestOption) *OpenAIClient {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIClient{
		client: openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...),
		model:  model,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: c.messages(req.System, req.Prompt),
	}
	// Chat completions have no hosted web search; the model answers from
	// its own knowledge when WebSearch is requested.
	tools := openAITools(req.Tools)
	if len(tools) > 0 {
		params.Tools = tools
	}

	out := &domain.GenerateResponse{}
	limit := maxRounds(req)

	for round := 0; ; round++ {
		final := round >= limit
		if final {
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
				OfAuto: openai.String(string(openai.ChatCompletionToolChoiceOptionAutoNone)),
			}
		}

		completion, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("openai chat completion: %w", err)
		}
		if len(completion.Choices) == 0 {
			return nil, fmt.Errorf("openai chat completion: no choices")
		}
		msg := completion.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			out.Text = msg.Content
			return out, nil
		}
		if final {
			return nil, fmt.Errorf("openai chat completion: %w", ErrToolRoundsExceeded)
		}

		params.Messages = append(params.Messages, msg.ToParam())
		for _, call := range msg.ToolCalls {
			var args map[string]any
			if call.Function.Arguments != "" {
				if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
					args = map[string]any{}
				}
			}
			result, step := callTool(ctx, req.Tools, call.Function.Name, args)
			out.Steps = append(out.Steps, step)
			params.Messages = append(params.Messages, openai.ToolMessage(result, call.ID))
		}
	}
}

func (c *OpenAIClient) GenerateStructured(ctx context.Context, system, prompt string, schema *domain.Schema, out any) error {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: c.messages(system, prompt),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "response",
					Schema: schemaMap(schema),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("openai structured completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return fmt.Errorf("openai structured completion: no choices")
	}
	return decodeJSON(completion.Choices[0].Message.Content, out)
}

func (c *OpenAIClient) messages(system, prompt string) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	return append(msgs, openai.UserMessage(prompt))
}

func openAITools(tools []domain.Tool) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name(),
				Description: openai.String(t.Description()),
				Parameters:  openai.FunctionParameters(schemaMap(t.Parameters())),
			},
		})
	}
	return out
}
