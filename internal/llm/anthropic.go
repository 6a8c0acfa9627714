package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

const anthropicMaxTokens = 4096

type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicClient(apiKey, model string, opts ...option.RequestOption) *AnthropicClient {
	if model == "" {
		model = DefaultAnthropicModel
	}
	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &AnthropicClient{client: &client, model: model}
}

func (c *AnthropicClient) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResponse, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = anthropicTools(req.Tools)
	}

	out := &domain.GenerateResponse{}
	limit := maxRounds(req)

	// Rounds past the limit keep the tool definitions, which the tool_use
	// history requires, but forbid further calls.
	for round := 0; ; round++ {
		final := round >= limit
		if final {
			none := anthropic.NewToolChoiceNoneParam()
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &none}
		}

		msg, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("anthropic messages: %w", err)
		}

		var (
			text    strings.Builder
			results []anthropic.ContentBlockParamUnion
		)
		for _, block := range msg.Content {
			switch block.Type {
			case "text":
				text.WriteString(block.Text)
			case "tool_use":
				if final {
					return nil, fmt.Errorf("anthropic messages: %w", ErrToolRoundsExceeded)
				}
				var args map[string]any
				if len(block.Input) > 0 {
					if err := json.Unmarshal(block.Input, &args); err != nil {
						args = map[string]any{}
					}
				}
				result, step := callTool(ctx, req.Tools, block.Name, args)
				out.Steps = append(out.Steps, step)
				results = append(results, anthropic.NewToolResultBlock(block.ID, result, step.Error != ""))
			}
		}
		if len(results) == 0 {
			out.Text = text.String()
			return out, nil
		}

		params.Messages = append(params.Messages, msg.ToParam(), anthropic.NewUserMessage(results...))
	}
}

func (c *AnthropicClient) GenerateStructured(ctx context.Context, system, prompt string, schema *domain.Schema, out any) error {
	schemaJSON, err := json.Marshal(schemaMap(schema))
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	instruction := fmt.Sprintf("Respond with only a JSON object matching this JSON schema, no prose:\n%s", schemaJSON)
	if system != "" {
		instruction = system + "\n\n" + instruction
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: anthropicMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: instruction}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return fmt.Errorf("anthropic structured: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return decodeJSON(text.String(), out)
}

func anthropicTools(tools []domain.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		params := t.Parameters()
		schema := anthropic.ToolInputSchemaParam{}
		if params != nil {
			props := schemaMap(params)["properties"]
			if props == nil {
				props = map[string]any{}
			}
			schema.Properties = props
			schema.Required = params.Required
		}
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name(),
				Description: anthropic.String(t.Description()),
				InputSchema: schema,
			},
		})
	}
	return out
}
