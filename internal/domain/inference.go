package domain

import "context"

// Schema is a provider-neutral JSON schema subset used for structured
// generation and tool parameters.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

const (
	SchemaObject  = "object"
	SchemaString  = "string"
	SchemaNumber  = "number"
	SchemaInteger = "integer"
	SchemaBoolean = "boolean"
	SchemaArray   = "array"
)

// Tool is a read-only capability an inference call may invoke.
type Tool interface {
	Name() string
	Description() string
	Parameters() *Schema
	Call(ctx context.Context, args map[string]any) (string, error)
}

type GenerateRequest struct {
	System        string
	Prompt        string
	Tools         []Tool
	WebSearch     bool
	MaxToolRounds int
}

type GenerateResponse struct {
	Text  string
	Steps []ToolStep
}

type InferenceClient interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
	GenerateStructured(ctx context.Context, system, prompt string, schema *Schema, out any) error
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// URLInspector looks up the live index status of a page.
type URLInspector interface {
	Inspect(ctx context.Context, siteURL, pageURL string) (*URLInspection, error)
}
