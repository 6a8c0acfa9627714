package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

const maxToolOutput = 16 * 1024

// ErrToolRoundsExceeded is returned when the model still asks for a tool
// after tool use has been switched off for the final round.
var ErrToolRoundsExceeded = errors.New("model kept requesting tools past the round limit")

// callTool runs the named tool and returns the text handed back to the model
// along with the step to report. Tool errors are returned to the model as
// text so it can recover.
func callTool(ctx context.Context, tools []domain.Tool, name string, args map[string]any) (string, domain.ToolStep) {
	step := domain.ToolStep{Tool: name, Args: args}

	var tool domain.Tool
	for _, t := range tools {
		if t.Name() == name {
			tool = t
			break
		}
	}
	if tool == nil {
		step.Error = "unknown tool"
		return fmt.Sprintf("error: unknown tool %q", name), step
	}

	out, err := tool.Call(ctx, args)
	if err != nil {
		step.Error = err.Error()
		return "error: " + err.Error(), step
	}
	if len(out) > maxToolOutput {
		out = out[:maxToolOutput] + "\n...(truncated)"
	}
	step.Output = out
	return out, step
}

// schemaMap renders a schema as a plain JSON-schema object.
func schemaMap(s *domain.Schema) map[string]any {
	if s == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]any{"type": "object"}
	}
	return m
}

// decodeJSON unmarshals a model response, tolerating markdown code fences
// and leading prose.
func decodeJSON(text string, out any) error {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if start := strings.IndexAny(s, "{["); start > 0 {
		s = s[start:]
	}
	if end := strings.LastIndexAny(s, "}]"); end >= 0 && end < len(s)-1 {
		s = s[:end+1]
	}

	if err := json.Unmarshal([]byte(s), out); err != nil {
		return fmt.Errorf("decode structured response: %w", err)
	}
	return nil
}
