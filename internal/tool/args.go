// Package tool holds the read-only tools agents hand to the inference client.
// Every tool is bound to one property when constructed, so a model cannot
// read another tenant's data through its arguments.
package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

func stringArg(args map[string]any, name string) string {
	v, ok := args[name]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

// intArg reads an integer argument, clamping it into [1, max]. Models send
// numbers as float64 or occasionally as strings.
func intArg(args map[string]any, name string, def, max int) int {
	n := def
	switch v := args[name].(type) {
	case float64:
		n = int(math.Round(v))
	case int:
		n = v
	case int64:
		n = int(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			n = int(i)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			n = i
		}
	}
	if n < 1 {
		n = def
	}
	if n > max {
		n = max
	}
	return n
}

func render(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode tool result: %w", err)
	}
	return string(b), nil
}
