package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type AgentKind string

// ErrUnknownAgent means a plan named an agent with no registered implementation.
var ErrUnknownAgent = errors.New("unknown agent")

const (
	AgentAnalyst   AgentKind = "ANALYST"
	AgentAuditor   AgentKind = "AUDITOR"
	AgentResearch  AgentKind = "RESEARCH"
	AgentOptimizer AgentKind = "OPTIMIZER"
	AgentPlanner   AgentKind = "PLANNER"
	AgentMemory    AgentKind = "MEMORY"
)

// AgentKinds lists every agent the registry knows, in routing-prompt order.
var AgentKinds = []AgentKind{AgentAnalyst, AgentAuditor, AgentResearch, AgentOptimizer, AgentPlanner, AgentMemory}

func ValidAgentKind(k string) bool {
	switch AgentKind(k) {
	case AgentAnalyst, AgentAuditor, AgentResearch, AgentOptimizer, AgentPlanner, AgentMemory:
		return true
	}
	return false
}

// AgentContext is what every agent receives besides the message.
type AgentContext struct {
	PropertyID    uuid.UUID
	PropertyURL   string
	Diagnostics   string
	MemoryContext string
}

func (c AgentContext) HasProperty() bool {
	return c.PropertyID != uuid.Nil
}

// ToolStep records one tool call made while producing a result.
type ToolStep struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args,omitempty"`
	Output string         `json:"output,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type AgentResult struct {
	Agent    AgentKind  `json:"agent"`
	Output   string     `json:"output"`
	Data     any        `json:"data,omitempty"`
	Steps    []ToolStep `json:"steps,omitempty"`
	Degraded bool       `json:"degraded,omitempty"`
}

// Agent is a specialist that answers one message. Errors returned here are
// converted into a degraded AgentResult by the executor.
type Agent interface {
	Kind() AgentKind
	Execute(ctx context.Context, message string, actx AgentContext) (AgentResult, error)
}
