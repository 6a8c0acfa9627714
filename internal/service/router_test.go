package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/llm"
)

func TestRouter_Classify(t *testing.T) {
	mock := llm.NewMockClient()
	mock.StructuredResponse = routingResponse{
		Classification:  "traffic_analysis",
		PrimaryAgent:    "ANALYST",
		SecondaryAgents: []string{},
		ExecutionMode:   "SINGLE",
		Reasoning:       "traffic question",
	}
	router := NewRouter(mock, zap.NewNop())

	summary := &domain.PropertySummary{SiteURL: "https://example.com/", RecentClicks: 1200, DecliningPages: 3}
	plan := router.Classify(context.Background(), "why did traffic drop last month", summary)

	assert.Equal(t, domain.AgentAnalyst, plan.PrimaryAgent)
	assert.Equal(t, domain.ModeSingle, plan.ExecutionMode)
	assert.Empty(t, plan.SecondaryAgents)
	assert.Equal(t, []domain.AgentKind{domain.AgentAnalyst}, plan.Agents())

	if len(mock.StructuredCalls) != 1 {
		t.Fatalf("expected 1 structured call, got %d", len(mock.StructuredCalls))
	}
	prompt := mock.StructuredCalls[0]
	if !strings.Contains(prompt, "https://example.com/") || !strings.Contains(prompt, "1200") {
		t.Errorf("prompt missing property summary: %q", prompt)
	}
}

func TestRouter_Fallback(t *testing.T) {
	tests := []struct {
		name string
		resp any
		err  error
	}{
		{name: "inference error", err: errors.New("model overloaded")},
		{name: "unknown primary", resp: routingResponse{PrimaryAgent: "HISTORIAN", ExecutionMode: "SINGLE"}},
		{name: "empty primary", resp: routingResponse{ExecutionMode: "PARALLEL"}},
		{name: "unknown mode", resp: routingResponse{PrimaryAgent: "AUDITOR", ExecutionMode: "EVENTUALLY"}},
		{name: "unparseable", resp: "not an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockClient()
			mock.StructuredResponse = tt.resp
			mock.StructuredError = tt.err

			plan := NewRouter(mock, zap.NewNop()).Classify(context.Background(), "hello", nil)

			assert.Equal(t, domain.AgentAnalyst, plan.PrimaryAgent)
			assert.Equal(t, domain.ModeSequential, plan.ExecutionMode)
			assert.Empty(t, plan.SecondaryAgents)
			assert.Equal(t, FallbackReasoning, plan.Reasoning)
		})
	}
}

func TestRouter_NormalizesSecondaries(t *testing.T) {
	mock := llm.NewMockClient()
	mock.StructuredResponse = routingResponse{
		PrimaryAgent:    "auditor",
		SecondaryAgents: []string{"OPTIMIZER", "AUDITOR", "HISTORIAN", "optimizer", "PLANNER"},
		ExecutionMode:   "sequential",
	}

	plan := NewRouter(mock, zap.NewNop()).Classify(context.Background(), "audit and fix", nil)

	assert.Equal(t, domain.AgentAuditor, plan.PrimaryAgent)
	assert.Equal(t, domain.ModeSequential, plan.ExecutionMode)
	assert.Equal(t, []domain.AgentKind{domain.AgentOptimizer, domain.AgentPlanner}, plan.SecondaryAgents)
	assert.NotNil(t, plan.SubTasks)
}

func TestRouter_SingleDropsSecondaries(t *testing.T) {
	mock := llm.NewMockClient()
	mock.StructuredResponse = routingResponse{
		PrimaryAgent:    "MEMORY",
		SecondaryAgents: []string{"ANALYST"},
		ExecutionMode:   "SINGLE",
	}

	plan := NewRouter(mock, zap.NewNop()).Classify(context.Background(), "what have we learned", nil)

	assert.Equal(t, domain.AgentMemory, plan.PrimaryAgent)
	assert.Empty(t, plan.SecondaryAgents)
}

func TestRoutingPrompt_NoProperty(t *testing.T) {
	assert.Contains(t, routingPrompt("hi", nil), "No property selected")
}
