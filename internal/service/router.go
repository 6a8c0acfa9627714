package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

const FallbackReasoning = "fallback due to classification error"

const routerSystemPrompt = `You route requests about a website's search performance to specialist agents.

Agents:
- ANALYST: traffic, clicks, impressions, CTR, rankings, drops and gains.
- AUDITOR: indexing, crawling, canonicals, robots, mobile usability, technical SEO.
- RESEARCH: competitors, SERP landscape, industry trends, anything outside the site's own data.
- OPTIMIZER: writing or fixing code and markup: titles, meta descriptions, schema.org, HTML.
- PLANNER: roadmaps, timelines, prioritization, resourcing.
- MEMORY: what has been learned or tried before for this site.

Execution modes:
- SINGLE: one agent is enough. Leave secondary_agents empty.
- SEQUENTIAL: later agents need earlier output. "Audit and fix" requests are SEQUENTIAL with AUDITOR then OPTIMIZER.
- PARALLEL: independent perspectives on the same question.

Pick exactly one primary agent. Prefer SINGLE unless the request clearly needs more.`

var routingSchema = &domain.Schema{
	Type: domain.SchemaObject,
	Properties: map[string]*domain.Schema{
		"classification": {Type: domain.SchemaString, Description: "Short label for the user's intent"},
		"primary_agent":  {Type: domain.SchemaString, Enum: agentEnum()},
		"secondary_agents": {
			Type:  domain.SchemaArray,
			Items: &domain.Schema{Type: domain.SchemaString, Enum: agentEnum()},
		},
		"execution_mode": {
			Type: domain.SchemaString,
			Enum: []string{string(domain.ModeSingle), string(domain.ModeSequential), string(domain.ModeParallel)},
		},
		"reasoning": {Type: domain.SchemaString},
		"sub_tasks": {Type: domain.SchemaArray, Items: &domain.Schema{Type: domain.SchemaString}},
	},
	Required: []string{"classification", "primary_agent", "secondary_agents", "execution_mode", "reasoning"},
}

func agentEnum() []string {
	out := make([]string, 0, len(domain.AgentKinds))
	for _, k := range domain.AgentKinds {
		out = append(out, string(k))
	}
	return out
}

type routingResponse struct {
	Classification  string   `json:"classification"`
	PrimaryAgent    string   `json:"primary_agent"`
	SecondaryAgents []string `json:"secondary_agents"`
	ExecutionMode   string   `json:"execution_mode"`
	Reasoning       string   `json:"reasoning"`
	SubTasks        []string `json:"sub_tasks"`
}

type Router struct {
	llm    domain.InferenceClient
	logger *zap.Logger
}

func NewRouter(llm domain.InferenceClient, logger *zap.Logger) *Router {
	return &Router{llm: llm, logger: logger}
}

// Classify always returns a plan with a valid primary agent. Any inference
// or validation failure yields FallbackPlan.
func (r *Router) Classify(ctx context.Context, message string, summary *domain.PropertySummary) domain.RoutingPlan {
	var resp routingResponse
	if err := r.llm.GenerateStructured(ctx, routerSystemPrompt, routingPrompt(message, summary), routingSchema, &resp); err != nil {
		r.logger.Warn("classification failed, using fallback plan", zap.Error(err))
		return FallbackPlan()
	}

	plan, err := normalizePlan(resp)
	if err != nil {
		r.logger.Warn("invalid routing plan, using fallback plan",
			zap.String("primary_agent", resp.PrimaryAgent),
			zap.String("execution_mode", resp.ExecutionMode),
			zap.Error(err))
		return FallbackPlan()
	}

	r.logger.Debug("request classified",
		zap.String("classification", plan.Classification),
		zap.String("primary_agent", string(plan.PrimaryAgent)),
		zap.String("execution_mode", string(plan.ExecutionMode)),
		zap.Int("secondary_agents", len(plan.SecondaryAgents)))
	return plan
}

func FallbackPlan() domain.RoutingPlan {
	return domain.RoutingPlan{
		Classification:  "fallback",
		PrimaryAgent:    domain.AgentAnalyst,
		SecondaryAgents: []domain.AgentKind{},
		ExecutionMode:   domain.ModeSequential,
		Reasoning:       FallbackReasoning,
		SubTasks:        []string{},
	}
}

// normalizePlan rejects unknown primaries and modes. Unknown or repeated
// secondaries are dropped and SINGLE plans keep none.
func normalizePlan(resp routingResponse) (domain.RoutingPlan, error) {
	primary := strings.ToUpper(strings.TrimSpace(resp.PrimaryAgent))
	if !domain.ValidAgentKind(primary) {
		return domain.RoutingPlan{}, fmt.Errorf("unknown primary agent %q", resp.PrimaryAgent)
	}
	mode := strings.ToUpper(strings.TrimSpace(resp.ExecutionMode))
	if !domain.ValidExecutionMode(mode) {
		return domain.RoutingPlan{}, fmt.Errorf("unknown execution mode %q", resp.ExecutionMode)
	}

	plan := domain.RoutingPlan{
		Classification:  resp.Classification,
		PrimaryAgent:    domain.AgentKind(primary),
		SecondaryAgents: []domain.AgentKind{},
		ExecutionMode:   domain.ExecutionMode(mode),
		Reasoning:       resp.Reasoning,
		SubTasks:        resp.SubTasks,
	}
	if plan.SubTasks == nil {
		plan.SubTasks = []string{}
	}
	if plan.ExecutionMode == domain.ModeSingle {
		return plan, nil
	}

	seen := map[domain.AgentKind]bool{plan.PrimaryAgent: true}
	for _, s := range resp.SecondaryAgents {
		k := strings.ToUpper(strings.TrimSpace(s))
		if !domain.ValidAgentKind(k) || seen[domain.AgentKind(k)] {
			continue
		}
		seen[domain.AgentKind(k)] = true
		plan.SecondaryAgents = append(plan.SecondaryAgents, domain.AgentKind(k))
	}
	return plan, nil
}

func routingPrompt(message string, summary *domain.PropertySummary) string {
	var sb strings.Builder
	if summary != nil {
		fmt.Fprintf(&sb, "Property: %s\nClicks (last 28 days): %d\nPages with declining rankings: %d\n\n",
			summary.SiteURL, summary.RecentClicks, summary.DecliningPages)
	} else {
		sb.WriteString("No property selected.\n\n")
	}
	fmt.Fprintf(&sb, "Request: %s", message)
	return sb.String()
}
