// Package agent implements the specialist agents a routing plan can invoke.
package agent

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

var (
	//go:embed prompt/analyst.md
	analystPrompt string
	//go:embed prompt/auditor.md
	auditorPrompt string
	//go:embed prompt/research.md
	researchPrompt string
	//go:embed prompt/optimizer.md
	optimizerPrompt string
	//go:embed prompt/planner.md
	plannerPrompt string
	//go:embed prompt/memory.md
	memoryPrompt string
)

// Action types recorded by agents. The sleep cycle promotes them to skills
// once enough of them are measured as successful.
const (
	ActionAnalyticsReview     = "analytics_review"
	ActionTechnicalAudit      = "technical_audit"
	ActionContentOptimization = "content_optimization"
	ActionRoadmapPlan         = "roadmap_plan"
)

const contextSummaryLen = 200

// Deps are the collaborators shared by every agent. Inspector may be nil
// when URL inspection is not configured.
type Deps struct {
	LLM           domain.InferenceClient
	Analytics     domain.AnalyticsStore
	Inspector     domain.URLInspector
	Memories      domain.MemoryStore
	Actions       domain.ActionStore
	Skills        domain.SkillStore
	Logger        *zap.Logger
	MaxToolRounds int
	Now           func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// selectProperty is the result for agents that cannot work without a property.
func selectProperty(kind domain.AgentKind) domain.AgentResult {
	return domain.AgentResult{
		Agent:  kind,
		Output: fmt.Sprintf("The %s agent needs a property to work with. Select a property and ask again.", kind),
	}
}

// userPrompt frames the (already memory-enriched) message with the property
// and any diagnostics the caller attached.
func userPrompt(message string, actx domain.AgentContext, sections ...string) string {
	var sb strings.Builder
	if actx.PropertyURL != "" {
		fmt.Fprintf(&sb, "Property: %s\n\n", actx.PropertyURL)
	}
	if d := strings.TrimSpace(actx.Diagnostics); d != "" {
		fmt.Fprintf(&sb, "Prior diagnostics:\n%s\n\n", d)
	}
	for _, s := range sections {
		if s = strings.TrimSpace(s); s != "" {
			sb.WriteString(s)
			sb.WriteString("\n\n")
		}
	}
	fmt.Fprintf(&sb, "Request:\n%s", message)
	return sb.String()
}

// section renders v as an indented JSON block under a heading.
func section(title string, v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return title + ":\n" + string(b)
}

func (d *Deps) generate(ctx context.Context, system, prompt string, tools []domain.Tool, webSearch bool) (*domain.GenerateResponse, error) {
	resp, err := d.LLM.Generate(ctx, domain.GenerateRequest{
		System:        system,
		Prompt:        prompt,
		Tools:         tools,
		WebSearch:     webSearch,
		MaxToolRounds: d.MaxToolRounds,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return nil, fmt.Errorf("empty response from inference")
	}
	return resp, nil
}

// recordAction appends an action to the log. Failures never affect the
// agent's result.
func (d *Deps) recordAction(ctx context.Context, kind domain.AgentKind, actx domain.AgentContext, actionType, message string, details map[string]any) {
	if d.Actions == nil || !actx.HasProperty() {
		return
	}
	a := &domain.ActionRecord{
		PropertyID:     actx.PropertyID,
		AgentType:      kind,
		ActionType:     actionType,
		ContextSummary: contextSummary(message),
		Details:        details,
		ExecutedAt:     d.now(),
	}
	if err := d.Actions.Create(ctx, a); err != nil {
		d.Logger.Warn("failed to record action",
			zap.String("agent", string(kind)),
			zap.String("action_type", actionType),
			zap.String("property_id", actx.PropertyID.String()),
			zap.Error(err))
	}
}

// contextSummary is the first line of the user's request, which is what the
// executor puts before memory context and chained output.
func contextSummary(message string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	r := []rune(strings.TrimSpace(line))
	if len(r) > contextSummaryLen {
		return string(r[:contextSummaryLen])
	}
	return string(r)
}
