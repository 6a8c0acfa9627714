package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

const recentSkillLimit = 5

// MemoryReport is what the workspace has accumulated for a property.
type MemoryReport struct {
	Memories     int                  `json:"memories"`
	Actions      int                  `json:"actions"`
	Skills       int                  `json:"skills"`
	RecentSkills []domain.SkillRecord `json:"recent_skills"`
}

// MemoryReporter summarizes stored memories, actions and promoted skills.
// It answers from the counts alone when inference is unavailable.
type MemoryReporter struct {
	deps *Deps
}

func NewMemoryReporter(deps *Deps) *MemoryReporter {
	return &MemoryReporter{deps: deps}
}

func (a *MemoryReporter) Kind() domain.AgentKind { return domain.AgentMemory }

func (a *MemoryReporter) Execute(ctx context.Context, message string, actx domain.AgentContext) (domain.AgentResult, error) {
	if !actx.HasProperty() {
		return selectProperty(a.Kind()), nil
	}

	report, err := a.Report(ctx, actx.PropertyID)
	if err != nil {
		return domain.AgentResult{}, err
	}

	var output string
	resp, err := a.deps.generate(ctx, memoryPrompt, userPrompt(message, actx, section("Workspace memory", report)), nil, false)
	if err != nil {
		a.deps.Logger.Warn("memory narration failed, using summary", zap.Error(err))
		output = SummarizeReport(report)
	} else {
		output = resp.Text
	}

	return domain.AgentResult{Agent: a.Kind(), Output: output, Data: report}, nil
}

func (a *MemoryReporter) Report(ctx context.Context, propertyID uuid.UUID) (*MemoryReport, error) {
	memories, err := a.deps.Memories.CountByProperty(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("count memories: %w", err)
	}
	actions, err := a.deps.Actions.CountByProperty(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("count actions: %w", err)
	}
	skills, err := a.deps.Skills.CountForProperty(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("count skills: %w", err)
	}
	recent, err := a.deps.Skills.ListForProperty(ctx, propertyID, recentSkillLimit)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	if recent == nil {
		recent = []domain.SkillRecord{}
	}
	return &MemoryReport{Memories: memories, Actions: actions, Skills: skills, RecentSkills: recent}, nil
}

// SummarizeReport renders a report without inference.
func SummarizeReport(r *MemoryReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "This property has %d stored memories, %d recorded actions and %d promoted skills.", r.Memories, r.Actions, r.Skills)
	if len(r.RecentSkills) == 0 {
		sb.WriteString(" No strategy has been promoted to a skill yet.")
		return sb.String()
	}
	sb.WriteString("\n\nMost recent skills:")
	for _, s := range r.RecentSkills {
		fmt.Fprintf(&sb, "\n- %s: %.0f%% success over %d applications", s.StrategyName, s.SuccessRate*100, s.TimesApplied)
	}
	return sb.String()
}
