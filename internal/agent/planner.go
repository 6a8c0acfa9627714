package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/scoring"
)

const plannerTopN = 10

type Planner struct {
	deps *Deps
}

func NewPlanner(deps *Deps) *Planner {
	return &Planner{deps: deps}
}

func (a *Planner) Kind() domain.AgentKind { return domain.AgentPlanner }

func (a *Planner) Execute(ctx context.Context, message string, actx domain.AgentContext) (domain.AgentResult, error) {
	var priorities []scoring.URLPriority
	if actx.HasProperty() {
		stats, err := a.deps.Analytics.CrawlStats(ctx, actx.PropertyID)
		if err != nil {
			a.deps.Logger.Warn("planner could not load crawl stats",
				zap.String("property_id", actx.PropertyID.String()),
				zap.Error(err))
		} else {
			priorities = topN(scoring.RankURLs(stats, a.deps.now()), plannerTopN)
		}
	}

	var extra string
	if len(priorities) > 0 {
		extra = section("URL priority scores", priorities)
	}
	resp, err := a.deps.generate(ctx, plannerPrompt, userPrompt(message, actx, extra), nil, false)
	if err != nil {
		return domain.AgentResult{}, err
	}

	a.deps.recordAction(ctx, a.Kind(), actx, ActionRoadmapPlan, message, map[string]any{
		"prioritized_urls": len(priorities),
	})

	res := domain.AgentResult{Agent: a.Kind(), Output: resp.Text, Steps: resp.Steps}
	if len(priorities) > 0 {
		res.Data = priorities
	}
	return res, nil
}
