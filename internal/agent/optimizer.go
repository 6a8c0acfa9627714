package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/scoring"
)

const optimizerTopN = 5

// Optimizer writes markup and copy. With a property selected it also
// targets the pages whose titles and snippets underperform their rank.
type Optimizer struct {
	deps *Deps
}

func NewOptimizer(deps *Deps) *Optimizer {
	return &Optimizer{deps: deps}
}

func (a *Optimizer) Kind() domain.AgentKind { return domain.AgentOptimizer }

func (a *Optimizer) Execute(ctx context.Context, message string, actx domain.AgentContext) (domain.AgentResult, error) {
	var targets []scoring.CTRAnomaly
	if actx.HasProperty() {
		targets = a.titleMetaIssues(ctx, actx)
	}

	var extra string
	if len(targets) > 0 {
		extra = section("Underperforming pages (high rank, low CTR)", targets)
	}
	resp, err := a.deps.generate(ctx, optimizerPrompt, userPrompt(message, actx, extra), nil, false)
	if err != nil {
		return domain.AgentResult{}, err
	}

	pages := make([]string, 0, len(targets))
	for _, t := range targets {
		pages = append(pages, t.Page)
	}
	a.deps.recordAction(ctx, a.Kind(), actx, ActionContentOptimization, message, map[string]any{
		"target_pages": pages,
	})

	res := domain.AgentResult{Agent: a.Kind(), Output: resp.Text, Steps: resp.Steps}
	if len(targets) > 0 {
		res.Data = targets
	}
	return res, nil
}

func (a *Optimizer) titleMetaIssues(ctx context.Context, actx domain.AgentContext) []scoring.CTRAnomaly {
	rows, err := a.deps.Analytics.QueryRows(ctx, domain.AnalyticsQuery{
		PropertyID: actx.PropertyID,
		Days:       analystWindowDays,
		Limit:      analystRowLimit,
	})
	if err != nil {
		a.deps.Logger.Warn("optimizer could not load analytics rows",
			zap.String("property_id", actx.PropertyID.String()),
			zap.Error(err))
		return nil
	}

	var out []scoring.CTRAnomaly
	for _, an := range scoring.DetectCTRAnomalies(rows) {
		if an.Classification == scoring.TitleMetaIssue {
			out = append(out, an)
			if len(out) == optimizerTopN {
				break
			}
		}
	}
	return out
}
