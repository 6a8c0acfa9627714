package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/scoring"
	"github.com/Harshitk-cp/searchmind/internal/tool"
)

const (
	analystWindowDays  = 28
	analystHistoryDays = 30
	analystRowLimit    = 5000
	analystTopN        = 10
)

// AnalystFindings is the deterministic evidence the analyst narrates.
type AnalystFindings struct {
	Rows             int                           `json:"rows_analyzed"`
	CTRAnomalies     []scoring.CTRAnomaly          `json:"ctr_anomalies"`
	RankingAlerts    []scoring.RankingVelocity     `json:"ranking_alerts"`
	StrikingDistance []scoring.StrikingOpportunity `json:"striking_distance"`
	CrawlWaste       []scoring.CrawlWaste          `json:"crawl_waste"`
}

type Analyst struct {
	deps *Deps
}

func NewAnalyst(deps *Deps) *Analyst {
	return &Analyst{deps: deps}
}

func (a *Analyst) Kind() domain.AgentKind { return domain.AgentAnalyst }

func (a *Analyst) Execute(ctx context.Context, message string, actx domain.AgentContext) (domain.AgentResult, error) {
	if !actx.HasProperty() {
		return selectProperty(a.Kind()), nil
	}

	findings, err := a.Analyze(ctx, actx)
	if err != nil {
		return domain.AgentResult{}, err
	}

	tools := []domain.Tool{
		tool.NewAnalyticsQuery(a.deps.Analytics, actx.PropertyID),
		tool.NewRankingVelocity(a.deps.Analytics, actx.PropertyID),
	}
	resp, err := a.deps.generate(ctx, analystPrompt, userPrompt(message, actx, section("Findings", findings)), tools, false)
	if err != nil {
		return domain.AgentResult{}, err
	}

	a.deps.recordAction(ctx, a.Kind(), actx, ActionAnalyticsReview, message, map[string]any{
		"rows_analyzed":     findings.Rows,
		"ctr_anomalies":     len(findings.CTRAnomalies),
		"ranking_alerts":    len(findings.RankingAlerts),
		"striking_distance": len(findings.StrikingDistance),
		"crawl_waste":       len(findings.CrawlWaste),
	})

	return domain.AgentResult{
		Agent:  a.Kind(),
		Output: resp.Text,
		Data:   findings,
		Steps:  resp.Steps,
	}, nil
}

// Analyze runs every scoring routine over the property's recent data. Only a
// failure to load search rows is fatal; missing history or crawl stats leave
// their findings empty.
func (a *Analyst) Analyze(ctx context.Context, actx domain.AgentContext) (*AnalystFindings, error) {
	rows, err := a.deps.Analytics.QueryRows(ctx, domain.AnalyticsQuery{
		PropertyID: actx.PropertyID,
		Days:       analystWindowDays,
		Limit:      analystRowLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("load analytics rows: %w", err)
	}

	findings := &AnalystFindings{
		Rows:             len(rows),
		CTRAnomalies:     topN(scoring.DetectCTRAnomalies(rows), analystTopN),
		StrikingDistance: topN(scoring.FindStrikingDistance(rows), analystTopN),
	}

	if history, err := a.deps.Analytics.PositionHistory(ctx, actx.PropertyID, analystHistoryDays); err != nil {
		a.deps.Logger.Warn("position history unavailable", zap.String("property_id", actx.PropertyID.String()), zap.Error(err))
	} else {
		var alerts []scoring.RankingVelocity
		for _, v := range scoring.SortVelocities(scoring.AnalyzeVelocities(history), scoring.SortByDecline, 0) {
			if v.Alert {
				alerts = append(alerts, v)
			}
		}
		findings.RankingAlerts = topN(alerts, analystTopN)
	}

	if stats, err := a.deps.Analytics.CrawlStats(ctx, actx.PropertyID); err != nil {
		a.deps.Logger.Warn("crawl stats unavailable", zap.String("property_id", actx.PropertyID.String()), zap.Error(err))
	} else {
		findings.CrawlWaste = topN(scoring.DetectCrawlWaste(stats, a.deps.now()), analystTopN)
	}

	return findings, nil
}

func topN[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
