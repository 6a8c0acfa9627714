package tool

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

const (
	NameQueryAnalytics = "query_analytics"

	defaultQueryDays  = 28
	maxQueryDays      = 480
	defaultQueryLimit = 50
	maxQueryLimit     = 500
)

// AnalyticsQuery returns aggregated search performance rows for the bound property.
type AnalyticsQuery struct {
	store      domain.AnalyticsStore
	propertyID uuid.UUID
}

func NewAnalyticsQuery(store domain.AnalyticsStore, propertyID uuid.UUID) *AnalyticsQuery {
	return &AnalyticsQuery{store: store, propertyID: propertyID}
}

func (t *AnalyticsQuery) Name() string { return NameQueryAnalytics }

func (t *AnalyticsQuery) Description() string {
	return "Query search performance (clicks, impressions, CTR, average position) per query and page for the selected property, aggregated over a day window."
}

func (t *AnalyticsQuery) Parameters() *domain.Schema {
	return &domain.Schema{
		Type: domain.SchemaObject,
		Properties: map[string]*domain.Schema{
			"url":         {Type: domain.SchemaString, Description: "Only rows for this exact page URL"},
			"search_term": {Type: domain.SchemaString, Description: "Only queries containing this text"},
			"days":        {Type: domain.SchemaInteger, Description: "Day window, default 28"},
			"limit":       {Type: domain.SchemaInteger, Description: "Maximum rows, default 50"},
		},
	}
}

func (t *AnalyticsQuery) Call(ctx context.Context, args map[string]any) (string, error) {
	if t.propertyID == uuid.Nil {
		return "", fmt.Errorf("no property selected")
	}
	q := domain.AnalyticsQuery{
		PropertyID: t.propertyID,
		URL:        stringArg(args, "url"),
		SearchTerm: stringArg(args, "search_term"),
		Days:       intArg(args, "days", defaultQueryDays, maxQueryDays),
		Limit:      intArg(args, "limit", defaultQueryLimit, maxQueryLimit),
	}

	rows, err := t.store.QueryRows(ctx, q)
	if err != nil {
		return "", fmt.Errorf("query analytics: %w", err)
	}
	if len(rows) == 0 {
		return "no rows matched", nil
	}

	type row struct {
		Query       string  `json:"query"`
		Page        string  `json:"page"`
		Clicks      int64   `json:"clicks"`
		Impressions int64   `json:"impressions"`
		CTR         float64 `json:"ctr"`
		Position    float64 `json:"position"`
	}
	out := make([]row, 0, len(rows))
	for _, r := range rows {
		out = append(out, row{r.Query, r.Page, r.Clicks, r.Impressions, r.CTR, r.Position})
	}
	return render(out)
}
