// Package gscexport reads search performance from the Search Console bulk
// data export in BigQuery.
package gscexport

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"cloud.google.com/go/bigquery"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

const dateLayout = "2006-01-02"

var identPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

type Source struct {
	client *bigquery.Client
	table  string
	logger *zap.Logger
}

// exportRow is one aggregated row of searchdata_url_impression.
type exportRow struct {
	DataDate    string  `bigquery:"data_date"`
	Query       string  `bigquery:"query"`
	URL         string  `bigquery:"url"`
	Clicks      int64   `bigquery:"clicks"`
	Impressions int64   `bigquery:"impressions"`
	SumPosition float64 `bigquery:"sum_position"`
}

func NewSource(ctx context.Context, project, dataset string, logger *zap.Logger) (*Source, error) {
	table, err := tableName(project, dataset)
	if err != nil {
		return nil, err
	}
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}
	return &Source{client: client, table: table, logger: logger}, nil
}

func tableName(project, dataset string) (string, error) {
	if !identPattern.MatchString(project) || !identPattern.MatchString(dataset) {
		return "", fmt.Errorf("invalid bigquery project or dataset: %q.%q", project, dataset)
	}
	return fmt.Sprintf("`%s.%s.searchdata_url_impression`", project, dataset), nil
}

func buildQuery(table string) string {
	return `SELECT
  FORMAT_DATE('%Y-%m-%d', data_date) AS data_date,
  query,
  url,
  SUM(clicks) AS clicks,
  SUM(impressions) AS impressions,
  SUM(sum_position) AS sum_position
FROM ` + table + `
WHERE site_url = @site
  AND data_date BETWEEN DATE(@start) AND DATE(@end)
  AND query IS NOT NULL
GROUP BY data_date, query, url`
}

func (s *Source) FetchRows(ctx context.Context, property domain.Property, start, end time.Time) ([]domain.AnalyticsRow, error) {
	q := s.client.Query(buildQuery(s.table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "site", Value: property.SiteURL},
		{Name: "start", Value: start.Format(dateLayout)},
		{Name: "end", Value: end.Format(dateLayout)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read bulk export: %w", err)
	}

	var rows []domain.AnalyticsRow
	for {
		var r exportRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate bulk export: %w", err)
		}
		if row, ok := convertExportRow(property, r); ok {
			rows = append(rows, row)
		}
	}

	s.logger.Debug("fetched bulk export rows",
		zap.String("site", property.SiteURL),
		zap.Int("rows", len(rows)))
	return rows, nil
}

// convertExportRow derives CTR and the one-based average position; the export
// stores a zero-based position sum.
func convertExportRow(property domain.Property, r exportRow) (domain.AnalyticsRow, bool) {
	date, err := time.Parse(dateLayout, r.DataDate)
	if err != nil || r.Impressions <= 0 {
		return domain.AnalyticsRow{}, false
	}
	return domain.AnalyticsRow{
		PropertyID:  property.ID,
		Date:        date,
		Query:       r.Query,
		Page:        r.URL,
		Clicks:      r.Clicks,
		Impressions: r.Impressions,
		CTR:         float64(r.Clicks) / float64(r.Impressions),
		Position:    r.SumPosition/float64(r.Impressions) + 1,
	}, true
}

func (s *Source) Close() error {
	return s.client.Close()
}
