// Package searchconsole reads performance rows and URL inspection verdicts
// from the Search Console API.
package searchconsole

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	gsc "google.golang.org/api/searchconsole/v1"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

const (
	dateLayout = "2006-01-02"
	// pageSize is the API's maximum rows per request.
	pageSize = 25000
)

type Client struct {
	svc    *gsc.Service
	logger *zap.Logger
}

// NewClient builds a client from a service account credentials file. An empty
// path falls back to application default credentials.
func NewClient(ctx context.Context, credentialsFile string, logger *zap.Logger) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := gsc.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create search console service: %w", err)
	}
	return &Client{svc: svc, logger: logger}, nil
}

// FetchRows pages through the date/query/page breakdown for the window.
func (c *Client) FetchRows(ctx context.Context, property domain.Property, start, end time.Time) ([]domain.AnalyticsRow, error) {
	var rows []domain.AnalyticsRow
	for startRow := int64(0); ; startRow += pageSize {
		resp, err := c.svc.Searchanalytics.Query(property.SiteURL, &gsc.SearchAnalyticsQueryRequest{
			StartDate:  start.Format(dateLayout),
			EndDate:    end.Format(dateLayout),
			Dimensions: []string{"date", "query", "page"},
			RowLimit:   pageSize,
			StartRow:   startRow,
		}).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("search analytics query: %w", err)
		}

		for _, r := range resp.Rows {
			row, ok := convertRow(property, r)
			if !ok {
				continue
			}
			rows = append(rows, row)
		}
		if len(resp.Rows) < pageSize {
			break
		}
	}

	c.logger.Debug("fetched search analytics rows",
		zap.String("site", property.SiteURL),
		zap.Int("rows", len(rows)))
	return rows, nil
}

func convertRow(property domain.Property, r *gsc.ApiDataRow) (domain.AnalyticsRow, bool) {
	if len(r.Keys) != 3 {
		return domain.AnalyticsRow{}, false
	}
	date, err := time.Parse(dateLayout, r.Keys[0])
	if err != nil {
		return domain.AnalyticsRow{}, false
	}
	return domain.AnalyticsRow{
		PropertyID:  property.ID,
		Date:        date,
		Query:       r.Keys[1],
		Page:        r.Keys[2],
		Clicks:      int64(r.Clicks),
		Impressions: int64(r.Impressions),
		CTR:         r.Ctr,
		Position:    r.Position,
	}, true
}

// Inspect returns the live index status of pageURL.
func (c *Client) Inspect(ctx context.Context, siteURL, pageURL string) (*domain.URLInspection, error) {
	resp, err := c.svc.UrlInspection.Index.Inspect(&gsc.InspectUrlIndexRequest{
		InspectionUrl: pageURL,
		SiteUrl:       siteURL,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("inspect url: %w", err)
	}
	return convertInspection(pageURL, resp.InspectionResult), nil
}

func convertInspection(pageURL string, res *gsc.UrlInspectionResult) *domain.URLInspection {
	out := &domain.URLInspection{URL: pageURL}
	if res == nil {
		return out
	}

	if idx := res.IndexStatusResult; idx != nil {
		out.Verdict = idx.Verdict
		out.CoverageState = idx.CoverageState
		out.IndexingState = idx.IndexingState
		out.RobotsTxtState = idx.RobotsTxtState
		out.PageFetchState = idx.PageFetchState
		out.GoogleCanonical = idx.GoogleCanonical
		out.UserCanonical = idx.UserCanonical
		if t, err := time.Parse(time.RFC3339, idx.LastCrawlTime); err == nil {
			out.LastCrawlTime = &t
		}
	}

	if mob := res.MobileUsabilityResult; mob != nil {
		out.MobileUsabilityVerdict = mob.Verdict
		for _, issue := range mob.Issues {
			msg := issue.IssueType
			if issue.Message != "" {
				msg = strings.TrimSpace(msg + ": " + issue.Message)
			}
			out.MobileIssues = append(out.MobileIssues, msg)
		}
	}
	return out
}
