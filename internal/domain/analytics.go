package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AnalyticsRow is one day of search performance for a (query, page) pair.
type AnalyticsRow struct {
	PropertyID  uuid.UUID `json:"property_id"`
	Date        time.Time `json:"date"`
	Query       string    `json:"query"`
	Page        string    `json:"page"`
	Clicks      int64     `json:"clicks"`
	Impressions int64     `json:"impressions"`
	CTR         float64   `json:"ctr"`
	Position    float64   `json:"position"`
}

// PositionObservation is a single dated position sample used for velocity.
type PositionObservation struct {
	Query    string    `json:"query"`
	Page     string    `json:"page"`
	Date     time.Time `json:"date"`
	Position float64   `json:"position"`
}

// CrawlStat describes how a search engine crawls one URL.
type CrawlStat struct {
	PropertyID     uuid.UUID  `json:"property_id"`
	URL            string     `json:"url"`
	CrawlFrequency float64    `json:"crawl_frequency"`
	Clicks90d      int64      `json:"clicks_90d"`
	Impressions90d int64      `json:"impressions_90d"`
	InternalLinks  int        `json:"internal_links"`
	LastCrawledAt  *time.Time `json:"last_crawled_at,omitempty"`
}

type AnalyticsQuery struct {
	PropertyID uuid.UUID
	URL        string
	SearchTerm string
	Days       int
	Limit      int
}

// URLInspection is the subset of an index inspection verdict agents reason about.
type URLInspection struct {
	URL                    string     `json:"url"`
	Verdict                string     `json:"verdict"`
	CoverageState          string     `json:"coverage_state"`
	IndexingState          string     `json:"indexing_state,omitempty"`
	RobotsTxtState         string     `json:"robots_txt_state,omitempty"`
	PageFetchState         string     `json:"page_fetch_state,omitempty"`
	GoogleCanonical        string     `json:"google_canonical,omitempty"`
	UserCanonical          string     `json:"user_canonical,omitempty"`
	MobileUsabilityVerdict string     `json:"mobile_usability_verdict,omitempty"`
	MobileIssues           []string   `json:"mobile_issues,omitempty"`
	LastCrawlTime          *time.Time `json:"last_crawl_time,omitempty"`
}

// AnalyticsSource pulls daily search performance rows for a site.
type AnalyticsSource interface {
	FetchRows(ctx context.Context, property Property, start, end time.Time) ([]AnalyticsRow, error)
}
