package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

const (
	DefaultSyncDays = 30
	// MaxSyncDays is the retention of Search Console performance data.
	MaxSyncDays = 480

	// syncLagDays skips days Search Console has not finalized yet.
	syncLagDays   = 2
	syncChunkSize = 1000
)

var (
	ErrSyncSourceMissing = errors.New("no analytics source configured")
	ErrInvalidSyncDays   = fmt.Errorf("days must be between 1 and %d", MaxSyncDays)
	ErrInvalidCrawlStat  = errors.New("crawl stat requires a url and non-negative counts")
)

type SyncResult struct {
	PropertyID uuid.UUID `json:"property_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Rows       int       `json:"rows"`
}

// SyncService loads search performance and crawl data into the analytics store.
type SyncService struct {
	properties domain.PropertyStore
	analytics  domain.AnalyticsStore
	source     domain.AnalyticsSource
	logger     *zap.Logger
	now        func() time.Time
}

func NewSyncService(ps domain.PropertyStore, as domain.AnalyticsStore, source domain.AnalyticsSource, logger *zap.Logger) *SyncService {
	return &SyncService{
		properties: ps,
		analytics:  as,
		source:     source,
		logger:     logger,
		now:        time.Now,
	}
}

// Sync fetches the last days of finalized data for a property and upserts it.
func (s *SyncService) Sync(ctx context.Context, propertyID uuid.UUID, days int) (*SyncResult, error) {
	if s.source == nil {
		return nil, ErrSyncSourceMissing
	}
	if days == 0 {
		days = DefaultSyncDays
	}
	if days < 1 || days > MaxSyncDays {
		return nil, ErrInvalidSyncDays
	}

	prop, err := lookupProperty(ctx, s.properties, propertyID)
	if err != nil {
		return nil, err
	}

	end := s.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -syncLagDays)
	start := end.AddDate(0, 0, -(days - 1))

	rows, err := s.source.FetchRows(ctx, *prop, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch analytics rows: %w", err)
	}

	written := 0
	for i := 0; i < len(rows); i += syncChunkSize {
		chunk := rows[i:min(i+syncChunkSize, len(rows))]
		n, err := s.analytics.UpsertRows(ctx, chunk)
		written += n
		if err != nil {
			return nil, fmt.Errorf("store analytics rows after %d: %w", written, err)
		}
	}

	s.logger.Info("analytics synced",
		zap.String("property_id", prop.ID.String()),
		zap.String("site", prop.SiteURL),
		zap.Int("days", days),
		zap.Int("rows", written))

	return &SyncResult{
		PropertyID: prop.ID,
		From:       start.Format(time.DateOnly),
		To:         end.Format(time.DateOnly),
		Rows:       written,
	}, nil
}

// IngestCrawlStats stores crawl statistics exported from a log analyzer or crawler.
func (s *SyncService) IngestCrawlStats(ctx context.Context, propertyID uuid.UUID, stats []domain.CrawlStat) (int, error) {
	if _, err := lookupProperty(ctx, s.properties, propertyID); err != nil {
		return 0, err
	}
	for i := range stats {
		c := &stats[i]
		c.URL = strings.TrimSpace(c.URL)
		if c.URL == "" || c.CrawlFrequency < 0 || c.Clicks90d < 0 || c.Impressions90d < 0 || c.InternalLinks < 0 {
			return 0, fmt.Errorf("%w (item %d)", ErrInvalidCrawlStat, i)
		}
		c.PropertyID = propertyID
	}
	return s.analytics.UpsertCrawlStats(ctx, stats)
}
