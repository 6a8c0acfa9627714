package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultAnalyticsDays  = 28
	defaultAnalyticsLimit = 1000
	maxAnalyticsLimit     = 5000
	historyPairLimit      = 500
)

type AnalyticsStore struct {
	db *pgxpool.Pool
}

func NewAnalyticsStore(db *pgxpool.Pool) *AnalyticsStore {
	return &AnalyticsStore{db: db}
}

func (s *AnalyticsStore) UpsertRows(ctx context.Context, rows []domain.AnalyticsRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(
			`INSERT INTO analytics_rows (property_id, date, query, page, clicks, impressions, ctr, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (property_id, date, query, page) DO UPDATE
			 SET clicks = EXCLUDED.clicks, impressions = EXCLUDED.impressions,
			     ctr = EXCLUDED.ctr, position = EXCLUDED.position`,
			r.PropertyID, r.Date, r.Query, r.Page, r.Clicks, r.Impressions, r.CTR, r.Position,
		)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()

	for i := range rows {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("upsert analytics row %d: %w", i, err)
		}
	}
	return len(rows), nil
}

func (s *AnalyticsStore) QueryRows(ctx context.Context, q domain.AnalyticsQuery) ([]domain.AnalyticsRow, error) {
	if q.Days <= 0 {
		q.Days = defaultAnalyticsDays
	}
	if q.Limit <= 0 {
		q.Limit = defaultAnalyticsLimit
	}
	if q.Limit > maxAnalyticsLimit {
		q.Limit = maxAnalyticsLimit
	}

	var conditions []string
	var args []any

	conditions = append(conditions, fmt.Sprintf("property_id = $%d", len(args)+1))
	args = append(args, q.PropertyID)

	conditions = append(conditions, fmt.Sprintf("date >= CURRENT_DATE - $%d::int", len(args)+1))
	args = append(args, q.Days)

	if q.URL != "" {
		conditions = append(conditions, fmt.Sprintf("page = $%d", len(args)+1))
		args = append(args, q.URL)
	}

	if q.SearchTerm != "" {
		conditions = append(conditions, fmt.Sprintf("query ILIKE '%%' || $%d || '%%'", len(args)+1))
		args = append(args, q.SearchTerm)
	}

	limitParam := len(args) + 1
	args = append(args, q.Limit)

	query := fmt.Sprintf(
		`SELECT query, page, SUM(clicks), SUM(impressions),
		        CASE WHEN SUM(impressions) > 0 THEN SUM(clicks)::float8 / SUM(impressions) ELSE 0 END,
		        CASE WHEN SUM(impressions) > 0 THEN SUM(position * impressions) / SUM(impressions) ELSE AVG(position) END
		 FROM analytics_rows
		 WHERE %s
		 GROUP BY query, page
		 ORDER BY SUM(impressions) DESC
		 LIMIT $%d`,
		strings.Join(conditions, " AND "),
		limitParam,
	)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("analytics query: %w", err)
	}
	defer rows.Close()

	var out []domain.AnalyticsRow
	for rows.Next() {
		r := domain.AnalyticsRow{PropertyID: q.PropertyID}
		if err := rows.Scan(&r.Query, &r.Page, &r.Clicks, &r.Impressions, &r.CTR, &r.Position); err != nil {
			return nil, fmt.Errorf("scan analytics row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PositionHistory returns daily positions for the highest-impression pairs.
func (s *AnalyticsStore) PositionHistory(ctx context.Context, propertyID uuid.UUID, days int) ([]domain.PositionObservation, error) {
	if days <= 0 {
		days = 30
	}
	rows, err := s.db.Query(ctx,
		`WITH top_pairs AS (
		     SELECT query, page FROM analytics_rows
		     WHERE property_id = $1 AND date >= CURRENT_DATE - $2::int
		     GROUP BY query, page
		     ORDER BY SUM(impressions) DESC
		     LIMIT $3
		 )
		 SELECT a.query, a.page, a.date, a.position
		 FROM analytics_rows a
		 JOIN top_pairs t ON t.query = a.query AND t.page = a.page
		 WHERE a.property_id = $1 AND a.date >= CURRENT_DATE - $2::int
		 ORDER BY a.query, a.page, a.date`,
		propertyID, days, historyPairLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("position history query: %w", err)
	}
	defer rows.Close()

	var out []domain.PositionObservation
	for rows.Next() {
		var o domain.PositionObservation
		if err := rows.Scan(&o.Query, &o.Page, &o.Date, &o.Position); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *AnalyticsStore) TotalClicks(ctx context.Context, propertyID uuid.UUID, days int) (int64, error) {
	var total int64
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(clicks), 0) FROM analytics_rows
		 WHERE property_id = $1 AND date >= CURRENT_DATE - $2::int`,
		propertyID, days,
	).Scan(&total)
	return total, err
}

func (s *AnalyticsStore) UpsertCrawlStats(ctx context.Context, stats []domain.CrawlStat) (int, error) {
	if len(stats) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, c := range stats {
		batch.Queue(
			`INSERT INTO crawl_stats (property_id, url, crawl_frequency, clicks_90d, impressions_90d, internal_links, last_crawled_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (property_id, url) DO UPDATE
			 SET crawl_frequency = EXCLUDED.crawl_frequency, clicks_90d = EXCLUDED.clicks_90d,
			     impressions_90d = EXCLUDED.impressions_90d, internal_links = EXCLUDED.internal_links,
			     last_crawled_at = EXCLUDED.last_crawled_at`,
			c.PropertyID, c.URL, c.CrawlFrequency, c.Clicks90d, c.Impressions90d, c.InternalLinks, c.LastCrawledAt,
		)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()

	for i := range stats {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("upsert crawl stat %d: %w", i, err)
		}
	}
	return len(stats), nil
}

func (s *AnalyticsStore) CrawlStats(ctx context.Context, propertyID uuid.UUID) ([]domain.CrawlStat, error) {
	rows, err := s.db.Query(ctx,
		`SELECT property_id, url, crawl_frequency, clicks_90d, impressions_90d, internal_links, last_crawled_at
		 FROM crawl_stats WHERE property_id = $1
		 ORDER BY crawl_frequency DESC`,
		propertyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CrawlStat
	for rows.Next() {
		var c domain.CrawlStat
		if err := rows.Scan(&c.PropertyID, &c.URL, &c.CrawlFrequency, &c.Clicks90d, &c.Impressions90d, &c.InternalLinks, &c.LastCrawledAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
