package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/store"
)

// PropertyStore implements domain.PropertyStore for testing.
type PropertyStore struct {
	mu         sync.Mutex
	properties map[uuid.UUID]*domain.Property
}

func NewPropertyStore() *PropertyStore {
	return &PropertyStore{properties: make(map[uuid.UUID]*domain.Property)}
}

func (s *PropertyStore) Create(ctx context.Context, p *domain.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.properties {
		if existing.SiteURL == p.SiteURL {
			return store.ErrConflict
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	cp := *p
	s.properties[p.ID] = &cp
	return nil
}

func (s *PropertyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.properties[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *PropertyStore) List(ctx context.Context) ([]domain.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Property, 0, len(s.properties))
	for _, p := range s.properties {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type rowKey struct {
	property    uuid.UUID
	date        time.Time
	query, page string
}

// AnalyticsStore implements domain.AnalyticsStore for testing. Day windows
// are measured back from Now.
type AnalyticsStore struct {
	mu    sync.Mutex
	rows  map[rowKey]domain.AnalyticsRow
	crawl map[string]domain.CrawlStat

	Now      func() time.Time
	QueryErr error
}

func NewAnalyticsStore() *AnalyticsStore {
	return &AnalyticsStore{
		rows:  make(map[rowKey]domain.AnalyticsRow),
		crawl: make(map[string]domain.CrawlStat),
		Now:   time.Now,
	}
}

func (s *AnalyticsStore) since(days int) time.Time {
	return s.Now().AddDate(0, 0, -days).Truncate(24 * time.Hour)
}

func (s *AnalyticsStore) UpsertRows(ctx context.Context, rows []domain.AnalyticsRow) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.rows[rowKey{r.PropertyID, r.Date, r.Query, r.Page}] = r
	}
	return len(rows), nil
}

func (s *AnalyticsStore) QueryRows(ctx context.Context, q domain.AnalyticsQuery) ([]domain.AnalyticsRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.QueryErr != nil {
		return nil, s.QueryErr
	}
	if q.Days <= 0 {
		q.Days = 28
	}
	since := s.since(q.Days)

	type agg struct {
		row    domain.AnalyticsRow
		posSum float64
	}
	groups := make(map[[2]string]*agg)
	for k, r := range s.rows {
		if k.property != q.PropertyID || r.Date.Before(since) {
			continue
		}
		if q.URL != "" && r.Page != q.URL {
			continue
		}
		if q.SearchTerm != "" && !strings.Contains(strings.ToLower(r.Query), strings.ToLower(q.SearchTerm)) {
			continue
		}
		g, ok := groups[[2]string{r.Query, r.Page}]
		if !ok {
			g = &agg{row: domain.AnalyticsRow{PropertyID: q.PropertyID, Query: r.Query, Page: r.Page}}
			groups[[2]string{r.Query, r.Page}] = g
		}
		g.row.Clicks += r.Clicks
		g.row.Impressions += r.Impressions
		g.posSum += r.Position * float64(r.Impressions)
	}

	out := make([]domain.AnalyticsRow, 0, len(groups))
	for _, g := range groups {
		if g.row.Impressions > 0 {
			g.row.CTR = float64(g.row.Clicks) / float64(g.row.Impressions)
			g.row.Position = g.posSum / float64(g.row.Impressions)
		}
		out = append(out, g.row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Impressions != out[j].Impressions {
			return out[i].Impressions > out[j].Impressions
		}
		return out[i].Query+out[i].Page < out[j].Query+out[j].Page
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *AnalyticsStore) PositionHistory(ctx context.Context, propertyID uuid.UUID, days int) ([]domain.PositionObservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	since := s.since(days)
	var out []domain.PositionObservation
	for k, r := range s.rows {
		if k.property == propertyID && !r.Date.Before(since) {
			out = append(out, domain.PositionObservation{Query: r.Query, Page: r.Page, Date: r.Date, Position: r.Position})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Query != out[j].Query {
			return out[i].Query < out[j].Query
		}
		if out[i].Page != out[j].Page {
			return out[i].Page < out[j].Page
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (s *AnalyticsStore) TotalClicks(ctx context.Context, propertyID uuid.UUID, days int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	since := s.since(days)
	var total int64
	for k, r := range s.rows {
		if k.property == propertyID && !r.Date.Before(since) {
			total += r.Clicks
		}
	}
	return total, nil
}

func (s *AnalyticsStore) UpsertCrawlStats(ctx context.Context, stats []domain.CrawlStat) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range stats {
		s.crawl[c.PropertyID.String()+"|"+c.URL] = c
	}
	return len(stats), nil
}

func (s *AnalyticsStore) CrawlStats(ctx context.Context, propertyID uuid.UUID) ([]domain.CrawlStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CrawlStat
	for _, c := range s.crawl {
		if c.PropertyID == propertyID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CrawlFrequency > out[j].CrawlFrequency })
	return out, nil
}

// RowCount returns the number of stored daily rows.
func (s *AnalyticsStore) RowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
