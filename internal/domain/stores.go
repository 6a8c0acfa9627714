package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PropertyStore interface {
	Create(ctx context.Context, p *Property) error
	GetByID(ctx context.Context, id uuid.UUID) (*Property, error)
	List(ctx context.Context) ([]Property, error)
}

type MemoryStore interface {
	Insert(ctx context.Context, m *MemoryRecord) error
	GetByID(ctx context.Context, id uuid.UUID, propertyID uuid.UUID) (*MemoryRecord, error)
	// SimilarTo returns candidates for the property ordered by cosine similarity.
	SimilarTo(ctx context.Context, embedding []float32, propertyID uuid.UUID, limit int) ([]MemoryWithScore, error)
	Touch(ctx context.Context, id uuid.UUID) error
	CountByProperty(ctx context.Context, propertyID uuid.UUID) (int, error)

	// Sleep cycle methods
	ListRecentByKind(ctx context.Context, kind MemoryKind, limit int) ([]MemoryRecord, error)
	FindDuplicates(ctx context.Context, m MemoryRecord, threshold float32) ([]MemoryWithScore, error)
	Merge(ctx context.Context, winnerID uuid.UUID, weight float32, metadata map[string]any, loserIDs []uuid.UUID) error
	DeleteStale(ctx context.Context, createdBefore time.Time, maxWeight float32, maxAccessCount int) (int64, error)
}

type ActionStore interface {
	Create(ctx context.Context, a *ActionRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*ActionRecord, error)
	RecordImpact(ctx context.Context, id uuid.UUID, score float64) error
	// ListSuccessful returns measured actions scoring strictly above minScore, oldest first.
	ListSuccessful(ctx context.Context, minScore float64) ([]ActionRecord, error)
	CountByProperty(ctx context.Context, propertyID uuid.UUID) (int, error)
}

type SkillStore interface {
	// Create inserts the skill and claims the evidence actions for it atomically.
	Create(ctx context.Context, s *SkillRecord, evidence []uuid.UUID) error
	GetByStrategy(ctx context.Context, strategyName string) (*SkillRecord, error)
	// UpdateStats rewrites the statistics and claims the newly folded evidence atomically.
	UpdateStats(ctx context.Context, id uuid.UUID, successRate float64, timesApplied int, evidenceThrough time.Time, evidence []uuid.UUID) error
	// ListForProperty returns property-scoped and global skills, most recently updated first.
	ListForProperty(ctx context.Context, propertyID uuid.UUID, limit int) ([]SkillRecord, error)
	CountForProperty(ctx context.Context, propertyID uuid.UUID) (int, error)
}

type AnalyticsStore interface {
	UpsertRows(ctx context.Context, rows []AnalyticsRow) (int, error)
	// QueryRows aggregates rows over the window per (query, page).
	QueryRows(ctx context.Context, q AnalyticsQuery) ([]AnalyticsRow, error)
	PositionHistory(ctx context.Context, propertyID uuid.UUID, days int) ([]PositionObservation, error)
	TotalClicks(ctx context.Context, propertyID uuid.UUID, days int) (int64, error)
	UpsertCrawlStats(ctx context.Context, stats []CrawlStat) (int, error)
	CrawlStats(ctx context.Context, propertyID uuid.UUID) ([]CrawlStat, error)
}
