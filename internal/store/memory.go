package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

const memoryColumns = `id, property_id, kind, content, embedding, metadata, weight, created_at, last_accessed_at, access_count`

type MemoryStore struct {
	db *pgxpool.Pool
}

func NewMemoryStore(db *pgxpool.Pool) *MemoryStore {
	return &MemoryStore{db: db}
}

func (s *MemoryStore) Insert(ctx context.Context, m *domain.MemoryRecord) error {
	var embedding *pgvector.Vector
	if len(m.Embedding) > 0 {
		v := pgvector.NewVector(m.Embedding)
		embedding = &v
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO memory_records (property_id, kind, content, embedding, metadata, weight, access_count)
		 VALUES ($1, $2, $3, $4, $5, $6, 0)
		 RETURNING id, created_at`,
		m.PropertyID, m.Kind, m.Content, embedding, m.Metadata, m.Weight,
	).Scan(&m.ID, &m.CreatedAt)
}

func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID, propertyID uuid.UUID) (*domain.MemoryRecord, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+memoryColumns+` FROM memory_records WHERE id = $1 AND property_id = $2`,
		id, propertyID,
	)
	m, err := scanMemory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *MemoryStore) SimilarTo(ctx context.Context, embedding []float32, propertyID uuid.UUID, limit int) ([]domain.MemoryWithScore, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+memoryColumns+`, 1 - (embedding <=> $1) AS similarity
		 FROM memory_records
		 WHERE property_id = $2 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		pgvector.NewVector(embedding), propertyID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	return collectScored(rows)
}

func (s *MemoryStore) Touch(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE memory_records SET access_count = access_count + 1, last_accessed_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MemoryStore) CountByProperty(ctx context.Context, propertyID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM memory_records WHERE property_id = $1`,
		propertyID,
	).Scan(&count)
	return count, err
}

func (s *MemoryStore) ListRecentByKind(ctx context.Context, kind domain.MemoryKind, limit int) ([]domain.MemoryRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+memoryColumns+`
		 FROM memory_records
		 WHERE kind = $1 AND embedding IS NOT NULL
		 ORDER BY created_at DESC
		 LIMIT $2`,
		kind, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []domain.MemoryRecord
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recent memory: %w", err)
		}
		memories = append(memories, *m)
	}
	return memories, rows.Err()
}

func (s *MemoryStore) FindDuplicates(ctx context.Context, m domain.MemoryRecord, threshold float32) ([]domain.MemoryWithScore, error) {
	if len(m.Embedding) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+memoryColumns+`, 1 - (embedding <=> $1) AS similarity
		 FROM memory_records
		 WHERE property_id = $2 AND kind = $3 AND id <> $4
		   AND embedding IS NOT NULL AND 1 - (embedding <=> $1) > $5
		 ORDER BY similarity DESC`,
		pgvector.NewVector(m.Embedding), m.PropertyID, m.Kind, m.ID, threshold,
	)
	if err != nil {
		return nil, fmt.Errorf("find duplicates query: %w", err)
	}
	return collectScored(rows)
}

// Merge updates the winner and deletes the losers in one transaction.
func (s *MemoryStore) Merge(ctx context.Context, winnerID uuid.UUID, weight float32, metadata map[string]any, loserIDs []uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin merge: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE memory_records SET weight = $1, metadata = $2 WHERE id = $3`,
		weight, metadata, winnerID,
	)
	if err != nil {
		return fmt.Errorf("update merge winner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if len(loserIDs) > 0 {
		ids := make([]string, len(loserIDs))
		for i, id := range loserIDs {
			ids[i] = id.String()
		}
		if _, err := tx.Exec(ctx, `DELETE FROM memory_records WHERE id = ANY($1::uuid[])`, ids); err != nil {
			return fmt.Errorf("delete merged memories: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *MemoryStore) DeleteStale(ctx context.Context, createdBefore time.Time, maxWeight float32, maxAccessCount int) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM memory_records
		 WHERE created_at < $1 AND weight < $2 AND access_count < $3 AND weight <> $4`,
		createdBefore, maxWeight, maxAccessCount, domain.BrandProtectedWeight,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanMemory(row pgx.Row) (*domain.MemoryRecord, error) {
	var m domain.MemoryRecord
	var embedding *pgvector.Vector
	if err := row.Scan(&m.ID, &m.PropertyID, &m.Kind, &m.Content, &embedding, &m.Metadata, &m.Weight, &m.CreatedAt, &m.LastAccessedAt, &m.AccessCount); err != nil {
		return nil, err
	}
	if embedding != nil {
		m.Embedding = embedding.Slice()
	}
	return &m, nil
}

func collectScored(rows pgx.Rows) ([]domain.MemoryWithScore, error) {
	defer rows.Close()

	var results []domain.MemoryWithScore
	for rows.Next() {
		var ms domain.MemoryWithScore
		var embedding *pgvector.Vector
		err := rows.Scan(
			&ms.ID, &ms.PropertyID, &ms.Kind, &ms.Content, &embedding, &ms.Metadata,
			&ms.Weight, &ms.CreatedAt, &ms.LastAccessedAt, &ms.AccessCount,
			&ms.Similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		if embedding != nil {
			ms.Embedding = embedding.Slice()
		}
		results = append(results, ms)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memory rows: %w", err)
	}
	return results, nil
}
