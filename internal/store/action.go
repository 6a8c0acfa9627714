package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const actionColumns = `id, property_id, agent_type, action_type, context_summary, details, success_score, executed_at, skill_id`

type ActionStore struct {
	db *pgxpool.Pool
}

func NewActionStore(db *pgxpool.Pool) *ActionStore {
	return &ActionStore{db: db}
}

func (s *ActionStore) Create(ctx context.Context, a *domain.ActionRecord) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO action_records (property_id, agent_type, action_type, context_summary, details, success_score)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, executed_at`,
		a.PropertyID, a.AgentType, a.ActionType, a.ContextSummary, a.Details, a.SuccessScore,
	).Scan(&a.ID, &a.ExecutedAt)
}

func (s *ActionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ActionRecord, error) {
	var a domain.ActionRecord
	err := s.db.QueryRow(ctx,
		`SELECT `+actionColumns+` FROM action_records WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.PropertyID, &a.AgentType, &a.ActionType, &a.ContextSummary, &a.Details, &a.SuccessScore, &a.ExecutedAt, &a.SkillID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// RecordImpact is the only mutation an action accepts after creation.
func (s *ActionStore) RecordImpact(ctx context.Context, id uuid.UUID, score float64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE action_records SET success_score = $1 WHERE id = $2`,
		score, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ActionStore) ListSuccessful(ctx context.Context, minScore float64) ([]domain.ActionRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+actionColumns+`
		 FROM action_records
		 WHERE success_score IS NOT NULL AND success_score > $1
		 ORDER BY executed_at ASC, id ASC`,
		minScore,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []domain.ActionRecord
	for rows.Next() {
		var a domain.ActionRecord
		if err := rows.Scan(&a.ID, &a.PropertyID, &a.AgentType, &a.ActionType, &a.ContextSummary, &a.Details, &a.SuccessScore, &a.ExecutedAt, &a.SkillID); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func (s *ActionStore) CountByProperty(ctx context.Context, propertyID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM action_records WHERE property_id = $1`,
		propertyID,
	).Scan(&count)
	return count, err
}
