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
)

const skillColumns = `id, property_id, strategy_name, description, context_pattern, steps, success_rate, times_applied, tags, evidence_through, created_at, updated_at`

type SkillStore struct {
	db *pgxpool.Pool
}

func NewSkillStore(db *pgxpool.Pool) *SkillStore {
	return &SkillStore{db: db}
}

// Create fails with ErrConflict when the strategy was already promoted.
func (s *SkillStore) Create(ctx context.Context, sk *domain.SkillRecord, evidence []uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create skill: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx,
		`INSERT INTO skill_records (property_id, strategy_name, description, context_pattern, steps, success_rate, times_applied, tags, evidence_through)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		sk.PropertyID, sk.StrategyName, sk.Description, sk.ContextPattern, sk.Steps, sk.SuccessRate, sk.TimesApplied, sk.Tags, sk.EvidenceThrough,
	).Scan(&sk.ID, &sk.CreatedAt, &sk.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	if err := claimEvidence(ctx, tx, sk.ID, evidence); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *SkillStore) GetByStrategy(ctx context.Context, strategyName string) (*domain.SkillRecord, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+skillColumns+` FROM skill_records WHERE strategy_name = $1`,
		strategyName,
	)
	sk, err := scanSkill(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sk, nil
}

func (s *SkillStore) UpdateStats(ctx context.Context, id uuid.UUID, successRate float64, timesApplied int, evidenceThrough time.Time, evidence []uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update skill: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE skill_records
		 SET success_rate = $1, times_applied = $2, evidence_through = $3, updated_at = NOW()
		 WHERE id = $4`,
		successRate, timesApplied, evidenceThrough, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if err := claimEvidence(ctx, tx, id, evidence); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// claimEvidence marks actions as counted toward a skill. Actions already
// claimed are left alone.
func claimEvidence(ctx context.Context, tx pgx.Tx, skillID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx,
		`UPDATE action_records SET skill_id = $1 WHERE id = ANY($2) AND skill_id IS NULL`,
		skillID, ids,
	)
	if err != nil {
		return fmt.Errorf("claim evidence: %w", err)
	}
	return nil
}

func (s *SkillStore) ListForProperty(ctx context.Context, propertyID uuid.UUID, limit int) ([]domain.SkillRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+skillColumns+`
		 FROM skill_records
		 WHERE property_id = $1 OR property_id IS NULL
		 ORDER BY updated_at DESC
		 LIMIT $2`,
		propertyID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skills []domain.SkillRecord
	for rows.Next() {
		sk, err := scanSkill(rows)
		if err != nil {
			return nil, err
		}
		skills = append(skills, *sk)
	}
	return skills, rows.Err()
}

func (s *SkillStore) CountForProperty(ctx context.Context, propertyID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM skill_records WHERE property_id = $1 OR property_id IS NULL`,
		propertyID,
	).Scan(&count)
	return count, err
}

func scanSkill(row pgx.Row) (*domain.SkillRecord, error) {
	var sk domain.SkillRecord
	err := row.Scan(&sk.ID, &sk.PropertyID, &sk.StrategyName, &sk.Description, &sk.ContextPattern, &sk.Steps,
		&sk.SuccessRate, &sk.TimesApplied, &sk.Tags, &sk.EvidenceThrough, &sk.CreatedAt, &sk.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sk, nil
}
