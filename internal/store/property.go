package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PropertyStore struct {
	db *pgxpool.Pool
}

func NewPropertyStore(db *pgxpool.Pool) *PropertyStore {
	return &PropertyStore{db: db}
}

func (s *PropertyStore) Create(ctx context.Context, p *domain.Property) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO properties (site_url, name) VALUES ($1, $2)
		 RETURNING id, created_at`,
		p.SiteURL, p.Name,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *PropertyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	p := &domain.Property{}
	err := s.db.QueryRow(ctx,
		`SELECT id, site_url, name, created_at FROM properties WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.SiteURL, &p.Name, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PropertyStore) List(ctx context.Context) ([]domain.Property, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, site_url, name, created_at FROM properties ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var props []domain.Property
	for rows.Next() {
		var p domain.Property
		if err := rows.Scan(&p.ID, &p.SiteURL, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, rows.Err()
}
