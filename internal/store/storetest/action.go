package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/store"
)

// ActionStore implements domain.ActionStore for testing.
type ActionStore struct {
	mu      sync.Mutex
	actions map[uuid.UUID]*domain.ActionRecord

	CreateErr error
	ListErr   error
}

func NewActionStore() *ActionStore {
	return &ActionStore{actions: make(map[uuid.UUID]*domain.ActionRecord)}
}

func (s *ActionStore) Create(ctx context.Context, a *domain.ActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.ExecutedAt.IsZero() {
		a.ExecutedAt = time.Now()
	}
	cp := *a
	s.actions[a.ID] = &cp
	return nil
}

func (s *ActionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ActionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *ActionStore) RecordImpact(ctx context.Context, id uuid.UUID, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actions[id]
	if !ok {
		return store.ErrNotFound
	}
	a.SuccessScore = &score
	return nil
}

func (s *ActionStore) ListSuccessful(ctx context.Context, minScore float64) ([]domain.ActionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var out []domain.ActionRecord
	for _, a := range s.actions {
		if a.SuccessScore != nil && *a.SuccessScore > minScore {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExecutedAt.Equal(out[j].ExecutedAt) {
			return out[i].ExecutedAt.Before(out[j].ExecutedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *ActionStore) CountByProperty(ctx context.Context, propertyID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.actions {
		if a.PropertyID == propertyID {
			n++
		}
	}
	return n, nil
}

// All returns a snapshot of every recorded action.
func (s *ActionStore) All() []domain.ActionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ActionRecord, 0, len(s.actions))
	for _, a := range s.actions {
		out = append(out, *a)
	}
	return out
}

// claim marks unclaimed actions as counted toward a skill.
func (s *ActionStore) claim(skillID uuid.UUID, ids []uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if a, ok := s.actions[id]; ok && a.SkillID == nil {
			sid := skillID
			a.SkillID = &sid
		}
	}
}

// SkillStore implements domain.SkillStore for testing. Evidence claims are
// written through to actions when it is set.
type SkillStore struct {
	mu      sync.Mutex
	skills  map[uuid.UUID]*domain.SkillRecord
	actions *ActionStore
}

func NewSkillStore(actions *ActionStore) *SkillStore {
	return &SkillStore{skills: make(map[uuid.UUID]*domain.SkillRecord), actions: actions}
}

func (s *SkillStore) Create(ctx context.Context, sk *domain.SkillRecord, evidence []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.skills {
		if existing.StrategyName == sk.StrategyName {
			return store.ErrConflict
		}
	}
	if sk.ID == uuid.Nil {
		sk.ID = uuid.New()
	}
	now := time.Now()
	sk.CreatedAt, sk.UpdatedAt = now, now
	cp := *sk
	s.skills[sk.ID] = &cp
	if s.actions != nil {
		s.actions.claim(sk.ID, evidence)
	}
	return nil
}

func (s *SkillStore) GetByStrategy(ctx context.Context, strategyName string) (*domain.SkillRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sk := range s.skills {
		if sk.StrategyName == strategyName {
			cp := *sk
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *SkillStore) UpdateStats(ctx context.Context, id uuid.UUID, successRate float64, timesApplied int, evidenceThrough time.Time, evidence []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sk, ok := s.skills[id]
	if !ok {
		return store.ErrNotFound
	}
	sk.SuccessRate = successRate
	sk.TimesApplied = timesApplied
	sk.EvidenceThrough = evidenceThrough
	sk.UpdatedAt = time.Now()
	if s.actions != nil {
		s.actions.claim(id, evidence)
	}
	return nil
}

func (s *SkillStore) ListForProperty(ctx context.Context, propertyID uuid.UUID, limit int) ([]domain.SkillRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.SkillRecord
	for _, sk := range s.skills {
		if sk.PropertyID == nil || *sk.PropertyID == propertyID {
			out = append(out, *sk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *SkillStore) CountForProperty(ctx context.Context, propertyID uuid.UUID) (int, error) {
	skills, err := s.ListForProperty(ctx, propertyID, 0)
	return len(skills), err
}

// All returns a snapshot of every skill.
func (s *SkillStore) All() []domain.SkillRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SkillRecord, 0, len(s.skills))
	for _, sk := range s.skills {
		out = append(out, *sk)
	}
	return out
}
