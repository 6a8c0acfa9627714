package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/store"
)

var (
	ErrActionNotFound          = errors.New("action not found")
	ErrActionTypeEmpty         = errors.New("action_type is required")
	ErrActionPropertyIDMissing = errors.New("property_id is required")
	ErrInvalidAgentType        = errors.New("invalid agent_type")
	ErrInvalidSuccessScore     = errors.New("success_score must be between 0 and 1")
)

const defaultSkillLimit = 20

// ActionService records strategy applications, their measured impact and
// exposes the skills promoted from them.
type ActionService struct {
	actions domain.ActionStore
	skills  domain.SkillStore
}

func NewActionService(as domain.ActionStore, ss domain.SkillStore) *ActionService {
	return &ActionService{actions: as, skills: ss}
}

func (s *ActionService) Record(ctx context.Context, a *domain.ActionRecord) error {
	if a.PropertyID == uuid.Nil {
		return ErrActionPropertyIDMissing
	}
	a.ActionType = strings.TrimSpace(a.ActionType)
	if a.ActionType == "" {
		return ErrActionTypeEmpty
	}
	if !domain.ValidAgentKind(string(a.AgentType)) {
		return ErrInvalidAgentType
	}
	if a.SuccessScore != nil && (*a.SuccessScore < 0 || *a.SuccessScore > 1) {
		return ErrInvalidSuccessScore
	}
	return s.actions.Create(ctx, a)
}

// RecordImpact stores the measured success of an action, making it
// evidence for promotion.
func (s *ActionService) RecordImpact(ctx context.Context, id uuid.UUID, score float64) (*domain.ActionRecord, error) {
	if score < 0 || score > 1 {
		return nil, ErrInvalidSuccessScore
	}
	if err := s.actions.RecordImpact(ctx, id, score); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrActionNotFound
		}
		return nil, err
	}
	return s.actions.GetByID(ctx, id)
}

func (s *ActionService) Skills(ctx context.Context, propertyID uuid.UUID, limit int) ([]domain.SkillRecord, error) {
	if limit <= 0 {
		limit = defaultSkillLimit
	}
	return s.skills.ListForProperty(ctx, propertyID, limit)
}
