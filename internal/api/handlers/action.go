package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/service"
)

type ActionHandler struct {
	svc    *service.ActionService
	logger *zap.Logger
}

func NewActionHandler(svc *service.ActionService, logger *zap.Logger) *ActionHandler {
	return &ActionHandler{svc: svc, logger: logger}
}

type createActionRequest struct {
	PropertyID     string         `json:"property_id"`
	AgentType      string         `json:"agent_type"`
	ActionType     string         `json:"action_type"`
	ContextSummary string         `json:"context_summary"`
	Details        map[string]any `json:"details,omitempty"`
	SuccessScore   *float64       `json:"success_score,omitempty"`
}

type impactRequest struct {
	SuccessScore *float64 `json:"success_score"`
}

func (h *ActionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createActionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	propertyID, err := uuid.Parse(req.PropertyID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid property_id")
		return
	}

	a := &domain.ActionRecord{
		PropertyID:     propertyID,
		AgentType:      domain.AgentKind(req.AgentType),
		ActionType:     req.ActionType,
		ContextSummary: req.ContextSummary,
		Details:        req.Details,
		SuccessScore:   req.SuccessScore,
	}
	if err := h.svc.Record(r.Context(), a); err != nil {
		switch {
		case errors.Is(err, service.ErrActionPropertyIDMissing),
			errors.Is(err, service.ErrActionTypeEmpty),
			errors.Is(err, service.ErrInvalidAgentType),
			errors.Is(err, service.ErrInvalidSuccessScore):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("record action", zap.String("property_id", propertyID.String()), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to record action")
		}
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// RecordImpact sets the measured success score of an action.
func (h *ActionHandler) RecordImpact(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid action id")
		return
	}
	var req impactRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SuccessScore == nil {
		writeError(w, http.StatusBadRequest, "success_score is required")
		return
	}

	a, err := h.svc.RecordImpact(r.Context(), id, *req.SuccessScore)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSuccessScore):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrActionNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("record impact", zap.String("action_id", id.String()), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to record impact")
		}
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Skills lists global skills plus those scoped to ?property_id.
func (h *ActionHandler) Skills(w http.ResponseWriter, r *http.Request) {
	propertyID := uuid.Nil
	if raw := r.URL.Query().Get("property_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid property_id")
			return
		}
		propertyID = id
	}
	limit, ok := queryInt(r, "limit", 0)
	if !ok || limit < 0 {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	skills, err := h.svc.Skills(r.Context(), propertyID, limit)
	if err != nil {
		h.logger.Error("list skills", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list skills")
		return
	}
	if skills == nil {
		skills = []domain.SkillRecord{}
	}
	writeJSON(w, http.StatusOK, skills)
}
