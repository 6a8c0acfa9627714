package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/service"
)

type MemoryHandler struct {
	svc    *service.MemoryService
	logger *zap.Logger
}

func NewMemoryHandler(svc *service.MemoryService, logger *zap.Logger) *MemoryHandler {
	return &MemoryHandler{svc: svc, logger: logger}
}

type createMemoryRequest struct {
	PropertyID string         `json:"property_id"`
	Kind       string         `json:"kind,omitempty"`
	Content    string         `json:"content"`
	Weight     *float32       `json:"weight,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type memoryResponse struct {
	*domain.MemoryRecord
	Tier       domain.MemoryTier `json:"tier"`
	TierReason string            `json:"tier_reason"`
}

func newMemoryResponse(m *domain.MemoryRecord) memoryResponse {
	return memoryResponse{
		MemoryRecord: m,
		Tier:         domain.ComputeTier(m.Weight),
		TierReason:   domain.TierReason(m.Weight),
	}
}

type recallResponse struct {
	Memories []service.ScoredMemory `json:"memories"`
	Count    int                    `json:"count"`
}

// Create stores a memory directly. Brand facts default to the protected
// weight, everything else to the standard weight.
func (h *MemoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMemoryRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	propertyID, err := uuid.Parse(req.PropertyID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid property_id")
		return
	}

	m := &domain.MemoryRecord{
		PropertyID: propertyID,
		Kind:       domain.MemoryKind(req.Kind),
		Content:    req.Content,
		Metadata:   req.Metadata,
		Weight:     service.DefaultMemoryWeight,
	}
	switch {
	case req.Weight != nil:
		m.Weight = *req.Weight
	case m.Kind == domain.MemoryKindBrand:
		m.Weight = domain.BrandProtectedWeight
	}

	if err := h.svc.Insert(r.Context(), m); err != nil {
		switch {
		case errors.Is(err, service.ErrMemoryContentEmpty),
			errors.Is(err, service.ErrMemoryPropertyIDMissing),
			errors.Is(err, service.ErrInvalidMemoryKind),
			errors.Is(err, service.ErrInvalidWeight):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("insert memory", zap.String("property_id", propertyID.String()), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to store memory")
		}
		return
	}

	writeJSON(w, http.StatusCreated, newMemoryResponse(m))
}

func (h *MemoryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid memory id")
		return
	}
	propertyID, err := uuid.Parse(r.URL.Query().Get("property_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid property_id")
		return
	}

	m, err := h.svc.GetByID(r.Context(), id, propertyID)
	if err != nil {
		if errors.Is(err, service.ErrMemoryNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get memory")
		return
	}
	writeJSON(w, http.StatusOK, newMemoryResponse(m))
}

// Recall ranks the property's memories against ?query by hybrid score.
func (h *MemoryHandler) Recall(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	propertyID, err := uuid.Parse(q.Get("property_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid property_id")
		return
	}
	limit, ok := queryInt(r, "limit", service.DefaultRecallLimit)
	if !ok || limit < 1 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	minScore, ok := queryFloat(r, "min_score", service.DefaultMinScore)
	if !ok || minScore < 0 || minScore > 1 {
		writeError(w, http.StatusBadRequest, "min_score must be between 0 and 1")
		return
	}

	memories, err := h.svc.Recall(r.Context(), q.Get("query"), propertyID, minScore, limit)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecallQueryEmpty),
			errors.Is(err, service.ErrMemoryPropertyIDMissing):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("recall memories", zap.String("property_id", propertyID.String()), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to recall memories")
		}
		return
	}
	if memories == nil {
		memories = []service.ScoredMemory{}
	}

	writeJSON(w, http.StatusOK, recallResponse{Memories: memories, Count: len(memories)})
}
