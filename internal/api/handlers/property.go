package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/service"
)

type PropertyHandler struct {
	svc    *service.PropertyService
	sync   *service.SyncService
	logger *zap.Logger
}

func NewPropertyHandler(svc *service.PropertyService, sync *service.SyncService, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{svc: svc, sync: sync, logger: logger}
}

type createPropertyRequest struct {
	SiteURL string `json:"site_url"`
	Name    string `json:"name,omitempty"`
}

type crawlStatsRequest struct {
	Stats []domain.CrawlStat `json:"stats"`
}

func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPropertyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := &domain.Property{SiteURL: req.SiteURL, Name: req.Name}
	if err := h.svc.Create(r.Context(), p); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSiteURL):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPropertyConflict):
			writeError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("create property", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create property")
		}
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	props, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error("list properties", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list properties")
		return
	}
	if props == nil {
		props = []domain.Property{}
	}
	writeJSON(w, http.StatusOK, props)
}

func (h *PropertyHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid property id")
		return
	}

	p, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPropertyNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get property")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Sync pulls the last ?days=N days of search performance for the property.
func (h *PropertyHandler) Sync(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid property id")
		return
	}
	days, ok := queryInt(r, "days", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "days must be an integer")
		return
	}

	res, err := h.sync.Sync(r.Context(), id, days)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSyncDays):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPropertyNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrSyncSourceMissing):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			h.logger.Error("sync property", zap.String("property_id", id.String()), zap.Error(err))
			writeError(w, http.StatusBadGateway, "sync failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *PropertyHandler) IngestCrawlStats(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid property id")
		return
	}
	var req crawlStatsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := h.sync.IngestCrawlStats(r.Context(), id, req.Stats)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCrawlStat):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPropertyNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("ingest crawl stats", zap.String("property_id", id.String()), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to store crawl stats")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"ingested": n})
}
