package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/service"
)

type SleepHandler struct {
	cycle  *service.SleepCycle
	logger *zap.Logger
}

func NewSleepHandler(cycle *service.SleepCycle, logger *zap.Logger) *SleepHandler {
	return &SleepHandler{cycle: cycle, logger: logger}
}

// Run triggers one consolidation pass. Sub-task failures are reported in
// the result body rather than as an error status.
func (h *SleepHandler) Run(w http.ResponseWriter, r *http.Request) {
	res, err := h.cycle.RunOnce(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrSleepCycleRunning) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("sleep cycle", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "sleep cycle failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
