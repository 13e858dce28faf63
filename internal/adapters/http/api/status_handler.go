package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/casting-intake/internal/core/services"
)

type StatusHandler struct {
	poller          *services.ReadinessPoller
	defaultProvider string
	logger          *zap.Logger
}

func NewStatusHandler(poller *services.ReadinessPoller, defaultProvider string, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{poller: poller, defaultProvider: defaultProvider, logger: logger}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		provider = h.defaultProvider
	}

	status, err := h.poller.GetStatus(r.Context(), provider, r.PathValue("videoId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, status)
}
