package api

import (
	"net/http"

	"github.com/ayusman/pinchgrab/internal/app"
)

// StatsSource reports orchestrator state.
type StatsSource interface {
	Stats() app.Stats
}

// StatusHandler serves /api/status.
type StatusHandler struct {
	stats StatsSource
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(stats StatsSource) *StatusHandler {
	return &StatusHandler{stats: stats}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.stats.Stats())
}
