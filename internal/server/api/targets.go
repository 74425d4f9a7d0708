package api

import (
	"net/http"

	"github.com/ayusman/pinchgrab/internal/app"
	"github.com/ayusman/pinchgrab/internal/scene"
)

// SnapshotSource provides the latest rendered snapshot.
type SnapshotSource interface {
	Last() (scene.Snapshot, bool)
}

// TargetsHandler serves /api/targets from the latest snapshot.
type TargetsHandler struct {
	snapshots SnapshotSource
	stats     StatsSource
}

// NewTargetsHandler creates a TargetsHandler. stats may be nil.
func NewTargetsHandler(snapshots SnapshotSource, stats StatsSource) *TargetsHandler {
	return &TargetsHandler{snapshots: snapshots, stats: stats}
}

type targetResponse struct {
	ID         string     `json:"id"`
	Position   scene.Vec3 `json:"position"`
	Quaternion [4]float64 `json:"quaternion"`
	Opacity    float64    `json:"opacity"`
	Dragging   bool       `json:"dragging"`
}

type listTargetsResponse struct {
	Frame   uint64           `json:"frame"`
	Targets []targetResponse `json:"targets"`
}

func (h *TargetsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := listTargetsResponse{Targets: []targetResponse{}}

	snap, ok := h.snapshots.Last()
	if !ok {
		writeJSON(w, http.StatusOK, response)
		return
	}

	var dragging string
	if h.stats != nil {
		dragging = h.stats.Stats().DragTarget
	}

	response.Frame = snap.Frame
	for _, o := range snap.ObjectsByName(app.NameTarget) {
		response.Targets = append(response.Targets, targetResponse{
			ID:         o.ID,
			Position:   o.Position,
			Quaternion: o.Quaternion,
			Opacity:    o.Material.Opacity,
			Dragging:   o.ID == dragging,
		})
	}
	writeJSON(w, http.StatusOK, response)
}
