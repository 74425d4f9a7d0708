package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/pinchgrab/internal/store"
)

// MaxInteractionLimit caps the limit query parameter.
const MaxInteractionLimit = 1000

// InteractionsHandler serves /api/interactions.
type InteractionsHandler struct {
	store *store.Store
}

// NewInteractionsHandler creates an InteractionsHandler.
func NewInteractionsHandler(s *store.Store) *InteractionsHandler {
	return &InteractionsHandler{store: s}
}

type listInteractionsResponse struct {
	Interactions []*store.Interaction `json:"interactions"`
}

func (h *InteractionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := store.DefaultInteractionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxInteractionLimit)
	}

	list, err := h.store.Interactions().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list interactions")
		return
	}
	if list == nil {
		list = []*store.Interaction{}
	}
	writeJSON(w, http.StatusOK, listInteractionsResponse{Interactions: list})
}
