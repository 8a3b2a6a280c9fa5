package handlers

import (
	"net/http"
	"time"

	"github.com/hongminglow/backoffice/internal/http/respond"
)

// HealthHandler returns uptime and basic status.
type HealthHandler struct {
	startedAt time.Time
	storage   string
}

// NewHealthHandler creates a health endpoint handler.
func NewHealthHandler(startedAt time.Time, storageKind string) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, storage: storageKind}
}

// Register wires the handler into a ServeMux.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handle)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"storage": h.storage,
		"uptime":  time.Since(h.startedAt).Truncate(time.Second).String(),
	})
}
