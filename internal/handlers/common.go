package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/KarthikMasi/dax-local/internal/config"
	"github.com/KarthikMasi/dax-local/internal/storage"
	"github.com/KarthikMasi/dax-local/internal/viewer"
	"github.com/jonboulle/clockwork"
)

type Handler struct {
	viewerStore *storage.ViewerStore
	cfg         *config.Config
	clock       clockwork.Clock
}

func New(cfg *config.Config) *Handler {
	return &Handler{
		viewerStore: storage.New(),
		cfg:         cfg,
		clock:       clockwork.NewRealClock(),
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// Viewer helpers
func (h *Handler) getViewerOrError(w http.ResponseWriter, viewerID string) (*viewer.Viewer, bool) {
	v, exists := h.viewerStore.Get(viewerID)
	if !exists {
		h.writeError(w, "Viewer not found", http.StatusNotFound)
		return nil, false
	}
	return v, true
}

func errUnknownAction(action string) error {
	return fmt.Errorf("unknown action %q", action)
}

func errUnknownTrack(imageType, orientation string) error {
	if imageType == "" {
		return fmt.Errorf("unknown orientation %q", orientation)
	}
	return fmt.Errorf("no track for image type %q orientation %q", imageType, orientation)
}

func errIndexOutOfRange(index, count int) error {
	return fmt.Errorf("slide index %d out of range [0, %d)", index, count)
}
