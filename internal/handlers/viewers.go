package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/KarthikMasi/dax-local/internal/metrics"
	"github.com/KarthikMasi/dax-local/internal/viewer"
	"github.com/google/uuid"
)

// HandleViewers creates a viewer session: one slideshow per image-type and
// orientation pair, all surfaces refreshed before the first response.
func (h *Handler) HandleViewers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "POST":
		id := uuid.NewString()
		v := viewer.New(h.cfg, h.clock)
		v.UpdateAll()
		h.viewerStore.Set(id, v)

		h.writeJSON(w, map[string]any{
			"viewer_id": id,
			"state":     v.State(),
		})
	case "GET":
		h.writeJSON(w, map[string]any{"viewer_ids": h.viewerStore.IDs()})
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type actionRequest struct {
	Action      string `json:"action"`
	ImageType   string `json:"image_type,omitempty"`
	Orientation string `json:"orientation,omitempty"`
	Index       int    `json:"index,omitempty"`
}

// HandleViewerDetail serves GET /api/viewers/{id} for state reads,
// DELETE to drop a session, and POST /api/viewers/{id}/action for controls.
func (h *Handler) HandleViewerDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/viewers/")
	viewerID, tail, _ := strings.Cut(rest, "/")

	v, ok := h.getViewerOrError(w, viewerID)
	if !ok {
		return
	}

	switch {
	case tail == "" && r.Method == "GET":
		h.writeJSON(w, v.State())
	case tail == "" && r.Method == "DELETE":
		h.viewerStore.Delete(viewerID)
		w.WriteHeader(http.StatusNoContent)
	case tail == "action" && r.Method == "POST":
		h.handleAction(w, r, v)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request, v *viewer.Viewer) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.applyAction(v, req); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	metrics.ViewerActions.WithLabelValues(req.Action).Inc()
	h.writeJSON(w, v.State())
}

func (h *Handler) applyAction(v *viewer.Viewer, req actionRequest) error {
	switch req.Action {
	case "next", "previous", "play_pause":
		s, ok := v.Show(req.ImageType, req.Orientation)
		if !ok {
			return errUnknownTrack(req.ImageType, req.Orientation)
		}
		switch req.Action {
		case "next":
			s.Next()
		case "previous":
			s.Previous()
		case "play_pause":
			s.PlayPause()
		}
	case "goto":
		count := h.sliceCount(req.Orientation)
		if count == 0 {
			return errUnknownTrack("", req.Orientation)
		}
		if req.Index < 0 || req.Index >= count {
			return errIndexOutOfRange(req.Index, count)
		}
		v.GotoSlide(req.Orientation, req.Index)
	case "zoom_up":
		v.ZoomUp()
	case "zoom_down":
		v.ZoomDown()
	case "delay_up":
		v.DelayUp()
	case "delay_down":
		v.DelayDown()
	default:
		return errUnknownAction(req.Action)
	}
	return nil
}

func (h *Handler) sliceCount(orientation string) int {
	for _, o := range h.cfg.Viewer.Orientations {
		if o.Name == orientation {
			return o.SliceCount()
		}
	}
	return 0
}
