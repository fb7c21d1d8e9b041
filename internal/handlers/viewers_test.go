package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KarthikMasi/dax-local/internal/config"
	"github.com/KarthikMasi/dax-local/internal/viewer"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	handler := New(config.Default())

	mux := http.NewServeMux()
	mux.HandleFunc("/api/viewers", handler.HandleViewers)
	mux.HandleFunc("/api/viewers/", handler.HandleViewerDetail)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func createViewer(t *testing.T, server *httptest.Server) (string, viewer.State) {
	t.Helper()
	resp, err := http.Post(server.URL+"/api/viewers", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 creating viewer, got %d", resp.StatusCode)
	}

	var created struct {
		ViewerID string       `json:"viewer_id"`
		State    viewer.State `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ViewerID == "" {
		t.Fatal("Expected a viewer ID")
	}
	return created.ViewerID, created.State
}

func postAction(t *testing.T, server *httptest.Server, viewerID string, body map[string]any) (*http.Response, viewer.State) {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(
		fmt.Sprintf("%s/api/viewers/%s/action", server.URL, viewerID),
		"application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var st viewer.State
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			t.Fatal(err)
		}
	}
	return resp, st
}

func TestCreateViewerReturnsFullState(t *testing.T) {
	server := newTestServer(t)

	_, st := createViewer(t, server)

	cfg := config.Default()
	wantTracks := len(cfg.Viewer.ImageTypes) * len(cfg.Viewer.Orientations)
	if len(st.Tracks) != wantTracks {
		t.Errorf("Expected %d tracks, got %d", wantTracks, len(st.Tracks))
	}
	if len(st.Orientations) != len(cfg.Viewer.Orientations) {
		t.Errorf("Expected %d orientations, got %d", len(cfg.Viewer.Orientations), len(st.Orientations))
	}
	for _, o := range st.Orientations {
		if len(o.SliceNumbers) == 0 {
			t.Errorf("Expected selector options for %s", o.Name)
		}
	}
}

func TestGotoActionSynchronizesTracks(t *testing.T) {
	server := newTestServer(t)
	viewerID, _ := createViewer(t, server)

	resp, st := postAction(t, server, viewerID, map[string]any{
		"action": "goto", "orientation": "axial", "index": 5,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	for _, track := range st.Tracks {
		if track.Orientation != "axial" {
			continue
		}
		if track.Index != 5 {
			t.Errorf("Expected %s/axial at 5, got %d", track.ImageType, track.Index)
		}
		if track.Playing {
			t.Errorf("Expected %s/axial stopped after goto", track.ImageType)
		}
	}
}

func TestGotoActionRejectsOutOfRangeIndex(t *testing.T) {
	server := newTestServer(t)
	viewerID, _ := createViewer(t, server)

	resp, _ := postAction(t, server, viewerID, map[string]any{
		"action": "goto", "orientation": "axial", "index": 999,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for out-of-range index, got %d", resp.StatusCode)
	}
}

func TestActionValidation(t *testing.T) {
	server := newTestServer(t)
	viewerID, _ := createViewer(t, server)

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "unknown action", body: map[string]any{"action": "warp"}},
		{name: "unknown track", body: map[string]any{"action": "next", "image_type": "nope", "orientation": "axial"}},
		{name: "unknown orientation", body: map[string]any{"action": "goto", "orientation": "diagonal", "index": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := postAction(t, server, viewerID, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestDelayActionsSharedAndFloored(t *testing.T) {
	server := newTestServer(t)
	viewerID, _ := createViewer(t, server)

	for i := 0; i < 20; i++ {
		resp, _ := postAction(t, server, viewerID, map[string]any{"action": "delay_down"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
	}

	_, st := postAction(t, server, viewerID, map[string]any{"action": "delay_down"})
	if st.DelayMS != viewer.MinDelayMS {
		t.Errorf("Expected delay floored at %d, got %d", viewer.MinDelayMS, st.DelayMS)
	}
}

func TestNextActionAdvancesOneTrack(t *testing.T) {
	server := newTestServer(t)
	viewerID, _ := createViewer(t, server)

	_, st := postAction(t, server, viewerID, map[string]any{
		"action": "next", "image_type": "brainmask", "orientation": "coronal",
	})

	for _, track := range st.Tracks {
		want := 0
		if track.ImageType == "brainmask" && track.Orientation == "coronal" {
			want = 1
		}
		if track.Index != want {
			t.Errorf("Expected %s/%s at %d, got %d", track.ImageType, track.Orientation, want, track.Index)
		}
	}
}

func TestViewerNotFound(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/viewers/does-not-exist")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestDeleteViewer(t *testing.T) {
	server := newTestServer(t)
	viewerID, _ := createViewer(t, server)

	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/api/viewers/"+viewerID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", resp.StatusCode)
	}

	get, err := http.Get(server.URL + "/api/viewers/" + viewerID)
	if err != nil {
		t.Fatal(err)
	}
	defer get.Body.Close()
	if get.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", get.StatusCode)
	}
}
