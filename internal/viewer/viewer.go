// Package viewer implements the slice viewer state: one slideshow per
// image-type and orientation pair, coordinated by a single Viewer value.
package viewer

import (
	"fmt"
	"sync"

	"github.com/KarthikMasi/dax-local/internal/config"
	"github.com/jonboulle/clockwork"
)

// Key addresses one slideshow track.
type Key struct {
	ImageType   string
	Orientation string
}

// Viewer owns every slideshow of one viewing session plus the shared
// auto-advance delay. All tracks always run at the same delay; the Viewer is
// the only writer of it.
type Viewer struct {
	cfg *config.Config

	mu      sync.Mutex
	shows   map[Key]*SlideShow
	delayMS int
}

// surface renders slideshow state into the slice image URL the page shows.
type surface struct {
	mu       sync.Mutex
	template string
	numbers  []int
	url      string
}

func (d *surface) Show(imageType, orientation string, index, zoom int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.numbers) {
		return
	}
	d.url = fmt.Sprintf(d.template, imageType, orientation, d.numbers[index])
	if zoom > 0 {
		d.url = fmt.Sprintf("%s?zoom=%d", d.url, zoom)
	}
}

func (d *surface) URL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url
}

// New builds a viewer with one slideshow per (image type, orientation) pair
// from the configuration.
func New(cfg *config.Config, clock clockwork.Clock) *Viewer {
	v := &Viewer{
		cfg:     cfg,
		shows:   make(map[Key]*SlideShow),
		delayMS: cfg.Viewer.DefaultDelayMS,
	}
	for _, imageType := range cfg.Viewer.ImageTypes {
		for _, o := range cfg.Viewer.Orientations {
			d := &surface{
				template: cfg.Viewer.SlicePathTemplate,
				numbers:  o.SliceNumbers(),
			}
			v.shows[Key{ImageType: imageType, Orientation: o.Name}] =
				NewSlideShow(imageType, o.Name, o.SliceCount(), v.delayMS, d, clock)
		}
	}
	return v
}

// Show returns the slideshow for one track.
func (v *Viewer) Show(imageType, orientation string) (*SlideShow, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.shows[Key{ImageType: imageType, Orientation: orientation}]
	return s, ok
}

// UpdateAll refreshes every track's display surface. Run once after creation
// so the page starts from a consistent state.
func (v *Viewer) UpdateAll() {
	for _, s := range v.snapshot() {
		s.Update()
	}
}

// GotoSlide jumps every image-type track of one orientation to index n,
// pausing each first, so the tracks stay visually synchronized.
func (v *Viewer) GotoSlide(orientation string, n int) {
	for _, s := range v.snapshot() {
		if s.Orientation == orientation {
			s.GotoSlide(n)
		}
	}
}

// ZoomUp raises the zoom level on every track.
func (v *Viewer) ZoomUp() {
	for _, s := range v.snapshot() {
		s.ZoomUp()
	}
}

// ZoomDown lowers the zoom level on every track.
func (v *Viewer) ZoomDown() {
	for _, s := range v.snapshot() {
		s.ZoomDown()
	}
}

// DelayUp pauses every track and raises the shared delay one step.
func (v *Viewer) DelayUp() int {
	return v.setDelay(DelayStepMS)
}

// DelayDown pauses every track and lowers the shared delay one step, floored
// at MinDelayMS.
func (v *Viewer) DelayDown() int {
	return v.setDelay(-DelayStepMS)
}

func (v *Viewer) setDelay(step int) int {
	v.mu.Lock()
	v.delayMS += step
	if v.delayMS < MinDelayMS {
		v.delayMS = MinDelayMS
	}
	delay := v.delayMS
	shows := make([]*SlideShow, 0, len(v.shows))
	for _, s := range v.shows {
		shows = append(shows, s)
	}
	v.mu.Unlock()

	for _, s := range shows {
		s.SetDelay(delay)
	}
	return delay
}

// Delay reports the shared auto-advance delay in milliseconds.
func (v *Viewer) Delay() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.delayMS
}

// Config exposes the configuration the viewer was built from.
func (v *Viewer) Config() *config.Config {
	return v.cfg
}

// Pause stops playback on every track, e.g. when the page unloads.
func (v *Viewer) Pause() {
	for _, s := range v.snapshot() {
		s.Pause()
	}
}

func (v *Viewer) snapshot() []*SlideShow {
	v.mu.Lock()
	defer v.mu.Unlock()
	shows := make([]*SlideShow, 0, len(v.shows))
	for _, s := range v.shows {
		shows = append(shows, s)
	}
	return shows
}

// TrackState is one track's position as reported to the page.
type TrackState struct {
	ImageType   string `json:"image_type"`
	Orientation string `json:"orientation"`
	Index       int    `json:"index"`
	Zoom        int    `json:"zoom"`
	Playing     bool   `json:"playing"`
	ImageURL    string `json:"image_url"`
}

// OrientationState carries one orientation's selector options.
type OrientationState struct {
	Name          string `json:"name"`
	SliceNumbers  []int  `json:"slice_numbers"`
	SelectedIndex int    `json:"selected_index"`
}

// State is the full snapshot the HTTP API serves.
type State struct {
	ImageTypes   []string           `json:"image_types"`
	Orientations []OrientationState `json:"orientations"`
	Tracks       []TrackState       `json:"tracks"`
	DelayMS      int                `json:"delay_ms"`
}

// State snapshots every track for the page.
func (v *Viewer) State() State {
	st := State{
		ImageTypes: v.cfg.Viewer.ImageTypes,
		DelayMS:    v.Delay(),
	}

	for _, o := range v.cfg.Viewer.Orientations {
		ostate := OrientationState{Name: o.Name, SliceNumbers: o.SliceNumbers()}
		// All tracks of an orientation share a position after GotoSlide;
		// the first image type's track reports it.
		if s, ok := v.Show(v.cfg.Viewer.ImageTypes[0], o.Name); ok {
			ostate.SelectedIndex = s.CurrentIndex()
		}
		st.Orientations = append(st.Orientations, ostate)
	}

	for _, imageType := range v.cfg.Viewer.ImageTypes {
		for _, o := range v.cfg.Viewer.Orientations {
			s, ok := v.Show(imageType, o.Name)
			if !ok {
				continue
			}
			s.mu.Lock()
			track := TrackState{
				ImageType:   imageType,
				Orientation: o.Name,
				Index:       s.index,
				Zoom:        s.zoom,
				Playing:     s.playing,
			}
			if d, ok := s.display.(*surface); ok {
				track.ImageURL = d.URL()
			}
			s.mu.Unlock()
			st.Tracks = append(st.Tracks, track)
		}
	}

	return st
}
