package viewer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// MinDelayMS is the floor for the auto-advance interval.
	MinDelayMS = 100

	// DelayStepMS is how much DelayUp/DelayDown move the interval.
	DelayStepMS = 100

	maxZoom = 4
)

// Display is the surface a slideshow renders onto. The slideshow holds a
// non-owning reference; the page owns the surface.
type Display interface {
	Show(imageType, orientation string, index, zoom int)
}

// SlideShow pages through one slice stack: one instance per image-type and
// orientation pair. It is either Stopped or Playing; while Playing a ticker
// advances the current slide every delay interval.
type SlideShow struct {
	ImageType   string
	Orientation string

	mu      sync.Mutex
	index   int
	count   int
	delayMS int
	zoom    int
	playing bool
	stop    chan struct{}

	display Display
	clock   clockwork.Clock
}

func NewSlideShow(imageType, orientation string, sliceCount, delayMS int, display Display, clock clockwork.Clock) *SlideShow {
	if delayMS < MinDelayMS {
		delayMS = MinDelayMS
	}
	if sliceCount < 1 {
		sliceCount = 1
	}
	return &SlideShow{
		ImageType:   imageType,
		Orientation: orientation,
		count:       sliceCount,
		delayMS:     delayMS,
		display:     display,
		clock:       clock,
	}
}

// Play starts auto-advance. A no-op when already playing.
func (s *SlideShow) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playLocked()
}

func (s *SlideShow) playLocked() {
	if s.playing {
		return
	}
	s.playing = true
	s.stop = make(chan struct{})
	go s.run(s.stop, time.Duration(s.delayMS)*time.Millisecond)
}

func (s *SlideShow) run(stop chan struct{}, interval time.Duration) {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			s.advance(stop)
		}
	}
}

// advance moves one slide forward on a timer tick. Ticks that raced with a
// Pause lose: the stop channel is checked under the state lock.
func (s *SlideShow) advance(stop chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-stop:
		return
	default:
	}
	s.index = (s.index + 1) % s.count
	s.updateLocked()
}

// Pause cancels the auto-advance timer. A no-op when stopped.
func (s *SlideShow) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauseLocked()
}

func (s *SlideShow) pauseLocked() {
	if !s.playing {
		return
	}
	s.playing = false
	close(s.stop)
	s.stop = nil
}

// PlayPause toggles the play state and returns the label the control should
// now carry.
func (s *SlideShow) PlayPause() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		s.pauseLocked()
		return "Play"
	}
	s.playLocked()
	return "Pause"
}

// Next pauses playback, then steps one slide forward with wraparound.
func (s *SlideShow) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauseLocked()
	s.index = (s.index + 1) % s.count
	s.updateLocked()
}

// Previous pauses playback, then steps one slide back with wraparound.
func (s *SlideShow) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauseLocked()
	s.index = (s.index - 1 + s.count) % s.count
	s.updateLocked()
}

// GotoSlide pauses playback and jumps straight to index n. The caller
// guarantees n is valid; selector options are generated from the configured
// bounds so out-of-range values cannot arrive from the page.
func (s *SlideShow) GotoSlide(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauseLocked()
	s.index = n
	s.updateLocked()
}

// ZoomUp increases the zoom level. Independent of play state.
func (s *SlideShow) ZoomUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.zoom < maxZoom {
		s.zoom++
	}
	s.updateLocked()
}

// ZoomDown decreases the zoom level. Independent of play state.
func (s *SlideShow) ZoomDown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.zoom > 0 {
		s.zoom--
	}
	s.updateLocked()
}

// SetDelay pauses playback and sets the auto-advance interval, floored at
// MinDelayMS.
func (s *SlideShow) SetDelay(delayMS int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauseLocked()
	if delayMS < MinDelayMS {
		delayMS = MinDelayMS
	}
	s.delayMS = delayMS
}

// Update refreshes the display surface from current state. Idempotent and
// safe before first play.
func (s *SlideShow) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateLocked()
}

func (s *SlideShow) updateLocked() {
	if s.display != nil {
		s.display.Show(s.ImageType, s.Orientation, s.index, s.zoom)
	}
}

// CurrentIndex reports the slide position.
func (s *SlideShow) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Zoom reports the zoom level.
func (s *SlideShow) Zoom() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

// Delay reports the auto-advance interval in milliseconds.
func (s *SlideShow) Delay() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delayMS
}

// Playing reports whether auto-advance is active.
func (s *SlideShow) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}
