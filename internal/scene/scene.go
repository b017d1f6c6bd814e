package scene

import (
	"sync"

	"github.com/couchcryptid/weather-globe-service/internal/view"
)

// Scene is the current state of the surfaces, rebuilt from frames.
// Camera moves are transient and are not kept. Scene is safe for concurrent use.
type Scene struct {
	mu sync.Mutex

	order         []view.MarkerHandle
	markers       map[view.MarkerHandle]view.MarkerSpec
	entries       []view.ListEntry
	placeholder   string
	listVisible   bool
	detail        *view.Detail
	detailVisible bool
}

// New returns the initial scene: list showing, detail hidden, nothing placed.
func New() *Scene {
	return &Scene{
		markers:     make(map[view.MarkerHandle]view.MarkerSpec),
		listVisible: true,
	}
}

// Apply folds a frame into the scene.
func (s *Scene) Apply(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch f.Type {
	case TypeMarkerAdd:
		if f.Spec == nil {
			return
		}
		if _, ok := s.markers[f.Marker]; !ok {
			s.order = append(s.order, f.Marker)
		}
		s.markers[f.Marker] = *f.Spec
	case TypeMarkerRemove:
		if _, ok := s.markers[f.Marker]; !ok {
			return
		}
		delete(s.markers, f.Marker)
		for i, h := range s.order {
			if h == f.Marker {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	case TypeList:
		s.entries = append([]view.ListEntry(nil), f.Entries...)
		s.placeholder = ""
	case TypePlaceholder:
		s.entries = nil
		s.placeholder = f.Text
	case TypeListVisible:
		if f.Visible != nil {
			s.listVisible = *f.Visible
		}
	case TypeDetail:
		if f.Detail != nil {
			d := *f.Detail
			s.detail = &d
		}
	case TypeDetailVisible:
		if f.Visible != nil {
			s.detailVisible = *f.Visible
		}
	}
}

// Has reports whether a marker is placed.
func (s *Scene) Has(h view.MarkerHandle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.markers[h]
	return ok
}

// Replay returns the frames that rebuild the scene on a fresh renderer.
func (s *Scene) Replay() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := make([]Frame, 0, len(s.order)+4)
	for _, h := range s.order {
		frames = append(frames, MarkerAdd(h, s.markers[h]))
	}
	if s.placeholder != "" {
		frames = append(frames, Placeholder(s.placeholder))
	} else {
		frames = append(frames, List(s.entries))
	}
	if s.detail != nil {
		frames = append(frames, Detail(*s.detail))
	}
	frames = append(frames, ListVisible(s.listVisible), DetailVisible(s.detailVisible))
	return frames
}
