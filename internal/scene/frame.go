// Package scene defines the JSON frames that describe globe surface updates
// and an in-memory scene that can be replayed from them.
package scene

import (
	"time"

	"github.com/couchcryptid/weather-globe-service/internal/view"
)

// Frame types sent to renderers.
const (
	TypeMarkerAdd     = "marker_add"
	TypeMarkerRemove  = "marker_remove"
	TypeFlyTo         = "fly_to"
	TypeFlyToMarker   = "fly_to_marker"
	TypeList          = "list"
	TypePlaceholder   = "placeholder"
	TypeListVisible   = "list_visible"
	TypeDetail        = "detail"
	TypeDetailVisible = "detail_visible"
)

// Frame is one surface update. Only the fields relevant to Type are set.
type Frame struct {
	Type     string            `json:"type"`
	Marker   view.MarkerHandle `json:"marker,omitempty"`
	Spec     *view.MarkerSpec  `json:"spec,omitempty"`
	Camera   *view.CameraView  `json:"camera,omitempty"`
	Offset   *view.Offset      `json:"offset,omitempty"`
	Duration float64           `json:"duration,omitempty"` // seconds
	Entries  []view.ListEntry  `json:"entries,omitempty"`
	Text     string            `json:"text,omitempty"`
	Visible  *bool             `json:"visible,omitempty"`
	Detail   *view.Detail      `json:"detail,omitempty"`
}

func MarkerAdd(h view.MarkerHandle, spec view.MarkerSpec) Frame {
	return Frame{Type: TypeMarkerAdd, Marker: h, Spec: &spec}
}

func MarkerRemove(h view.MarkerHandle) Frame {
	return Frame{Type: TypeMarkerRemove, Marker: h}
}

func FlyTo(v view.CameraView) Frame {
	return Frame{Type: TypeFlyTo, Camera: &v, Duration: v.Duration.Seconds()}
}

func FlyToMarker(h view.MarkerHandle, offset view.Offset, d time.Duration) Frame {
	return Frame{Type: TypeFlyToMarker, Marker: h, Offset: &offset, Duration: d.Seconds()}
}

func List(entries []view.ListEntry) Frame {
	return Frame{Type: TypeList, Entries: entries}
}

func Placeholder(text string) Frame {
	return Frame{Type: TypePlaceholder, Text: text}
}

func ListVisible(visible bool) Frame {
	return Frame{Type: TypeListVisible, Visible: &visible}
}

func Detail(d view.Detail) Frame {
	return Frame{Type: TypeDetail, Detail: &d}
}

func DetailVisible(visible bool) Frame {
	return Frame{Type: TypeDetailVisible, Visible: &visible}
}
