package orientation

import (
	"errors"
	"fmt"
)

// ErrUnknownOrientation is returned by Parse for values iio-sensor-proxy never reports.
var ErrUnknownOrientation = errors.New("unknown orientation")

// Orientation is the physical orientation of the device.
type Orientation string

const (
	Normal    Orientation = "normal"
	LeftUp    Orientation = "left-up"
	RightUp   Orientation = "right-up"
	BottomUp  Orientation = "bottom-up"
	Undefined Orientation = "undefined" // No reading yet
)

// Transform is a wlr-randr --transform argument.
type Transform string

const (
	TransformNormal Transform = "normal"
	Transform90     Transform = "90"
	Transform180    Transform = "180"
	Transform270    Transform = "270"
)

// ValidOrientations returns the orientations that can be applied to a display.
func ValidOrientations() []Orientation {
	return []Orientation{Normal, LeftUp, RightUp, BottomUp}
}

// Parse converts a sensor value into an Orientation.
func Parse(s string) (Orientation, error) {
	o := Orientation(s)
	if o == Undefined || o.Known() {
		return o, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOrientation, s)
}

// Known reports whether o is one of the four rotatable orientations.
func (o Orientation) Known() bool {
	switch o {
	case Normal, LeftUp, RightUp, BottomUp:
		return true
	default:
		return false
	}
}

// Transform returns the display transform that makes o upright.
func (o Orientation) Transform() (Transform, bool) {
	switch o {
	case Normal:
		return TransformNormal, true
	case RightUp:
		return Transform270, true
	case LeftUp:
		return Transform90, true
	case BottomUp:
		return Transform180, true
	default:
		return "", false
	}
}

// Anchors returns the layer-shell edges that keep the overlay in the
// physical bottom-right corner once o has been applied.
func (o Orientation) Anchors() (Anchors, bool) {
	switch o {
	case Normal:
		return Anchors{Right: true, Bottom: true}, true
	case RightUp:
		return Anchors{Right: true, Top: true}, true
	case LeftUp:
		return Anchors{Left: true, Bottom: true}, true
	case BottomUp:
		return Anchors{Left: true, Top: true}, true
	default:
		return Anchors{}, false
	}
}

func (o Orientation) String() string {
	return string(o)
}

// Edge is a screen edge a layer-shell surface can be anchored to.
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

func (e Edge) String() string {
	switch e {
	case EdgeLeft:
		return "left"
	case EdgeRight:
		return "right"
	case EdgeTop:
		return "top"
	case EdgeBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// Anchors holds the anchor state of every edge.
type Anchors struct {
	Left   bool
	Right  bool
	Top    bool
	Bottom bool
}

// DefaultAnchors is the placement before any rotation has been applied.
var DefaultAnchors = Anchors{Right: true, Bottom: true}

// Has reports whether edge e is anchored.
func (a Anchors) Has(e Edge) bool {
	switch e {
	case EdgeLeft:
		return a.Left
	case EdgeRight:
		return a.Right
	case EdgeTop:
		return a.Top
	case EdgeBottom:
		return a.Bottom
	default:
		return false
	}
}
