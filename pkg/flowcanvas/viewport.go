package flowcanvas

import (
	"fmt"
	"sync"
)

// Point is a screen or canvas coordinate pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is the canvas container's on-screen bounding rectangle.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Transform is a pan/zoom: screen = logical*Zoom + (X, Y).
type Transform struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Identity is the transform with no pan and zoom 1.
var Identity = Transform{Zoom: 1}

// Valid reports whether the transform can be inverted.
func (t Transform) Valid() bool {
	return isFinite(t.X) && isFinite(t.Y) && isFinite(t.Zoom) && t.Zoom > 0
}

// Apply maps a logical point to container-relative screen space.
func (t Transform) Apply(p Point) Point {
	return Point{X: p.X*t.Zoom + t.X, Y: p.Y*t.Zoom + t.Y}
}

// Invert maps a container-relative screen point to logical space.
func (t Transform) Invert(p Point) Point {
	return Point{X: (p.X - t.X) / t.Zoom, Y: (p.Y - t.Y) / t.Zoom}
}

// Viewport is provided by the rendering surface. Project maps a point
// relative to the canvas container into logical space, or reports false
// while the surface is still mounting.
type Viewport interface {
	Project(offset Point) (Point, bool)
}

// BoundsSource resolves the canvas container's bounding rectangle.
type BoundsSource interface {
	Bounds() (Rect, bool)
}

// BoundsFunc adapts a function to BoundsSource.
type BoundsFunc func() (Rect, bool)

// Bounds implements BoundsSource.
func (f BoundsFunc) Bounds() (Rect, bool) {
	return f()
}

// StaticBounds is a fixed bounding rectangle.
type StaticBounds Rect

// Bounds implements BoundsSource.
func (b StaticBounds) Bounds() (Rect, bool) {
	return Rect(b), true
}

// PanZoom is a Viewport holding a transform that the rendering surface (or
// an agent) updates. It is not ready until the first SetTransform.
type PanZoom struct {
	mu        sync.RWMutex
	transform Transform
	ready     bool
}

// NewPanZoom returns an uninitialized viewport.
func NewPanZoom() *PanZoom {
	return &PanZoom{}
}

// SetTransform installs a transform and marks the viewport ready.
func (v *PanZoom) SetTransform(t Transform) error {
	if !t.Valid() {
		return fmt.Errorf("invalid transform %+v: zoom must be positive and all values finite", t)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.transform = t
	v.ready = true
	return nil
}

// Transform returns the current transform and whether it was initialized.
func (v *PanZoom) Transform() (Transform, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.transform, v.ready
}

// Project implements Viewport.
func (v *PanZoom) Project(offset Point) (Point, bool) {
	t, ok := v.Transform()
	if !ok {
		return Point{}, false
	}
	return t.Invert(offset), true
}

// ViewportMapper converts screen coordinates to logical canvas coordinates.
// Both collaborators are queried on every call; nothing is cached.
type ViewportMapper struct {
	viewport Viewport
	bounds   BoundsSource
}

// NewViewportMapper creates a mapper.
func NewViewportMapper(viewport Viewport, bounds BoundsSource) *ViewportMapper {
	return &ViewportMapper{viewport: viewport, bounds: bounds}
}

// ToCanvas maps a screen point to logical space.
func (m *ViewportMapper) ToCanvas(client Point) (Position, error) {
	if m.bounds == nil {
		return Position{}, ErrBoundsUnavailable
	}
	rect, ok := m.bounds.Bounds()
	if !ok {
		return Position{}, ErrBoundsUnavailable
	}
	if m.viewport == nil {
		return Position{}, ErrViewportNotReady
	}
	p, ok := m.viewport.Project(Point{X: client.X - rect.Left, Y: client.Y - rect.Top})
	if !ok {
		return Position{}, ErrViewportNotReady
	}
	pos := Position(p)
	if !pos.Finite() {
		return Position{}, fmt.Errorf("%w: (%v, %v)", ErrNonFinitePosition, p.X, p.Y)
	}
	return pos, nil
}
