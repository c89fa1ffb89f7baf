package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// Shape is a planar region used for collision checks.
type Shape interface {
	fmt.Stringer
	// Hit reports whether p lies inside or on the shape.
	Hit(p r2.Point) bool
	// HitSegment reports whether any point of segment ab lies inside or on the shape.
	HitSegment(a, b r2.Point) bool
	// Distance is 0 for points inside the shape and the distance to its boundary otherwise.
	Distance(p r2.Point) float64
	// Inflated returns the shape grown outward by margin.
	Inflated(margin float64) Shape
	Label() string
}

func newBadShapeDimensionsError(s Shape) error {
	return errors.Errorf("invalid dimension(s) for shape type %T", s)
}

// Circle is a disc.
type Circle struct {
	Center r2.Point
	Radius float64
	Name   string
}

// NewCircle instantiates a new circle Shape.
func NewCircle(center r2.Point, radius float64, label string) (Shape, error) {
	c := Circle{Center: center, Radius: radius, Name: label}
	if radius <= 0 {
		return nil, newBadShapeDimensionsError(c)
	}
	return c, nil
}

// String returns a human readable string that represents the circle.
func (c Circle) String() string {
	return fmt.Sprintf("Type: Circle, Center: (%.3f, %.3f), Radius: %.3f", c.Center.X, c.Center.Y, c.Radius)
}

// Label returns the label of this circle.
func (c Circle) Label() string {
	return c.Name
}

// Hit reports whether p is inside the circle.
func (c Circle) Hit(p r2.Point) bool {
	return Distance(p, c.Center) <= c.Radius
}

// HitSegment reports whether ab passes through the circle.
func (c Circle) HitSegment(a, b r2.Point) bool {
	return DistanceToSegment(c.Center, a, b) <= c.Radius
}

// Distance returns the distance from p to the circle's boundary, or 0 inside it.
func (c Circle) Distance(p r2.Point) float64 {
	return math.Max(0, Distance(p, c.Center)-c.Radius)
}

// Inflated returns a circle with radius grown by margin.
func (c Circle) Inflated(margin float64) Shape {
	c.Radius += margin
	return c
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Bounds r2.Rect
	Name   string
}

// NewRect instantiates a new axis-aligned rectangle spanning the two corners.
func NewRect(cornerA, cornerB r2.Point, label string) (Shape, error) {
	r := Rect{Bounds: r2.RectFromPoints(cornerA, cornerB), Name: label}
	if r.Bounds.IsEmpty() || r.Bounds.X.Length() == 0 || r.Bounds.Y.Length() == 0 {
		return nil, newBadShapeDimensionsError(r)
	}
	return r, nil
}

// String returns a human readable string that represents the rectangle.
func (r Rect) String() string {
	return fmt.Sprintf("Type: Rect, Lo: (%.3f, %.3f), Hi: (%.3f, %.3f)",
		r.Bounds.Lo().X, r.Bounds.Lo().Y, r.Bounds.Hi().X, r.Bounds.Hi().Y)
}

// Label returns the label of this rectangle.
func (r Rect) Label() string {
	return r.Name
}

// Hit reports whether p is inside the rectangle.
func (r Rect) Hit(p r2.Point) bool {
	return r.Bounds.ContainsPoint(p)
}

// HitSegment reports whether ab touches the rectangle.
func (r Rect) HitSegment(a, b r2.Point) bool {
	if r.Hit(a) || r.Hit(b) {
		return true
	}
	v := r.Bounds.Vertices()
	for i := range v {
		if SegmentsIntersect(a, b, v[i], v[(i+1)%len(v)]) {
			return true
		}
	}
	return false
}

// Distance returns the distance from p to the rectangle, or 0 inside it.
func (r Rect) Distance(p r2.Point) float64 {
	return Distance(p, r.Bounds.ClampPoint(p))
}

// Inflated returns the rectangle expanded by margin on each side. Corners stay square.
func (r Rect) Inflated(margin float64) Shape {
	r.Bounds = r.Bounds.ExpandedByMargin(margin)
	return r
}

// Capsule is every point within Radius of the segment AB.
type Capsule struct {
	A, B   r2.Point
	Radius float64
	Name   string
}

// NewCapsule instantiates a new capsule Shape.
func NewCapsule(a, b r2.Point, radius float64, label string) (Shape, error) {
	c := Capsule{A: a, B: b, Radius: radius, Name: label}
	if radius <= 0 {
		return nil, newBadShapeDimensionsError(c)
	}
	return c, nil
}

// String returns a human readable string that represents the capsule.
func (c Capsule) String() string {
	return fmt.Sprintf("Type: Capsule, A: (%.3f, %.3f), B: (%.3f, %.3f), Radius: %.3f",
		c.A.X, c.A.Y, c.B.X, c.B.Y, c.Radius)
}

// Label returns the label of this capsule.
func (c Capsule) Label() string {
	return c.Name
}

// Hit reports whether p is inside the capsule.
func (c Capsule) Hit(p r2.Point) bool {
	return DistanceToSegment(p, c.A, c.B) <= c.Radius
}

// HitSegment reports whether ab passes through the capsule.
func (c Capsule) HitSegment(a, b r2.Point) bool {
	return SegmentDistance(a, b, c.A, c.B) <= c.Radius
}

// Distance returns the distance from p to the capsule's boundary, or 0 inside it.
func (c Capsule) Distance(p r2.Point) float64 {
	return math.Max(0, DistanceToSegment(p, c.A, c.B)-c.Radius)
}

// Inflated returns a capsule with radius grown by margin.
func (c Capsule) Inflated(margin float64) Shape {
	c.Radius += margin
	return c
}
