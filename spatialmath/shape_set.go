package spatialmath

import (
	"math"
	"strings"

	"github.com/golang/geo/r2"
)

// ShapeSet is an ordered collection of shapes treated as their union. The zero value is an empty
// set ready to use.
type ShapeSet struct {
	shapes []Shape
}

// NewShapeSet returns a set holding the given shapes.
func NewShapeSet(shapes ...Shape) ShapeSet {
	var ss ShapeSet
	ss.Add(shapes...)
	return ss
}

// Add appends shapes to the set. Nil shapes are skipped.
func (ss *ShapeSet) Add(shapes ...Shape) {
	for _, s := range shapes {
		if s != nil {
			ss.shapes = append(ss.shapes, s)
		}
	}
}

// AddAll appends every shape of other to the set.
func (ss *ShapeSet) AddAll(other ShapeSet) {
	ss.shapes = append(ss.shapes, other.shapes...)
}

// Union returns a new set holding the shapes of ss followed by those of other. Neither input is
// modified.
func (ss ShapeSet) Union(other ShapeSet) ShapeSet {
	out := ss.Clone()
	out.AddAll(other)
	return out
}

// Shapes returns a copy of the shapes in the set.
func (ss ShapeSet) Shapes() []Shape {
	return append([]Shape(nil), ss.shapes...)
}

// Len returns the number of shapes in the set.
func (ss ShapeSet) Len() int {
	return len(ss.shapes)
}

// Clone returns a set that does not share storage with ss. Shapes themselves are values.
func (ss ShapeSet) Clone() ShapeSet {
	return ShapeSet{shapes: ss.Shapes()}
}

// Hit reports whether any shape contains p.
func (ss ShapeSet) Hit(p r2.Point) bool {
	for _, s := range ss.shapes {
		if s.Hit(p) {
			return true
		}
	}
	return false
}

// HitSegment reports whether any shape touches segment ab.
func (ss ShapeSet) HitSegment(a, b r2.Point) bool {
	for _, s := range ss.shapes {
		if s.HitSegment(a, b) {
			return true
		}
	}
	return false
}

// Distance returns the distance from p to the closest shape, or +Inf for an empty set.
func (ss ShapeSet) Distance(p r2.Point) float64 {
	best := math.Inf(1)
	for _, s := range ss.shapes {
		best = math.Min(best, s.Distance(p))
	}
	return best
}

// Inflated returns a new set with every shape grown by margin.
func (ss ShapeSet) Inflated(margin float64) ShapeSet {
	out := ShapeSet{shapes: make([]Shape, 0, len(ss.shapes))}
	for _, s := range ss.shapes {
		out.shapes = append(out.shapes, s.Inflated(margin))
	}
	return out
}

func (ss ShapeSet) String() string {
	parts := make([]string, 0, len(ss.shapes))
	for _, s := range ss.shapes {
		parts = append(parts, s.String())
	}
	return "[" + strings.Join(parts, "; ") + "]"
}
