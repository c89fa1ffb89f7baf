package spatialmath

import (
	"math"

	"github.com/golang/geo/r2"
)

// ClosestPointOnSegment returns the point on segment ab closest to p.
func ClosestPointOnSegment(p, a, b r2.Point) r2.Point {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return a
	}
	t := p.Sub(a).Dot(ab) / lenSq
	t = math.Max(0, math.Min(1, t))
	return a.Add(ab.Mul(t))
}

// DistanceToSegment returns the distance from p to segment ab.
func DistanceToSegment(p, a, b r2.Point) float64 {
	return Distance(p, ClosestPointOnSegment(p, a, b))
}

// SegmentsIntersect returns whether segments ab and cd share a point.
func SegmentsIntersect(a, b, c, d r2.Point) bool {
	d1 := orientation(c, d, a)
	d2 := orientation(c, d, b)
	d3 := orientation(a, b, c)
	d4 := orientation(a, b, d)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(c, d, a):
		return true
	case d2 == 0 && onSegment(c, d, b):
		return true
	case d3 == 0 && onSegment(a, b, c):
		return true
	case d4 == 0 && onSegment(a, b, d):
		return true
	}
	return false
}

// SegmentDistance returns the smallest distance between segments ab and cd.
func SegmentDistance(a, b, c, d r2.Point) float64 {
	if SegmentsIntersect(a, b, c, d) {
		return 0
	}
	return math.Min(
		math.Min(DistanceToSegment(a, c, d), DistanceToSegment(b, c, d)),
		math.Min(DistanceToSegment(c, a, b), DistanceToSegment(d, a, b)),
	)
}

func orientation(a, b, p r2.Point) float64 {
	return b.Sub(a).Cross(p.Sub(a))
}

func onSegment(a, b, p r2.Point) bool {
	return p.X >= math.Min(a.X, b.X) && p.X <= math.Max(a.X, b.X) &&
		p.Y >= math.Min(a.Y, b.Y) && p.Y <= math.Max(a.Y, b.Y)
}
