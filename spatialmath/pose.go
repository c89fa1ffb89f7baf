// Package spatialmath defines the planar poses, velocities and collision shapes used by the
// planners. All distances are in meters and all angles in radians.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"github.com/rjsoccer/planner/utils"
)

// Pose is a position on the field plus a heading measured counter-clockwise from +x.
type Pose struct {
	Position r2.Point
	Heading  float64
}

// NewPose returns a pose at (x, y) with the given heading.
func NewPose(x, y, heading float64) Pose {
	return Pose{Position: r2.Point{X: x, Y: y}, Heading: heading}
}

// String returns a human readable representation of the pose.
func (p Pose) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.1f°)", p.Position.X, p.Position.Y, utils.RadToDeg(p.Heading))
}

// Twist is a planar velocity: linear in m/s and angular in rad/s.
type Twist struct {
	Linear  r2.Point
	Angular float64
}

// Speed returns the magnitude of the linear part of the twist.
func (t Twist) Speed() float64 {
	return t.Linear.Norm()
}

// PoseAlmostEqual returns whether two poses are within epsilon in position and heading.
func PoseAlmostEqual(a, b Pose, epsilon float64) bool {
	return a.Position.Sub(b.Position).Norm() <= epsilon &&
		math.Abs(AngleDiff(a.Heading, b.Heading)) <= epsilon
}

// NormalizeAngle wraps theta into (-π, π].
func NormalizeAngle(theta float64) float64 {
	theta = math.Mod(theta, 2*math.Pi)
	if theta <= -math.Pi {
		theta += 2 * math.Pi
	} else if theta > math.Pi {
		theta -= 2 * math.Pi
	}
	return theta
}

// AngleDiff returns the signed smallest rotation taking b to a.
func AngleDiff(a, b float64) float64 {
	return NormalizeAngle(a - b)
}

// AngleOf returns the direction of v, or 0 for the zero vector.
func AngleOf(v r2.Point) float64 {
	if v.X == 0 && v.Y == 0 {
		return 0
	}
	return math.Atan2(v.Y, v.X)
}

// UnitVector returns the unit vector pointing along theta.
func UnitVector(theta float64) r2.Point {
	return r2.Point{X: math.Cos(theta), Y: math.Sin(theta)}
}

// Distance returns the euclidean distance between two points.
func Distance(a, b r2.Point) float64 {
	return a.Sub(b).Norm()
}
