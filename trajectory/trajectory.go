// Package trajectory defines time-parameterized robot paths. A Trajectory is immutable once
// built: every modifying operation returns a copy.
package trajectory

import (
	"fmt"
	"time"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/rjsoccer/planner/spatialmath"
)

var (
	// ErrEmpty is returned by Validate for a trajectory with no instants.
	ErrEmpty = errors.New("trajectory is empty")
	// ErrNoAngleProfile is returned by Validate when headings were never assigned.
	ErrNoAngleProfile = errors.New("trajectory has no angle profile")
	// ErrNoTimestamp is returned by Validate when the creation time is unset.
	ErrNoTimestamp = errors.New("trajectory has no creation timestamp")
)

// RobotInstant is the robot's desired pose and velocity at a point in time.
type RobotInstant struct {
	Pose     spatialmath.Pose
	Velocity spatialmath.Twist
	Stamp    time.Time
}

func (ri RobotInstant) String() string {
	return fmt.Sprintf("%s v=(%.2f, %.2f) @%s", ri.Pose, ri.Velocity.Linear.X, ri.Velocity.Linear.Y,
		ri.Stamp.Format("15:04:05.000"))
}

// Trajectory is an ordered, time-increasing list of instants.
type Trajectory struct {
	instants    []RobotInstant
	anglesValid bool
	timeCreated time.Time
}

// New returns a trajectory over a copy of the given instants. Headings are considered unset until
// WithHeadings is applied.
func New(instants ...RobotInstant) Trajectory {
	return Trajectory{instants: append([]RobotInstant(nil), instants...)}
}

// Empty returns a trajectory with no instants.
func Empty() Trajectory {
	return Trajectory{}
}

// Len returns the number of instants.
func (t Trajectory) Len() int {
	return len(t.instants)
}

// IsEmpty reports whether the trajectory has no instants.
func (t Trajectory) IsEmpty() bool {
	return len(t.instants) == 0
}

// Instants returns a copy of the instants.
func (t Trajectory) Instants() []RobotInstant {
	return append([]RobotInstant(nil), t.instants...)
}

// First returns the first instant, or the zero instant when empty.
func (t Trajectory) First() RobotInstant {
	if t.IsEmpty() {
		return RobotInstant{}
	}
	return t.instants[0]
}

// Last returns the last instant, or the zero instant when empty.
func (t Trajectory) Last() RobotInstant {
	if t.IsEmpty() {
		return RobotInstant{}
	}
	return t.instants[len(t.instants)-1]
}

// Begin returns the stamp of the first instant.
func (t Trajectory) Begin() time.Time {
	return t.First().Stamp
}

// End returns the stamp of the last instant.
func (t Trajectory) End() time.Time {
	return t.Last().Stamp
}

// Duration returns the time between the first and last instants.
func (t Trajectory) Duration() time.Duration {
	if t.IsEmpty() {
		return 0
	}
	return t.End().Sub(t.Begin())
}

// AnglesValid reports whether a heading profile has been applied.
func (t Trajectory) AnglesValid() bool {
	return t.anglesValid
}

// TimeCreated returns the creation time and whether it was set.
func (t Trajectory) TimeCreated() (time.Time, bool) {
	return t.timeCreated, !t.timeCreated.IsZero()
}

// WithTimeCreated returns a copy stamped with the given creation time.
func (t Trajectory) WithTimeCreated(created time.Time) Trajectory {
	t.timeCreated = created
	return t
}

// Validate checks that the trajectory is fit to be sent to a robot.
func (t Trajectory) Validate() error {
	if t.IsEmpty() {
		return ErrEmpty
	}
	if !t.anglesValid {
		return ErrNoAngleProfile
	}
	if _, ok := t.TimeCreated(); !ok {
		return ErrNoTimestamp
	}
	return nil
}

// Evaluate returns the instant at time at, linearly interpolated between samples. It reports
// false when at lies outside [Begin, End].
func (t Trajectory) Evaluate(at time.Time) (RobotInstant, bool) {
	if t.IsEmpty() || at.Before(t.Begin()) || at.After(t.End()) {
		return RobotInstant{}, false
	}
	for i := 1; i < len(t.instants); i++ {
		a, b := t.instants[i-1], t.instants[i]
		if at.After(b.Stamp) {
			continue
		}
		span := b.Stamp.Sub(a.Stamp)
		if span <= 0 {
			return b, true
		}
		frac := float64(at.Sub(a.Stamp)) / float64(span)
		return interpolate(a, b, frac, at), true
	}
	return t.Last(), true
}

// Positions returns the position of every instant, in order.
func (t Trajectory) Positions() []r2.Point {
	out := make([]r2.Point, len(t.instants))
	for i, inst := range t.instants {
		out[i] = inst.Pose.Position
	}
	return out
}

// HitsObstacles reports whether any segment of the path touches the given shapes.
func (t Trajectory) HitsObstacles(obstacles spatialmath.ShapeSet) bool {
	if obstacles.Len() == 0 || t.IsEmpty() {
		return false
	}
	if len(t.instants) == 1 {
		return obstacles.Hit(t.instants[0].Pose.Position)
	}
	for i := 1; i < len(t.instants); i++ {
		if obstacles.HitSegment(t.instants[i-1].Pose.Position, t.instants[i].Pose.Position) {
			return true
		}
	}
	return false
}

func (t Trajectory) String() string {
	if t.IsEmpty() {
		return "Trajectory{}"
	}
	return fmt.Sprintf("Trajectory{%d instants, %s -> %s, %v}",
		len(t.instants), t.First().Pose, t.Last().Pose, t.Duration())
}

func interpolate(a, b RobotInstant, frac float64, at time.Time) RobotInstant {
	lerp := func(p, q r2.Point) r2.Point { return p.Add(q.Sub(p).Mul(frac)) }
	heading := a.Pose.Heading + spatialmath.AngleDiff(b.Pose.Heading, a.Pose.Heading)*frac
	return RobotInstant{
		Pose: spatialmath.Pose{
			Position: lerp(a.Pose.Position, b.Pose.Position),
			Heading:  spatialmath.NormalizeAngle(heading),
		},
		Velocity: spatialmath.Twist{
			Linear:  lerp(a.Velocity.Linear, b.Velocity.Linear),
			Angular: a.Velocity.Angular + (b.Velocity.Angular-a.Velocity.Angular)*frac,
		},
		Stamp: at,
	}
}
