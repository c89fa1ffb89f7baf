package trajectory

import (
	"github.com/golang/geo/r2"

	"github.com/rjsoccer/planner/spatialmath"
)

// minFacingDist and minFacingSpeed are the thresholds under which a direction is too ill-defined
// to turn toward, so the previous heading is kept.
const (
	minFacingDist  = 1e-3
	minFacingSpeed = 1e-2
)

// AngleFunc chooses the heading for an instant given the heading chosen for the previous one.
type AngleFunc func(instant RobotInstant, previous float64) float64

// FacePoint turns the robot toward a fixed point.
func FacePoint(target r2.Point) AngleFunc {
	return func(instant RobotInstant, previous float64) float64 {
		delta := target.Sub(instant.Pose.Position)
		if delta.Norm() < minFacingDist {
			return previous
		}
		return spatialmath.AngleOf(delta)
	}
}

// FaceAngle holds a fixed heading.
func FaceAngle(theta float64) AngleFunc {
	theta = spatialmath.NormalizeAngle(theta)
	return func(RobotInstant, float64) float64 {
		return theta
	}
}

// FaceVelocity turns the robot along its direction of travel, keeping the previous heading while
// nearly stopped.
func FaceVelocity() AngleFunc {
	return func(instant RobotInstant, previous float64) float64 {
		if instant.Velocity.Speed() < minFacingSpeed {
			return previous
		}
		return spatialmath.AngleOf(instant.Velocity.Linear)
	}
}

// WithHeadings returns a copy with every instant's heading chosen by f and angular velocities
// filled by finite differences. The first instant's own heading seeds f.
func (t Trajectory) WithHeadings(f AngleFunc) Trajectory {
	out := Trajectory{
		instants:    t.Instants(),
		anglesValid: true,
		timeCreated: t.timeCreated,
	}
	if out.IsEmpty() {
		return out
	}
	previous := out.instants[0].Pose.Heading
	for i := range out.instants {
		previous = spatialmath.NormalizeAngle(f(out.instants[i], previous))
		out.instants[i].Pose.Heading = previous
	}
	for i := range out.instants {
		out.instants[i].Velocity.Angular = 0
		if i+1 >= len(out.instants) {
			break
		}
		dt := out.instants[i+1].Stamp.Sub(out.instants[i].Stamp).Seconds()
		if dt > 0 {
			dTheta := spatialmath.AngleDiff(out.instants[i+1].Pose.Heading, out.instants[i].Pose.Heading)
			out.instants[i].Velocity.Angular = dTheta / dt
		}
	}
	return out
}
