package motionplan

import (
	"math"
	"time"

	"github.com/golang/geo/r2"

	"github.com/rjsoccer/planner/spatialmath"
	"github.com/rjsoccer/planner/trajectory"
	"github.com/rjsoccer/planner/world"
)

// detour search parameters for findPath.
const (
	detourStep     = 0.15
	detourMaxDist  = 3.0
	escapeStep     = 0.05
	escapeMaxDist  = 1.5
	escapeRayCount = 24
)

var detourFractions = []float64{0.5, 0.3, 0.7, 0.15, 0.85}

// findPath returns a collision-free polyline from start to goal: the straight segment when it is
// clear, otherwise the shortest detour through one intermediate waypoint found by stepping
// sideways from the straight line. It returns nil when the goal is blocked or no detour works.
func findPath(start, goal r2.Point, obstacles spatialmath.ShapeSet) []r2.Point {
	if obstacles.Hit(goal) {
		return nil
	}
	if !obstacles.HitSegment(start, goal) {
		return []r2.Point{start, goal}
	}
	delta := goal.Sub(start)
	if delta.Norm() < 1e-9 {
		return []r2.Point{start, goal}
	}
	perp := delta.Normalize().Ortho()
	for offset := detourStep; offset <= detourMaxDist+1e-9; offset += detourStep {
		var best []r2.Point
		bestLen := math.Inf(1)
		for _, frac := range detourFractions {
			for _, sign := range []float64{1, -1} {
				wp := start.Add(delta.Mul(frac)).Add(perp.Mul(sign * offset))
				if obstacles.Hit(wp) || obstacles.HitSegment(start, wp) || obstacles.HitSegment(wp, goal) {
					continue
				}
				if l := pathLength([]r2.Point{start, wp, goal}); l < bestLen {
					bestLen = l
					best = []r2.Point{start, wp, goal}
				}
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

// nearestFreePoint searches outward from p on a spiral of rays for the closest point not inside
// any obstacle and inside bounds. It reports false when nothing within escapeMaxDist is free.
func nearestFreePoint(p r2.Point, obstacles spatialmath.ShapeSet, bounds r2.Rect) (r2.Point, bool) {
	for r := escapeStep; r <= escapeMaxDist+1e-9; r += escapeStep {
		for k := 0; k < escapeRayCount; k++ {
			theta := 2 * math.Pi * (float64(k) + r/escapeStep/2) / escapeRayCount
			candidate := p.Add(spatialmath.UnitVector(theta).Mul(r))
			if bounds.ContainsPoint(candidate) && !obstacles.Hit(candidate) {
				return candidate, true
			}
		}
	}
	return r2.Point{}, false
}

func pathLength(path []r2.Point) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += spatialmath.Distance(path[i-1], path[i])
	}
	return total
}

// playableArea is where a robot center may go: the field plus its border, less a robot radius.
func playableArea(field world.FieldDimensions) r2.Rect {
	return field.FieldRect().ExpandedByMargin(field.Border - world.RobotRadius)
}

// ballObstacle keeps a robot center away from the ball by at least minDist.
func ballObstacle(ball world.BallState, minDist float64) spatialmath.Shape {
	return spatialmath.Circle{
		Center: ball.Position,
		Radius: world.RobotRadius + world.BallRadius + math.Max(minDist, 0),
		Name:   "ball",
	}
}

// faceFunc converts a FaceOption into a heading profile.
func faceFunc(opt FaceOption, req PlanRequest) trajectory.AngleFunc {
	switch o := opt.(type) {
	case FacePointOption:
		return trajectory.FacePoint(o.Point)
	case FaceAngleOption:
		return trajectory.FaceAngle(o.Angle)
	case FaceBallOption:
		if ball, ok := req.ball(); ok {
			return trajectory.FacePoint(ball.Position)
		}
	}
	return trajectory.FaceVelocity()
}

// finish applies a heading profile and stamps the creation time, making traj fit to publish.
func finish(traj trajectory.Trajectory, angles trajectory.AngleFunc, now time.Time) trajectory.Trajectory {
	return traj.WithHeadings(angles).WithTimeCreated(now)
}

// planTo profiles a collision-free path from the request's start to goal.
func planTo(
	name string,
	req PlanRequest,
	goal r2.Point,
	obstacles spatialmath.ShapeSet,
	endSpeed float64,
	dt time.Duration,
) (trajectory.Trajectory, error) {
	path := findPath(req.Start.Pose.Position, goal, obstacles)
	if path == nil {
		return trajectory.Empty(), NewNoPathError(name)
	}
	return profileStraightLine(
		path,
		req.Start.Pose.Heading,
		req.Start.Velocity.Linear,
		endSpeed,
		req.Constraints.Mot,
		req.Now,
		dt,
	), nil
}
