package motionplan

import (
	"context"
	"math"

	"github.com/golang/geo/r2"

	"github.com/rjsoccer/planner/spatialmath"
	"github.com/rjsoccer/planner/trajectory"
)

// pivotArcStep is the angular spacing, in rad, of waypoints along a pivot arc.
const pivotArcStep = math.Pi / 18

// pivotPlanner orbits the pivot point at the pivot radius, facing it, until the robot points at
// the pivot target.
type pivotPlanner struct {
	cfg  PlannerConfig
	done bool
}

// NewPivotPlanner returns the pivot strategy.
func NewPivotPlanner(cfg PlannerConfig) PathPlanner {
	return &pivotPlanner{cfg: cfg.withDefaults()}
}

func (p *pivotPlanner) Name() string {
	return PivotName
}

func (p *pivotPlanner) Plan(ctx context.Context, req PlanRequest) (trajectory.Trajectory, error) {
	if err := checkContext(ctx, p.Name()); err != nil {
		return trajectory.Empty(), err
	}
	cmd, err := commandAs[PivotCommand](p.Name(), req)
	if err != nil {
		return trajectory.Empty(), err
	}
	finalHeading := spatialmath.AngleOf(cmd.PivotTarget.Sub(cmd.PivotPoint))
	p.done = math.Abs(spatialmath.AngleDiff(req.Start.Pose.Heading, finalHeading)) <= p.cfg.HeadingTolerance

	path := pivotArc(req.Start.Pose.Position, cmd.PivotPoint, finalHeading+math.Pi, p.cfg.PivotRadius)
	obstacles := req.planningObstacles()
	for i := 1; i < len(path); i++ {
		if obstacles.HitSegment(path[i-1], path[i]) {
			return trajectory.Empty(), NewNoPathError(p.Name())
		}
	}
	traj := profileStraightLine(
		path,
		req.Start.Pose.Heading,
		req.Start.Velocity.Linear,
		0,
		req.Constraints.Mot,
		req.Now,
		p.cfg.TimeStep,
	)
	return finish(traj, trajectory.FacePoint(cmd.PivotPoint), req.Now), nil
}

// pivotArc returns waypoints from start onto the circle of the given radius around center, then
// along the shorter arc to the point at angle endAngle.
func pivotArc(start, center r2.Point, endAngle, radius float64) []r2.Point {
	startAngle := spatialmath.AngleOf(start.Sub(center))
	if spatialmath.Distance(start, center) < 1e-6 {
		startAngle = endAngle
	}
	sweep := spatialmath.AngleDiff(endAngle, startAngle)
	steps := int(math.Ceil(math.Abs(sweep) / pivotArcStep))
	path := []r2.Point{start}
	for i := 0; i <= steps; i++ {
		frac := 1.0
		if steps > 0 {
			frac = float64(i) / float64(steps)
		}
		theta := startAngle + sweep*frac
		pt := center.Add(spatialmath.UnitVector(theta).Mul(radius))
		if spatialmath.Distance(pt, path[len(path)-1]) > 1e-6 {
			path = append(path, pt)
		}
	}
	return path
}

func (p *pivotPlanner) IsDone() bool {
	return p.done
}

func (p *pivotPlanner) Reset() {
	p.done = false
}
