package motionplan

import (
	"context"
	"math"

	"github.com/golang/geo/r2"

	"github.com/rjsoccer/planner/trajectory"
	"github.com/rjsoccer/planner/world"
)

// goalieIdlePlanner keeps the goalie on the line from the center of our goal to the ball, at a
// fixed radius, inside our defense area, facing the ball.
type goalieIdlePlanner struct {
	cfg PlannerConfig
}

// NewGoalieIdlePlanner returns the goalie_idle strategy.
func NewGoalieIdlePlanner(cfg PlannerConfig) PathPlanner {
	return &goalieIdlePlanner{cfg: cfg.withDefaults()}
}

func (p *goalieIdlePlanner) Name() string {
	return GoalieIdleName
}

func (p *goalieIdlePlanner) Plan(ctx context.Context, req PlanRequest) (trajectory.Trajectory, error) {
	if err := checkContext(ctx, p.Name()); err != nil {
		return trajectory.Empty(), err
	}
	if _, err := commandAs[GoalieIdleCommand](p.Name(), req); err != nil {
		return trajectory.Empty(), err
	}
	field := req.field()
	goal, angles := p.idlePoint(req, field)

	traj, err := planTo(p.Name(), req, goal, req.planningObstacles(), 0, p.cfg.TimeStep)
	if err != nil {
		return trajectory.Empty(), err
	}
	return finish(traj, angles, req.Now), nil
}

// idlePoint returns where the goalie should stand and how it should face.
func (p *goalieIdlePlanner) idlePoint(req PlanRequest, field world.FieldDimensions) (r2.Point, trajectory.AngleFunc) {
	center := field.OurGoalCenter()
	ball, ok := req.ball()
	if !ok {
		return center.Add(r2.Point{Y: p.cfg.IdleRadius}), trajectory.FaceAngle(math.Pi / 2)
	}
	dir := ball.Position.Sub(center)
	if dir.Y <= 0 || dir.Norm() < 1e-6 {
		// ball at or behind the goal line: stand straight out from the goal
		dir = r2.Point{Y: 1}
	}
	target := center.Add(dir.Normalize().Mul(p.cfg.IdleRadius))

	area := field.OurDefenseArea()
	inner := area.ExpandedByMargin(-world.RobotRadius)
	if inner.IsEmpty() {
		inner = area
	}
	return inner.ClampPoint(target), trajectory.FacePoint(ball.Position)
}

func (p *goalieIdlePlanner) IsDone() bool {
	return false
}

func (p *goalieIdlePlanner) Reset() {}
