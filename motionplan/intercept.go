package motionplan

import (
	"context"
	"math"

	"github.com/golang/geo/r2"

	"github.com/rjsoccer/planner/spatialmath"
	"github.com/rjsoccer/planner/trajectory"
	"github.com/rjsoccer/planner/world"
)

// interceptPlanner moves onto the moving ball's path at the point nearest the commanded target,
// then waits there facing the ball.
type interceptPlanner struct {
	cfg  PlannerConfig
	done bool
}

// NewInterceptPlanner returns the intercept strategy.
func NewInterceptPlanner(cfg PlannerConfig) PathPlanner {
	return &interceptPlanner{cfg: cfg.withDefaults()}
}

func (p *interceptPlanner) Name() string {
	return InterceptName
}

func (p *interceptPlanner) Plan(ctx context.Context, req PlanRequest) (trajectory.Trajectory, error) {
	if err := checkContext(ctx, p.Name()); err != nil {
		return trajectory.Empty(), err
	}
	cmd, err := commandAs[InterceptCommand](p.Name(), req)
	if err != nil {
		return trajectory.Empty(), err
	}

	goal := cmd.Target
	angles := trajectory.FaceVelocity()
	if ball, ok := req.ball(); ok {
		goal = interceptPoint(ball, cmd.Target, p.cfg.MinBallSpeed)
		angles = trajectory.FacePoint(ball.Position)
	}
	p.done = spatialmath.Distance(req.Start.Pose.Position, goal) <= p.cfg.GoalTolerance

	traj, err := planTo(p.Name(), req, goal, req.planningObstacles(), 0, p.cfg.TimeStep)
	if err != nil {
		return trajectory.Empty(), err
	}
	return finish(traj, angles, req.Now), nil
}

// interceptPoint projects target onto the ball's forward travel line. A slow ball has no line, so
// the target itself is used.
func interceptPoint(ball world.BallState, target r2.Point, minBallSpeed float64) r2.Point {
	if ball.Speed() < minBallSpeed {
		return target
	}
	dir := ball.Velocity.Normalize()
	along := math.Max(0, target.Sub(ball.Position).Dot(dir))
	return ball.Position.Add(dir.Mul(along))
}

func (p *interceptPlanner) IsDone() bool {
	return p.done
}

func (p *interceptPlanner) Reset() {
	p.done = false
}
