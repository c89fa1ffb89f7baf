package motionplan

import (
	"context"
	"time"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/rjsoccer/planner/spatialmath"
	"github.com/rjsoccer/planner/trajectory"
	"github.com/rjsoccer/planner/world"
)

// how far ahead, and how finely, the settle strategy searches the ball's path for a meeting point.
const (
	settleLookahead = 3 * time.Second
	settleStep      = 100 * time.Millisecond
)

var errBallNotVisible = errors.New("ball is not visible")

// settlePlanner receives a moving ball: it gets in front of the ball on its path facing it, then
// absorbs it once it arrives. A slow ball is approached directly.
type settlePlanner struct {
	cfg  PlannerConfig
	done bool
}

// NewSettlePlanner returns the settle strategy.
func NewSettlePlanner(cfg PlannerConfig) PathPlanner {
	return &settlePlanner{cfg: cfg.withDefaults()}
}

func (p *settlePlanner) Name() string {
	return SettleName
}

func (p *settlePlanner) Plan(ctx context.Context, req PlanRequest) (trajectory.Trajectory, error) {
	if err := checkContext(ctx, p.Name()); err != nil {
		return trajectory.Empty(), err
	}
	cmd, err := commandAs[SettleCommand](p.Name(), req)
	if err != nil {
		return trajectory.Empty(), err
	}
	ball, ok := req.ball()
	if !ok {
		return trajectory.Empty(), NewPlannerFailedError(p.Name(), errBallNotVisible)
	}
	p.done = req.BallSense && ball.Speed() < p.cfg.MinBallSpeed

	start := req.Start.Pose.Position
	contact := world.RobotRadius + world.BallRadius
	var goal r2.Point
	var angles trajectory.AngleFunc
	if ball.Speed() >= p.cfg.MinBallSpeed {
		meet := p.meetingPoint(req, ball, cmd.Target)
		// stand so the front of the robot, not its center, meets the ball
		back := ball.Velocity.Normalize().Mul(contact)
		goal = meet.Add(back)
		angles = trajectory.FaceAngle(spatialmath.AngleOf(ball.Velocity.Mul(-1)))
	} else {
		toBall := ball.Position.Sub(start)
		if toBall.Norm() <= contact {
			goal = start
		} else {
			goal = ball.Position.Sub(toBall.Normalize().Mul(contact))
		}
		angles = trajectory.FacePoint(ball.Position)
	}

	traj, err := planTo(p.Name(), req, goal, req.planningObstacles(), 0, p.cfg.TimeStep)
	if err != nil {
		return trajectory.Empty(), err
	}
	return finish(traj, angles, req.Now), nil
}

// meetingPoint returns the first point on the ball's path the robot can reach before the ball
// does. With a target it is the target's projection on the path instead. If the robot can reach
// nothing in time, it heads for the point on the path closest to it.
func (p *settlePlanner) meetingPoint(req PlanRequest, ball world.BallState, target *r2.Point) r2.Point {
	if target != nil {
		return interceptPoint(ball, *target, p.cfg.MinBallSpeed)
	}
	start := req.Start.Pose.Position
	speed := req.Constraints.Mot.MaxSpeed
	for t := settleStep; t <= settleLookahead; t += settleStep {
		candidate := ball.PredictAt(t)
		if speed > 0 && spatialmath.Distance(start, candidate)/speed <= t.Seconds() {
			return candidate
		}
	}
	return interceptPoint(ball, start, p.cfg.MinBallSpeed)
}

func (p *settlePlanner) IsDone() bool {
	return p.done
}

func (p *settlePlanner) Reset() {
	p.done = false
}
