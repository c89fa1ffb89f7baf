package motionplan

import (
	"context"

	"github.com/golang/geo/r2"

	"github.com/rjsoccer/planner/spatialmath"
	"github.com/rjsoccer/planner/trajectory"
	"github.com/rjsoccer/planner/world"
)

// line kick geometry, in m.
const (
	lineKickBackoff     = 0.2
	lineKickFollowThru  = 0.3
	lineKickAlignRadius = 0.05
	lineKickSpeed       = 1.0
)

// lineKickPlanner lines up behind the ball on the target-ball line, then drives through the ball
// toward the target. It is done once the ball has been in the dribbler and then left it fast.
type lineKickPlanner struct {
	cfg PlannerConfig

	drivingThrough bool
	sawBall        bool
	done           bool
}

// NewLineKickPlanner returns the line_kick strategy.
func NewLineKickPlanner(cfg PlannerConfig) PathPlanner {
	return &lineKickPlanner{cfg: cfg.withDefaults()}
}

func (p *lineKickPlanner) Name() string {
	return LineKickName
}

func (p *lineKickPlanner) Plan(ctx context.Context, req PlanRequest) (trajectory.Trajectory, error) {
	if err := checkContext(ctx, p.Name()); err != nil {
		return trajectory.Empty(), err
	}
	cmd, err := commandAs[LineKickCommand](p.Name(), req)
	if err != nil {
		return trajectory.Empty(), err
	}
	ball, ok := req.ball()
	if !ok {
		return trajectory.Empty(), NewPlannerFailedError(p.Name(), errBallNotVisible)
	}
	if req.BallSense {
		p.sawBall = true
	}
	p.done = p.sawBall && !req.BallSense && ball.Speed() >= kickedBallSpeed

	dir := cmd.Target.Sub(ball.Position)
	if dir.Norm() < 1e-6 {
		dir = r2.Point{Y: 1}
	}
	dir = dir.Normalize()
	angles := trajectory.FaceAngle(spatialmath.AngleOf(dir))
	start := req.Start.Pose.Position
	behind := ball.Position.Sub(dir.Mul(world.RobotRadius + lineKickBackoff))

	if !p.drivingThrough && spatialmath.Distance(start, behind) <= lineKickAlignRadius {
		p.drivingThrough = true
	}

	if !p.drivingThrough {
		obstacles := req.planningObstacles()
		if s := ballObstacle(ball, 0); !s.Hit(start) {
			obstacles.Add(s)
		}
		traj, err := planTo(p.Name(), req, behind, obstacles, 0, p.cfg.TimeStep)
		if err != nil {
			return trajectory.Empty(), err
		}
		return finish(traj, angles, req.Now), nil
	}

	through := ball.Position.Add(dir.Mul(lineKickFollowThru))
	traj := profileStraightLine(
		[]r2.Point{start, through},
		req.Start.Pose.Heading,
		req.Start.Velocity.Linear,
		lineKickSpeed,
		req.Constraints.Mot,
		req.Now,
		p.cfg.TimeStep,
	)
	return finish(traj, angles, req.Now), nil
}

func (p *lineKickPlanner) IsDone() bool {
	return p.done
}

func (p *lineKickPlanner) Reset() {
	p.drivingThrough = false
	p.sawBall = false
	p.done = false
}
