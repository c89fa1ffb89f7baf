package motionplan

import (
	"context"

	"github.com/golang/geo/r2"

	"github.com/rjsoccer/planner/spatialmath"
	"github.com/rjsoccer/planner/trajectory"
	"github.com/rjsoccer/planner/world"
)

// collectApproachDist is how far out from contact the collect strategy lines up before creeping in.
const collectApproachDist = 0.15

// collectPlanner drives up to the ball from the side the robot is already on, slowing to a stop
// at contact, facing the ball.
type collectPlanner struct {
	cfg  PlannerConfig
	done bool
}

// NewCollectPlanner returns the collect strategy.
func NewCollectPlanner(cfg PlannerConfig) PathPlanner {
	return &collectPlanner{cfg: cfg.withDefaults()}
}

func (p *collectPlanner) Name() string {
	return CollectName
}

func (p *collectPlanner) Plan(ctx context.Context, req PlanRequest) (trajectory.Trajectory, error) {
	if err := checkContext(ctx, p.Name()); err != nil {
		return trajectory.Empty(), err
	}
	if _, err := commandAs[CollectCommand](p.Name(), req); err != nil {
		return trajectory.Empty(), err
	}
	p.done = req.BallSense
	ball, ok := req.ball()
	if !ok {
		return trajectory.Empty(), NewPlannerFailedError(p.Name(), errBallNotVisible)
	}

	start := req.Start.Pose.Position
	toBall := ball.Position.Sub(start)
	contactDist := world.RobotRadius + world.BallRadius
	angles := trajectory.FacePoint(ball.Position)
	if toBall.Norm() <= contactDist {
		return finish(stopTrajectory(start, req.Start.Pose.Heading, req.Now), angles, req.Now), nil
	}
	dir := toBall.Normalize()
	contact := ball.Position.Sub(dir.Mul(contactDist))
	approach := ball.Position.Sub(dir.Mul(contactDist + collectApproachDist))

	obstacles := req.planningObstacles()
	var path []r2.Point
	if spatialmath.Distance(start, ball.Position) > contactDist+collectApproachDist {
		path = findPath(start, approach, obstacles)
		if path != nil {
			path = append(path, contact)
		}
	} else {
		path = findPath(start, contact, obstacles)
	}
	if path == nil {
		return trajectory.Empty(), NewNoPathError(p.Name())
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
	return finish(traj, angles, req.Now), nil
}

func (p *collectPlanner) IsDone() bool {
	return p.done
}

func (p *collectPlanner) Reset() {
	p.done = false
}
