package motionplan

import (
	"context"

	"github.com/golang/geo/r2"

	"github.com/rjsoccer/planner/trajectory"
)

// escapeObstaclesPlanner brings the robot to rest outside every obstacle. It serves EmptyCommand
// and is the fallback when another strategy fails, so it accepts any command and always returns a
// trajectory for a valid start.
type escapeObstaclesPlanner struct {
	cfg PlannerConfig
}

// NewEscapeObstaclesPlanner returns the escape_obstacles strategy.
func NewEscapeObstaclesPlanner(cfg PlannerConfig) PathPlanner {
	return &escapeObstaclesPlanner{cfg: cfg.withDefaults()}
}

func (p *escapeObstaclesPlanner) Name() string {
	return EscapeObstaclesName
}

func (p *escapeObstaclesPlanner) Plan(_ context.Context, req PlanRequest) (trajectory.Trajectory, error) {
	start := req.Start.Pose.Position
	hold := trajectory.FaceAngle(req.Start.Pose.Heading)

	obstacles := req.AllObstacles()
	obstacles.AddAll(req.DynamicObstacles(defaultPeerHorizon))

	if obstacles.Hit(start) {
		free, ok := nearestFreePoint(start, obstacles, playableArea(req.field()))
		if !ok {
			return finish(stopTrajectory(start, req.Start.Pose.Heading, req.Now), hold, req.Now), nil
		}
		traj := profileStraightLine(
			[]r2.Point{start, free},
			req.Start.Pose.Heading,
			req.Start.Velocity.Linear,
			0,
			req.Constraints.Mot,
			req.Now,
			p.cfg.TimeStep,
		)
		return finish(traj, hold, req.Now), nil
	}

	// Already clear: come to a stop along the current direction of travel if that stays clear.
	vel := req.Start.Velocity.Linear
	speed := vel.Norm()
	if speed > stoppedSpeed && req.Constraints.Mot.MaxAccel > 0 {
		stopDist := speed * speed / (2 * req.Constraints.Mot.MaxAccel)
		end := start.Add(vel.Normalize().Mul(stopDist))
		if !obstacles.HitSegment(start, end) {
			traj := profileStraightLine(
				[]r2.Point{start, end},
				req.Start.Pose.Heading,
				vel,
				0,
				MotionConstraints{MaxSpeed: speed, MaxAccel: req.Constraints.Mot.MaxAccel},
				req.Now,
				p.cfg.TimeStep,
			)
			return finish(traj, hold, req.Now), nil
		}
	}
	return finish(stopTrajectory(start, req.Start.Pose.Heading, req.Now), hold, req.Now), nil
}

// IsDone is always false: holding still never completes a command.
func (p *escapeObstaclesPlanner) IsDone() bool {
	return false
}

func (p *escapeObstaclesPlanner) Reset() {}
