package motionplan

import (
	"context"

	"github.com/golang/geo/r2"

	"github.com/rjsoccer/planner/spatialmath"
	"github.com/rjsoccer/planner/trajectory"
)

// replanDeviation is how far, in m, the robot may stray from a committed path before it is
// replanned.
const replanDeviation = 0.2

// pathTargetPlanner drives to a target, avoiding obstacles. It keeps following the path it
// committed to while the goal is unchanged and the path stays clear.
type pathTargetPlanner struct {
	cfg PlannerConfig

	committedGoal *LinearMotionInstant
	committed     trajectory.Trajectory
	done          bool
}

// NewPathTargetPlanner returns the path_target strategy.
func NewPathTargetPlanner(cfg PlannerConfig) PathPlanner {
	return &pathTargetPlanner{cfg: cfg.withDefaults()}
}

func (p *pathTargetPlanner) Name() string {
	return PathTargetName
}

func (p *pathTargetPlanner) Plan(ctx context.Context, req PlanRequest) (trajectory.Trajectory, error) {
	if err := checkContext(ctx, p.Name()); err != nil {
		return trajectory.Empty(), err
	}
	cmd, err := commandAs[PathTargetCommand](p.Name(), req)
	if err != nil {
		return trajectory.Empty(), err
	}
	goal := cmd.Target.Position
	start := req.Start.Pose.Position

	p.done = spatialmath.Distance(start, goal) <= p.cfg.GoalTolerance &&
		req.Start.Velocity.Speed() <= stoppedSpeed &&
		cmd.Target.Velocity.Norm() <= stoppedSpeed

	obstacles := req.planningObstacles()
	if ball, ok := req.ball(); ok && !cmd.IgnoreBall {
		if s := ballObstacle(ball, req.MinDistFromBall); !s.Hit(goal) && !s.Hit(start) {
			obstacles.Add(s)
		}
	}

	if p.canReuse(goal, req, obstacles) {
		return finish(p.committed, faceFunc(cmd.Face, req), req.Now), nil
	}

	traj, err := planTo(p.Name(), req, goal, obstacles, cmd.Target.Velocity.Norm(), p.cfg.TimeStep)
	if err != nil {
		return trajectory.Empty(), err
	}
	p.committedGoal = &cmd.Target
	p.committed = traj
	return finish(traj, faceFunc(cmd.Face, req), req.Now), nil
}

// canReuse reports whether the committed path still serves goal from the current start.
func (p *pathTargetPlanner) canReuse(goal r2.Point, req PlanRequest, obstacles spatialmath.ShapeSet) bool {
	if p.committedGoal == nil || p.committed.IsEmpty() {
		return false
	}
	if spatialmath.Distance(p.committedGoal.Position, goal) > p.cfg.GoalTolerance/2 {
		return false
	}
	expected, ok := p.committed.Evaluate(req.Now)
	if !ok || spatialmath.Distance(expected.Pose.Position, req.Start.Pose.Position) > replanDeviation {
		return false
	}
	return !p.committed.HitsObstacles(obstacles)
}

func (p *pathTargetPlanner) IsDone() bool {
	return p.done
}

func (p *pathTargetPlanner) Reset() {
	p.committedGoal = nil
	p.committed = trajectory.Empty()
	p.done = false
}
