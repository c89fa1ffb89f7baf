package motionplan

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/rjsoccer/planner/spatialmath"
	"github.com/rjsoccer/planner/trajectory"
	"github.com/rjsoccer/planner/world"
)

// newTestRequest puts the robot at rest at (0, 2) facing +x, with a stationary ball at (0, 4).
func newTestRequest(cmd MotionCommand) PlanRequest {
	ws := world.NewWorldState()
	ws.Ball = world.BallState{Position: r2.Point{X: 0, Y: 4}, Visible: true, Timestamp: t0}
	return PlanRequest{
		Start:       trajectory.RobotInstant{Pose: spatialmath.NewPose(0, 2, 0), Stamp: t0},
		Command:     cmd,
		Constraints: DefaultRobotConstraints(),
		WorldState:  ws,
		Field:       world.DefaultFieldDimensions(),
		Now:         t0,
	}
}

func TestEveryStrategyProducesValidTrajectories(t *testing.T) {
	reg := NewDefaultRegistry(nil)
	for _, cmd := range []MotionCommand{
		EmptyCommand{},
		PathTargetCommand{Target: LinearMotionInstant{Position: r2.Point{X: 1, Y: 3}}},
		InterceptCommand{Target: r2.Point{X: 1, Y: 4}},
		GoalieIdleCommand{},
		SettleCommand{},
		CollectCommand{},
		LineKickCommand{Target: r2.Point{X: 0, Y: 9}},
		PivotCommand{PivotPoint: r2.Point{X: 0, Y: 4}, PivotTarget: r2.Point{X: 0, Y: 9}},
	} {
		t.Run(cmd.PlannerName(), func(t *testing.T) {
			p, err := reg.Resolve(cmd.PlannerName())
			test.That(t, err, test.ShouldBeNil)
			traj, err := p.Plan(context.Background(), newTestRequest(cmd))
			test.That(t, err, test.ShouldBeNil)
			test.That(t, traj.Validate(), test.ShouldBeNil)
			created, _ := traj.TimeCreated()
			test.That(t, created, test.ShouldEqual, t0)
			test.That(t, traj.Begin(), test.ShouldEqual, t0)
		})
	}
}

func TestStrategyRejectsForeignCommand(t *testing.T) {
	reg := NewDefaultRegistry(nil)
	for _, name := range StrategyNames() {
		if name == EscapeObstaclesName {
			continue
		}
		p, err := reg.Resolve(name)
		test.That(t, err, test.ShouldBeNil)
		_, err = p.Plan(context.Background(), newTestRequest(EmptyCommand{}))
		test.That(t, errors.Is(err, ErrPlanningFailed), test.ShouldBeTrue)
	}
}

func TestStrategyHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPathTargetPlanner(PlannerConfig{})
	traj, err := p.Plan(ctx, newTestRequest(PathTargetCommand{Target: LinearMotionInstant{Position: r2.Point{X: 1, Y: 1}}}))
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	test.That(t, traj.IsEmpty(), test.ShouldBeTrue)
}

func TestPathTarget(t *testing.T) {
	target := func(x, y float64) PathTargetCommand {
		return PathTargetCommand{Target: LinearMotionInstant{Position: r2.Point{X: x, Y: y}}}
	}

	t.Run("done at goal", func(t *testing.T) {
		p := NewPathTargetPlanner(PlannerConfig{})
		_, err := p.Plan(context.Background(), newTestRequest(target(0, 2.01)))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p.IsDone(), test.ShouldBeTrue)

		_, err = p.Plan(context.Background(), newTestRequest(target(1, 1)))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p.IsDone(), test.ShouldBeFalse)
	})

	t.Run("not done while moving", func(t *testing.T) {
		p := NewPathTargetPlanner(PlannerConfig{})
		req := newTestRequest(target(0, 2))
		req.Start.Velocity.Linear = r2.Point{X: 1}
		_, err := p.Plan(context.Background(), req)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p.IsDone(), test.ShouldBeFalse)
	})

	t.Run("commits to a path while the goal holds", func(t *testing.T) {
		p := NewPathTargetPlanner(PlannerConfig{})
		first, err := p.Plan(context.Background(), newTestRequest(target(1, 3)))
		test.That(t, err, test.ShouldBeNil)

		req := newTestRequest(target(1, 3))
		req.Now = t0.Add(100 * time.Millisecond)
		expected, ok := first.Evaluate(req.Now)
		test.That(t, ok, test.ShouldBeTrue)
		req.Start = expected
		second, err := p.Plan(context.Background(), req)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, second.Begin(), test.ShouldEqual, first.Begin())
		created, _ := second.TimeCreated()
		test.That(t, created, test.ShouldEqual, req.Now)

		p.Reset()
		third, err := p.Plan(context.Background(), req)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, third.Begin(), test.ShouldEqual, req.Now)
	})

	t.Run("avoids obstacles", func(t *testing.T) {
		p := NewPathTargetPlanner(PlannerConfig{})
		wall := circle(0, 3, 0.3)
		req := newTestRequest(target(0, 5))
		req.FieldObstacles = spatialmath.NewShapeSet(wall)
		traj, err := p.Plan(context.Background(), req)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, traj.HitsObstacles(spatialmath.NewShapeSet(wall)), test.ShouldBeFalse)
		test.That(t, traj.Last().Pose.Position.Y, test.ShouldAlmostEqual, 5, 1e-6)
	})

	t.Run("avoids the ball unless told not to", func(t *testing.T) {
		ballZone := spatialmath.NewShapeSet(ballObstacle(world.BallState{Position: r2.Point{X: 0, Y: 4}}, 0))

		p := NewPathTargetPlanner(PlannerConfig{})
		traj, err := p.Plan(context.Background(), newTestRequest(target(0, 6)))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, traj.HitsObstacles(ballZone), test.ShouldBeFalse)

		cmd := target(0, 6)
		cmd.IgnoreBall = true
		traj, err = NewPathTargetPlanner(PlannerConfig{}).Plan(context.Background(), newTestRequest(cmd))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, traj.HitsObstacles(ballZone), test.ShouldBeTrue)
	})

	t.Run("goal inside an obstacle fails", func(t *testing.T) {
		req := newTestRequest(target(2, 2))
		req.VirtualObstacles = spatialmath.NewShapeSet(circle(2, 2, 0.5))
		traj, err := NewPathTargetPlanner(PlannerConfig{}).Plan(context.Background(), req)
		test.That(t, errors.Is(err, ErrPlanningFailed), test.ShouldBeTrue)
		test.That(t, traj.IsEmpty(), test.ShouldBeTrue)
	})

	t.Run("face options", func(t *testing.T) {
		cmd := target(1, 2)
		cmd.Face = FaceAngleOption{Angle: 1}
		traj, err := NewPathTargetPlanner(PlannerConfig{}).Plan(context.Background(), newTestRequest(cmd))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, traj.Last().Pose.Heading, test.ShouldAlmostEqual, 1)

		cmd.Face = FaceBallOption{}
		traj, err = NewPathTargetPlanner(PlannerConfig{}).Plan(context.Background(), newTestRequest(cmd))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, traj.Last().Pose.Heading, test.ShouldAlmostEqual, math.Atan2(2, -1))
	})
}

func TestEscapeObstacles(t *testing.T) {
	p := NewEscapeObstaclesPlanner(PlannerConfig{})

	t.Run("holds position when clear", func(t *testing.T) {
		traj, err := p.Plan(context.Background(), newTestRequest(EmptyCommand{}))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, traj.Len(), test.ShouldEqual, 1)
		test.That(t, traj.First().Pose.Position, test.ShouldResemble, r2.Point{X: 0, Y: 2})
		test.That(t, p.IsDone(), test.ShouldBeFalse)
	})

	t.Run("brakes when moving", func(t *testing.T) {
		req := newTestRequest(EmptyCommand{})
		req.Start.Velocity.Linear = r2.Point{X: 1}
		traj, err := p.Plan(context.Background(), req)
		test.That(t, err, test.ShouldBeNil)
		stopDist := 1 / (2 * req.Constraints.Mot.MaxAccel)
		test.That(t, traj.Last().Pose.Position.X, test.ShouldAlmostEqual, stopDist, 1e-6)
		test.That(t, traj.Last().Velocity.Speed(), test.ShouldAlmostEqual, 0, 1e-6)
	})

	t.Run("steps out of an obstacle", func(t *testing.T) {
		req := newTestRequest(PathTargetCommand{})
		blob := circle(0, 2, 0.3)
		req.FieldObstacles = spatialmath.NewShapeSet(blob)
		traj, err := p.Plan(context.Background(), req)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, traj.Validate(), test.ShouldBeNil)
		test.That(t, blob.Hit(traj.Last().Pose.Position), test.ShouldBeFalse)
		test.That(t, traj.Last().Pose.Heading, test.ShouldEqual, 0.0)
	})

	t.Run("boxed in still returns a trajectory", func(t *testing.T) {
		req := newTestRequest(EmptyCommand{})
		req.FieldObstacles = spatialmath.NewShapeSet(circle(0, 2, 10))
		traj, err := p.Plan(context.Background(), req)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, traj.Validate(), test.ShouldBeNil)
	})
}

func TestGoalieIdle(t *testing.T) {
	p := NewGoalieIdlePlanner(PlannerConfig{})
	field := world.DefaultFieldDimensions()
	inner := field.OurDefenseArea().ExpandedByMargin(-world.RobotRadius)

	for _, tc := range []struct {
		name     string
		ball     r2.Point
		expected r2.Point
	}{
		{"ball straight out", r2.Point{X: 0, Y: 4}, r2.Point{X: 0, Y: 0.5}},
		{"ball behind the goal line", r2.Point{X: 0, Y: -1}, r2.Point{X: 0, Y: 0.5}},
		{"ball wide", r2.Point{X: 5, Y: 0.5}, r2.Point{X: 2.5 / math.Sqrt(25.25), Y: world.RobotRadius}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := newTestRequest(GoalieIdleCommand{})
			req.WorldState.Ball.Position = tc.ball
			traj, err := p.Plan(context.Background(), req)
			test.That(t, err, test.ShouldBeNil)
			last := traj.Last().Pose.Position
			test.That(t, last.X, test.ShouldAlmostEqual, tc.expected.X, 1e-6)
			test.That(t, last.Y, test.ShouldAlmostEqual, tc.expected.Y, 1e-6)
			test.That(t, inner.ContainsPoint(last), test.ShouldBeTrue)
		})
	}

	t.Run("faces the ball", func(t *testing.T) {
		req := newTestRequest(GoalieIdleCommand{})
		req.WorldState.Ball.Position = r2.Point{X: 2, Y: 3}
		traj, err := p.Plan(context.Background(), req)
		test.That(t, err, test.ShouldBeNil)
		last := traj.Last()
		toBall := r2.Point{X: 2, Y: 3}.Sub(last.Pose.Position)
		test.That(t, last.Pose.Heading, test.ShouldAlmostEqual, spatialmath.AngleOf(toBall), 1e-9)
		test.That(t, p.IsDone(), test.ShouldBeFalse)
	})

	t.Run("no ball", func(t *testing.T) {
		req := newTestRequest(GoalieIdleCommand{})
		req.WorldState.Ball.Visible = false
		traj, err := p.Plan(context.Background(), req)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, traj.Last().Pose.Heading, test.ShouldAlmostEqual, math.Pi/2)
	})
}

func TestIntercept(t *testing.T) {
	p := NewInterceptPlanner(PlannerConfig{})
	req := newTestRequest(InterceptCommand{Target: r2.Point{X: 0.5, Y: 3}})
	req.WorldState.Ball.Velocity = r2.Point{X: 0, Y: -2}
	traj, err := p.Plan(context.Background(), req)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj.Last().Pose.Position.X, test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, traj.Last().Pose.Position.Y, test.ShouldAlmostEqual, 3, 1e-6)
	test.That(t, p.IsDone(), test.ShouldBeFalse)

	req.Start.Pose.Position = r2.Point{X: 0, Y: 3}
	_, err = p.Plan(context.Background(), req)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.IsDone(), test.ShouldBeTrue)

	p.Reset()
	test.That(t, p.IsDone(), test.ShouldBeFalse)

	slow := world.BallState{Position: r2.Point{X: 0, Y: 4}, Velocity: r2.Point{X: 0.1}}
	test.That(t, interceptPoint(slow, r2.Point{X: 1, Y: 1}, defaultMinBallSpeed), test.ShouldResemble, r2.Point{X: 1, Y: 1})
	away := world.BallState{Position: r2.Point{X: 0, Y: 4}, Velocity: r2.Point{Y: 2}}
	test.That(t, interceptPoint(away, r2.Point{X: 0, Y: 1}, defaultMinBallSpeed), test.ShouldResemble, r2.Point{X: 0, Y: 4})
}

func TestSettle(t *testing.T) {
	p := NewSettlePlanner(PlannerConfig{})

	t.Run("gets in front of a moving ball", func(t *testing.T) {
		req := newTestRequest(SettleCommand{})
		req.Start.Pose.Position = r2.Point{X: 1, Y: 2}
		req.WorldState.Ball.Velocity = r2.Point{X: 0, Y: -1}
		traj, err := p.Plan(context.Background(), req)
		test.That(t, err, test.ShouldBeNil)
		last := traj.Last()
		test.That(t, last.Pose.Position.X, test.ShouldAlmostEqual, 0, 1e-6)
		test.That(t, last.Pose.Position.Y, test.ShouldBeLessThan, 4)
		test.That(t, last.Pose.Heading, test.ShouldAlmostEqual, math.Pi/2, 1e-9)
		test.That(t, p.IsDone(), test.ShouldBeFalse)
	})

	t.Run("done when sensed and still", func(t *testing.T) {
		req := newTestRequest(SettleCommand{})
		req.BallSense = true
		_, err := p.Plan(context.Background(), req)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p.IsDone(), test.ShouldBeTrue)
	})

	t.Run("needs the ball", func(t *testing.T) {
		req := newTestRequest(SettleCommand{})
		req.WorldState.Ball.Visible = false
		_, err := p.Plan(context.Background(), req)
		test.That(t, errors.Is(err, ErrPlanningFailed), test.ShouldBeTrue)
	})
}

func TestCollect(t *testing.T) {
	p := NewCollectPlanner(PlannerConfig{})
	traj, err := p.Plan(context.Background(), newTestRequest(CollectCommand{}))
	test.That(t, err, test.ShouldBeNil)
	contact := 4 - world.RobotRadius - world.BallRadius
	test.That(t, traj.Last().Pose.Position.Y, test.ShouldAlmostEqual, contact, 1e-6)
	test.That(t, traj.Last().Pose.Heading, test.ShouldAlmostEqual, math.Pi/2, 1e-9)
	test.That(t, p.IsDone(), test.ShouldBeFalse)

	req := newTestRequest(CollectCommand{})
	req.Start.Pose.Position = r2.Point{X: 0, Y: 3.9}
	req.BallSense = true
	traj, err = p.Plan(context.Background(), req)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj.Len(), test.ShouldEqual, 1)
	test.That(t, p.IsDone(), test.ShouldBeTrue)
}

func TestLineKick(t *testing.T) {
	p := NewLineKickPlanner(PlannerConfig{})
	cmd := LineKickCommand{Target: r2.Point{X: 0, Y: 9}}
	behindY := 4 - world.RobotRadius - lineKickBackoff

	traj, err := p.Plan(context.Background(), newTestRequest(cmd))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj.Last().Pose.Position.Y, test.ShouldAlmostEqual, behindY, 1e-6)
	test.That(t, traj.Last().Pose.Heading, test.ShouldAlmostEqual, math.Pi/2, 1e-9)

	req := newTestRequest(cmd)
	req.Start.Pose.Position = r2.Point{X: 0, Y: behindY}
	traj, err = p.Plan(context.Background(), req)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj.Last().Pose.Position.Y, test.ShouldAlmostEqual, 4+lineKickFollowThru, 1e-6)
	test.That(t, p.IsDone(), test.ShouldBeFalse)

	req.BallSense = true
	_, err = p.Plan(context.Background(), req)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.IsDone(), test.ShouldBeFalse)

	req.BallSense = false
	req.WorldState.Ball.Velocity = r2.Point{Y: 3}
	_, err = p.Plan(context.Background(), req)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.IsDone(), test.ShouldBeTrue)

	p.Reset()
	test.That(t, p.IsDone(), test.ShouldBeFalse)
}

func TestPivot(t *testing.T) {
	p := NewPivotPlanner(PlannerConfig{})
	cmd := PivotCommand{PivotPoint: r2.Point{X: 0, Y: 4}, PivotTarget: r2.Point{X: 3, Y: 4}}

	req := newTestRequest(cmd)
	req.Start.Pose = spatialmath.NewPose(0, 4-defaultPivotRadius, math.Pi/2)
	traj, err := p.Plan(context.Background(), req)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.IsDone(), test.ShouldBeFalse)

	last := traj.Last()
	test.That(t, last.Pose.Position.X, test.ShouldAlmostEqual, -defaultPivotRadius, 1e-6)
	test.That(t, last.Pose.Position.Y, test.ShouldAlmostEqual, 4, 1e-6)
	test.That(t, last.Pose.Heading, test.ShouldAlmostEqual, 0, 1e-6)
	for _, inst := range traj.Instants() {
		d := spatialmath.Distance(inst.Pose.Position, cmd.PivotPoint)
		test.That(t, d, test.ShouldAlmostEqual, defaultPivotRadius, 0.01)
	}

	req.Start.Pose.Heading = 0.01
	_, err = p.Plan(context.Background(), req)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.IsDone(), test.ShouldBeTrue)
}
