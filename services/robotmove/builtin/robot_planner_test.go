package builtin

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"

	"github.com/rjsoccer/planner/logging"
	"github.com/rjsoccer/planner/motionplan"
	"github.com/rjsoccer/planner/services/robotmove"
	"github.com/rjsoccer/planner/spatialmath"
	"github.com/rjsoccer/planner/testutils/inject"
	"github.com/rjsoccer/planner/trajectory"
	"github.com/rjsoccer/planner/world"
)

const testGoalie = 5

type harness struct {
	holder *world.Holder
	sink   *robotmove.LatchedSink
	clk    *clock.Mock
	logs   *observer.ObservedLogs
	d      *Dispatcher
}

// newHarness puts robots 0 and 1 on the field at (0, 2) and (1, 2), with the ball at (0, 4).
// Robot 5 is the goalie but is not visible.
func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	logger, logs := logging.NewObservedTestLogger(t)
	h := &harness{
		holder: world.NewHolder(world.DefaultFieldDimensions()),
		sink:   robotmove.NewLatchedSink(),
		clk:    clock.NewMock(),
		logs:   logs,
	}
	h.holder.SetGoalieID(testGoalie)
	h.refreshWorld()

	opts = append([]Option{WithClock(h.clk)}, opts...)
	d, err := NewDispatcher(DefaultConfig(), h.holder, h.sink, h.sink, logger, opts...)
	test.That(t, err, test.ShouldBeNil)
	h.d = d
	t.Cleanup(func() {
		test.That(t, d.Close(context.Background()), test.ShouldBeNil)
	})
	return h
}

func (h *harness) refreshWorld() {
	ws := world.NewWorldState()
	ws.OurRobots[0].Pose = spatialmath.NewPose(0, 2, 0)
	ws.OurRobots[0].Visible = true
	ws.OurRobots[1].Pose = spatialmath.NewPose(1, 2, 0)
	ws.OurRobots[1].Visible = true
	ws.Ball = world.BallState{Position: r2.Point{X: 0, Y: 4}, Visible: true}
	ws.LastUpdated = h.clk.Now()
	h.holder.SetWorldState(ws)
}

// fakeRegistry serves the given fakes by name.
func fakeRegistry(fakes ...motionplan.PathPlanner) RegistryFactory {
	return func(motionplan.PlannerConfigs) *motionplan.Registry {
		reg, err := motionplan.NewRegistry(fakes...)
		if err != nil {
			panic(err)
		}
		return reg
	}
}

func validTrajectory(now time.Time) trajectory.Trajectory {
	inst := trajectory.RobotInstant{Pose: spatialmath.NewPose(0, 2, 0), Stamp: now}
	return trajectory.New(inst).WithHeadings(trajectory.FaceAngle(0)).WithTimeCreated(now)
}

func pathTargetIntent(robotID int, x, y float64) motionplan.RobotIntent {
	return motionplan.RobotIntent{
		RobotID: robotID,
		Command: motionplan.PathTargetCommand{Target: motionplan.LinearMotionInstant{Position: r2.Point{X: x, Y: y}}},
	}
}

func TestFallback(t *testing.T) {
	for _, tc := range []struct {
		name  string
		plan  func(now time.Time) (trajectory.Trajectory, error)
		cause error
	}{
		{
			name:  "empty trajectory",
			plan:  func(time.Time) (trajectory.Trajectory, error) { return trajectory.Empty(), nil },
			cause: trajectory.ErrEmpty,
		},
		{
			name: "no heading profile",
			plan: func(now time.Time) (trajectory.Trajectory, error) {
				inst := trajectory.RobotInstant{Pose: spatialmath.NewPose(0, 2, 0), Stamp: now}
				return trajectory.New(inst).WithTimeCreated(now), nil
			},
			cause: trajectory.ErrNoAngleProfile,
		},
		{
			name: "no creation time",
			plan: func(now time.Time) (trajectory.Trajectory, error) {
				inst := trajectory.RobotInstant{Pose: spatialmath.NewPose(0, 2, 0), Stamp: now}
				return trajectory.New(inst).WithHeadings(trajectory.FaceAngle(0)), nil
			},
			cause: trajectory.ErrNoTimestamp,
		},
		{
			name: "error",
			plan: func(time.Time) (trajectory.Trajectory, error) {
				return trajectory.Empty(), errors.New("solver diverged")
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fake := inject.NewPathPlanner(motionplan.PathTargetName)
			h := newHarness(t, WithRegistryFactory(fakeRegistry(fake)))
			fake.PlanFunc = func(context.Context, motionplan.PlanRequest) (trajectory.Trajectory, error) {
				return tc.plan(h.clk.Now())
			}
			rp := h.d.slots[0].planner

			if tc.cause != nil {
				_, err := rp.unsafePlan(context.Background(), rp.makeRequest(pathTargetIntent(0, 1, 1)))
				test.That(t, errors.Is(err, motionplan.ErrPlanningFailed), test.ShouldBeTrue)
				test.That(t, errors.Is(err, tc.cause), test.ShouldBeTrue)
				test.That(t, fake.ResetCalls(), test.ShouldEqual, 1)
			}

			resetsBefore := fake.ResetCalls()
			test.That(t, rp.ExecuteIntent(context.Background(), pathTargetIntent(0, 1, 1)), test.ShouldBeTrue)
			test.That(t, fake.ResetCalls(), test.ShouldEqual, resetsBefore+1)

			traj, ok := h.sink.Trajectory(0)
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, traj.Validate(), test.ShouldBeNil)
			test.That(t, h.sink.TrajectoryCount(0), test.ShouldEqual, 1)
			test.That(t, rp.current, test.ShouldEqual, rp.fallback)
			test.That(t, rp.IsDone(), test.ShouldBeFalse)

			warnings := h.logs.FilterMessage("planning failed, falling back").All()
			test.That(t, warnings, test.ShouldHaveLength, 1)
			test.That(t, warnings[0].ContextMap()["robot"], test.ShouldEqual, int64(0))

			stats, err := h.d.Stats(0)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, stats.Ticks, test.ShouldEqual, 1)
			test.That(t, stats.Fallbacks, test.ShouldEqual, 1)
		})
	}

	t.Run("accepted trajectory is published as is", func(t *testing.T) {
		fake := inject.NewPathPlanner(motionplan.PathTargetName)
		h := newHarness(t, WithRegistryFactory(fakeRegistry(fake)))
		fake.PlanFunc = func(context.Context, motionplan.PlanRequest) (trajectory.Trajectory, error) {
			return validTrajectory(h.clk.Now()), nil
		}
		fake.IsDoneFunc = func() bool { return true }
		rp := h.d.slots[0].planner

		test.That(t, rp.IsDone(), test.ShouldBeFalse)
		test.That(t, rp.ExecuteIntent(context.Background(), pathTargetIntent(0, 1, 1)), test.ShouldBeTrue)
		test.That(t, fake.ResetCalls(), test.ShouldEqual, 0)
		test.That(t, h.logs.FilterMessage("planning failed, falling back").Len(), test.ShouldEqual, 0)
		test.That(t, rp.IsDone(), test.ShouldBeTrue)

		stats, err := h.d.Stats(0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, stats.Fallbacks, test.ShouldEqual, 0)
		test.That(t, stats.Latency.Count, test.ShouldEqual, 1)
	})

	t.Run("panicking strategy", func(t *testing.T) {
		fake := inject.NewPathPlanner(motionplan.PathTargetName)
		h := newHarness(t, WithRegistryFactory(fakeRegistry(fake)))
		fake.PlanFunc = func(context.Context, motionplan.PlanRequest) (trajectory.Trajectory, error) {
			panic("index out of range")
		}
		rp := h.d.slots[0].planner
		ctx := context.Background()

		_, err := rp.unsafePlan(ctx, rp.makeRequest(pathTargetIntent(0, 1, 1)))
		test.That(t, errors.Is(err, motionplan.ErrPlanningFailed), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "index out of range")
		test.That(t, fake.ResetCalls(), test.ShouldEqual, 1)

		test.That(t, rp.ExecuteIntent(ctx, pathTargetIntent(0, 1, 1)), test.ShouldBeTrue)
		test.That(t, fake.ResetCalls(), test.ShouldEqual, 2)
		traj, ok := h.sink.Trajectory(0)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, traj.Validate(), test.ShouldBeNil)
		test.That(t, rp.current, test.ShouldEqual, rp.fallback)

		_, err = h.d.PlanHypothetical(ctx, 0, pathTargetIntent(0, 1, 1))
		test.That(t, errors.Is(err, motionplan.ErrPlanningFailed), test.ShouldBeTrue)
	})

	t.Run("escape fails too", func(t *testing.T) {
		fake := inject.NewPathPlanner(motionplan.PathTargetName)
		h := newHarness(t, WithRegistryFactory(fakeRegistry(fake)))
		fake.PlanFunc = func(context.Context, motionplan.PlanRequest) (trajectory.Trajectory, error) {
			return trajectory.Empty(), errors.New("solver diverged")
		}
		escape := inject.NewPathPlanner(motionplan.EscapeObstaclesName)
		escape.PlanFunc = func(context.Context, motionplan.PlanRequest) (trajectory.Trajectory, error) {
			panic("nil obstacle set")
		}
		rp := h.d.slots[0].planner
		rp.fallback = escape

		test.That(t, rp.ExecuteIntent(context.Background(), pathTargetIntent(0, 1, 1)), test.ShouldBeTrue)
		test.That(t, escape.PlanCalls(), test.ShouldEqual, 1)
		traj, ok := h.sink.Trajectory(0)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, traj.Validate(), test.ShouldBeNil)
		test.That(t, traj.Len(), test.ShouldEqual, 1)
		test.That(t, traj.Begin(), test.ShouldEqual, h.clk.Now())
		first, ok := traj.Evaluate(h.clk.Now())
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, first.Pose.Position, test.ShouldResemble, r2.Point{X: 0, Y: 2})
		test.That(t, h.logs.FilterMessage("fallback planning failed, holding position").Len(), test.ShouldEqual, 1)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		h := newHarness(t, WithRegistryFactory(fakeRegistry()))
		rp := h.d.slots[0].planner
		_, err := rp.unsafePlan(context.Background(), rp.makeRequest(pathTargetIntent(0, 1, 1)))
		test.That(t, errors.Is(err, motionplan.ErrUnknownStrategy), test.ShouldBeTrue)

		test.That(t, rp.ExecuteIntent(context.Background(), pathTargetIntent(0, 1, 1)), test.ShouldBeTrue)
		traj, ok := h.sink.Trajectory(0)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, traj.IsEmpty(), test.ShouldBeFalse)
	})
}

func TestLiveness(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	t.Run("invisible robot", func(t *testing.T) {
		rp := h.d.slots[2].planner
		test.That(t, rp.ExecuteIntent(ctx, pathTargetIntent(2, 1, 1)), test.ShouldBeFalse)
		test.That(t, h.sink.TrajectoryCount(2), test.ShouldEqual, 0)
		test.That(t, h.sink.ManipulatorCount(2), test.ShouldEqual, 0)
		_, _, ok := h.d.peers.Get(2)
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("stale state", func(t *testing.T) {
		rp := h.d.slots[0].planner
		h.clk.Add(DefaultConfig().RobotTimeout)
		test.That(t, rp.ExecuteIntent(ctx, pathTargetIntent(0, 1, 1)), test.ShouldBeFalse)
		test.That(t, h.sink.TrajectoryCount(0), test.ShouldEqual, 0)
		test.That(t, h.sink.ManipulatorCount(0), test.ShouldEqual, 0)

		_, err := h.d.PlanHypothetical(ctx, 0, pathTargetIntent(0, 1, 1))
		test.That(t, err, test.ShouldBeError, errRobotUnreachable)

		h.refreshWorld()
		test.That(t, rp.ExecuteIntent(ctx, pathTargetIntent(0, 1, 1)), test.ShouldBeTrue)
		test.That(t, h.sink.TrajectoryCount(0), test.ShouldEqual, 1)
		test.That(t, h.sink.ManipulatorCount(0), test.ShouldEqual, 1)
	})
}

func TestSpeedOverride(t *testing.T) {
	h := newHarness(t)
	rp := h.d.slots[0].planner
	intent := pathTargetIntent(0, 1, 1)
	intent.DribblerSpeed = 0.8

	setOverride := func(maxSpeed, maxDribbler float64) {
		h.holder.SetCoachState(world.CoachState{GlobalOverride: world.GlobalOverride{
			MaxSpeed:         maxSpeed,
			MaxDribblerSpeed: maxDribbler,
		}})
	}

	setOverride(0, 1)
	req := rp.makeRequest(intent)
	test.That(t, req.Command, test.ShouldResemble, motionplan.EmptyCommand{})

	setOverride(-1, 1)
	req = rp.makeRequest(intent)
	test.That(t, req.Command, test.ShouldResemble, intent.Command)
	test.That(t, req.Constraints.Mot.MaxSpeed, test.ShouldEqual, UnboundedSpeedCap)
	test.That(t, req.DribblerSpeed, test.ShouldEqual, 0.8)

	setOverride(2.5, 0.5)
	req = rp.makeRequest(intent)
	test.That(t, req.Command, test.ShouldResemble, intent.Command)
	test.That(t, req.Constraints.Mot.MaxSpeed, test.ShouldEqual, 2.5)
	test.That(t, req.Constraints.Mot.MaxAccel, test.ShouldEqual, DefaultConfig().Constraints.Mot.MaxAccel)
	test.That(t, req.DribblerSpeed, test.ShouldEqual, 0.5)

	t.Run("halted robots still publish", func(t *testing.T) {
		setOverride(0, 1)
		test.That(t, rp.ExecuteIntent(context.Background(), intent), test.ShouldBeTrue)
		traj, ok := h.sink.Trajectory(0)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, traj.Len(), test.ShouldEqual, 1)
		test.That(t, rp.current.Name(), test.ShouldEqual, motionplan.EscapeObstaclesName)

		setpoint, ok := h.sink.Manipulator(0)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, setpoint.DribblerSpeed, test.ShouldEqual, 0.8)
	})
}

func TestObstacleComposition(t *testing.T) {
	h := newHarness(t)
	ws := h.holder.WorldState().Clone()
	ws.TheirRobots[3].Pose = spatialmath.NewPose(2, 5, 0)
	ws.TheirRobots[3].Visible = true
	h.holder.SetWorldState(ws)

	intent := pathTargetIntent(0, 1, 1)
	intent.LocalObstacles = spatialmath.NewShapeSet(spatialmath.Circle{Center: r2.Point{X: -1, Y: 3}, Radius: 0.2})

	field := h.holder.FieldDimensions()
	insideOurArea := r2.Point{X: 0, Y: field.PenaltyShortDist / 2}
	opponent := r2.Point{X: 2, Y: 5}

	t.Run("field player", func(t *testing.T) {
		req := h.d.slots[0].planner.makeRequest(intent)
		test.That(t, req.FieldObstacles.Len(), test.ShouldEqual, 1)
		test.That(t, req.FieldObstacles.Hit(opponent), test.ShouldBeTrue)
		test.That(t, req.VirtualObstacles.Len(), test.ShouldEqual, 3)
		test.That(t, req.VirtualObstacles.Hit(insideOurArea), test.ShouldBeTrue)
		test.That(t, req.VirtualObstacles.Hit(r2.Point{X: -1, Y: 3}), test.ShouldBeTrue)
	})

	t.Run("goalie", func(t *testing.T) {
		h.holder.SetGoalieID(0)
		defer h.holder.SetGoalieID(testGoalie)
		req := h.d.slots[0].planner.makeRequest(intent)
		test.That(t, req.FieldObstacles.Len(), test.ShouldEqual, 1)
		test.That(t, req.VirtualObstacles.Len(), test.ShouldEqual, 1)
		test.That(t, req.VirtualObstacles.Hit(insideOurArea), test.ShouldBeFalse)
		test.That(t, req.VirtualObstacles.Hit(r2.Point{X: -1, Y: 3}), test.ShouldBeTrue)
	})

	test.That(t, intent.LocalObstacles.Len(), test.ShouldEqual, 1)
}

func TestPeerAvoidance(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	leader := pathTargetIntent(1, 1, 3)
	leader.Priority = 2
	test.That(t, h.d.slots[1].planner.ExecuteIntent(ctx, leader), test.ShouldBeTrue)

	follower := pathTargetIntent(0, -1, 3)
	follower.Priority = 1
	req := h.d.slots[0].planner.makeRequest(follower)
	test.That(t, req.PeerTrajectories, test.ShouldContainKey, 1)
	test.That(t, req.DynamicObstacles(time.Second).Len(), test.ShouldBeGreaterThan, 0)

	// the leader does not yield to the follower
	test.That(t, h.d.slots[0].planner.ExecuteIntent(ctx, follower), test.ShouldBeTrue)
	test.That(t, h.d.slots[1].planner.makeRequest(leader).PeerTrajectories, test.ShouldBeEmpty)

	t.Run("leader drops out of sight", func(t *testing.T) {
		ws := h.holder.WorldState().Clone()
		ws.OurRobots[1].Visible = false
		h.holder.SetWorldState(ws)
		defer h.refreshWorld()

		test.That(t, h.d.slots[1].planner.ExecuteIntent(ctx, leader), test.ShouldBeFalse)
		_, _, ok := h.d.peers.Get(1)
		test.That(t, ok, test.ShouldBeFalse)
		req := h.d.slots[0].planner.makeRequest(follower)
		test.That(t, req.PeerTrajectories, test.ShouldBeEmpty)
	})
}

func TestStartStamp(t *testing.T) {
	h := newHarness(t)
	rp := h.d.slots[0].planner

	// no capture time falls back to the planning time
	req := rp.makeRequest(pathTargetIntent(0, 1, 1))
	test.That(t, req.Start.Stamp, test.ShouldEqual, h.clk.Now())

	observed := h.clk.Now()
	h.clk.Add(20 * time.Millisecond)
	ws := h.holder.WorldState().Clone()
	ws.OurRobots[0].Timestamp = observed
	ws.LastUpdated = h.clk.Now()
	h.holder.SetWorldState(ws)

	req = rp.makeRequest(pathTargetIntent(0, 1, 1))
	test.That(t, req.Start.Stamp, test.ShouldEqual, observed)
	test.That(t, req.Now, test.ShouldEqual, h.clk.Now())
}

func TestStrategyStateSurvivesNewGoal(t *testing.T) {
	fake := inject.NewPathPlanner(motionplan.PathTargetName)
	h := newHarness(t, WithRegistryFactory(fakeRegistry(fake)))
	fake.PlanFunc = func(context.Context, motionplan.PlanRequest) (trajectory.Trajectory, error) {
		return validTrajectory(h.clk.Now()), nil
	}
	fake.IsDoneFunc = func() bool { return true }
	rp := h.d.slots[0].planner

	test.That(t, rp.ExecuteIntent(context.Background(), pathTargetIntent(0, 1, 1)), test.ShouldBeTrue)
	test.That(t, rp.IsDone(), test.ShouldBeTrue)

	rp.beginGoal()
	test.That(t, rp.IsDone(), test.ShouldBeFalse)
	test.That(t, fake.ResetCalls(), test.ShouldEqual, 0)
}

func TestBallSense(t *testing.T) {
	h := newHarness(t)
	rp := h.d.slots[0].planner
	test.That(t, rp.makeRequest(pathTargetIntent(0, 1, 1)).BallSense, test.ShouldBeFalse)

	h.d.UpdateRobotStatus(robotmove.RobotStatus{RobotID: 0, HasBall: true})
	test.That(t, rp.makeRequest(pathTargetIntent(0, 1, 1)).BallSense, test.ShouldBeTrue)

	h.d.UpdateRobotStatus(robotmove.RobotStatus{RobotID: 99, HasBall: true})
	test.That(t, h.d.slots[1].planner.makeRequest(pathTargetIntent(1, 1, 1)).BallSense, test.ShouldBeFalse)
}

func TestPlanHypothetical(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	d, err := h.d.PlanHypothetical(ctx, 0, pathTargetIntent(0, 2, 2))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d > 0, test.ShouldBeTrue)

	test.That(t, h.sink.TrajectoryCount(0), test.ShouldEqual, 0)
	test.That(t, h.d.slots[0].planner.current, test.ShouldBeNil)
	stats, err := h.d.Stats(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stats.Ticks, test.ShouldEqual, 0)

	_, err = h.d.PlanHypothetical(ctx, world.NumShells, pathTargetIntent(0, 2, 2))
	test.That(t, err, test.ShouldNotBeNil)

	blocked := pathTargetIntent(0, 2, 2)
	blocked.LocalObstacles = spatialmath.NewShapeSet(spatialmath.Circle{Center: r2.Point{X: 2, Y: 2}, Radius: 0.5})
	_, err = h.d.PlanHypothetical(ctx, 0, blocked)
	test.That(t, errors.Is(err, motionplan.ErrPlanningFailed), test.ShouldBeTrue)
}
