package builtin

import (
	"context"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"

	"github.com/rjsoccer/planner/logging"
	"github.com/rjsoccer/planner/motionplan"
	"github.com/rjsoccer/planner/services/robotmove"
	"github.com/rjsoccer/planner/trajectory"
	"github.com/rjsoccer/planner/utils"
	"github.com/rjsoccer/planner/world"
)

// UnboundedSpeedCap is the translational speed limit, in m/s, applied when the coach lifts the
// speed limit.
const UnboundedSpeedCap = 10.0

// latencyWindow is how many ticks of planning latency are kept per robot.
const latencyWindow = 120

var errRobotUnreachable = errors.New("robot is not visible or its state is stale")

// robotPlanner plans for one robot. Its strategy state is touched only by that robot's goal loop.
type robotPlanner struct {
	id     int
	cfg    Config
	holder *world.Holder
	traj   robotmove.TrajectorySink
	manip  robotmove.ManipulatorSink
	peers  *motionplan.TrajectoryCollection

	newRegistry RegistryFactory
	registry    *motionplan.Registry
	fallback    motionplan.PathPlanner
	current     motionplan.PathPlanner

	clk         clock.Clock
	logger      logging.Logger
	unreachable *rate.Limiter

	ballSense atomic.Bool
	latency   *utils.RollingWindow
	ticks     atomic.Int64
	fallbacks atomic.Int64
}

func newRobotPlanner(id int, d *Dispatcher) *robotPlanner {
	return &robotPlanner{
		id:          id,
		cfg:         d.cfg,
		holder:      d.holder,
		traj:        d.trajSink,
		manip:       d.manipSink,
		peers:       d.peers,
		newRegistry: d.newRegistry,
		registry:    d.newRegistry(d.cfg.Planners),
		fallback:    motionplan.NewEscapeObstaclesPlanner(d.cfg.Planners.For(motionplan.EscapeObstaclesName)),
		clk:         d.clk,
		logger:      d.logger.Sublogger(robotLoggerName(id)),
		unreachable: rate.NewLimiter(rate.Every(time.Second), 1),
		latency:     utils.NewRollingWindow(latencyWindow),
	}
}

// robotAlive reports whether the robot is visible and its state is fresh.
func (rp *robotPlanner) robotAlive() bool {
	ws := rp.holder.WorldState()
	robot, ok := ws.OurRobot(rp.id)
	if !ok || !robot.Visible {
		return false
	}
	return rp.clk.Now().Before(ws.LastUpdated.Add(rp.cfg.RobotTimeout))
}

// beginGoal forgets which strategy ran last. Strategies keep their state so the same motion can
// resume where it left off; only a failure resets them.
func (rp *robotPlanner) beginGoal() {
	rp.current = nil
}

// endGoal withdraws the robot's trajectory from the peer store.
func (rp *robotPlanner) endGoal() {
	rp.peers.Clear(rp.id)
}

// ExecuteIntent plans one tick for intent and publishes the result. It publishes nothing, and
// returns false, while the robot is unreachable.
func (rp *robotPlanner) ExecuteIntent(ctx context.Context, intent motionplan.RobotIntent) bool {
	if !rp.robotAlive() {
		if rp.unreachable.AllowN(rp.clk.Now(), 1) {
			rp.logger.CDebugw(ctx, "robot unreachable, skipping tick", "robot", rp.id)
		}
		rp.peers.Clear(rp.id)
		return false
	}
	started := rp.clk.Now()
	req := rp.makeRequest(intent)
	traj := rp.safePlan(ctx, req)
	rp.latency.Add(float64(rp.clk.Since(started)) / float64(time.Millisecond))
	rp.ticks.Inc()

	rp.traj.PublishTrajectory(rp.id, traj)
	rp.manip.PublishManipulator(rp.id, robotmove.ManipulatorSetpoint{
		ShootMode:     intent.ShootMode,
		TriggerMode:   intent.TriggerMode,
		KickSpeed:     intent.KickSpeed,
		DribblerSpeed: req.DribblerSpeed,
	})
	rp.peers.Put(rp.id, traj, intent.Priority)
	return true
}

// makeRequest assembles the planning request for intent from the current world, applying the
// coach's override.
func (rp *robotPlanner) makeRequest(intent motionplan.RobotIntent) motionplan.PlanRequest {
	ws := rp.holder.WorldState()
	robot, _ := ws.OurRobot(rp.id)
	override := rp.holder.CoachState().GlobalOverride
	now := rp.clk.Now()
	observed := robot.Timestamp
	if observed.IsZero() {
		observed = now
	}

	cmd := intent.Command
	if cmd == nil {
		cmd = motionplan.EmptyCommand{}
	}
	constraints := rp.cfg.Constraints
	switch {
	case override.MaxSpeed == 0:
		cmd = motionplan.EmptyCommand{}
	case override.MaxSpeed < 0:
		constraints.Mot.MaxSpeed = UnboundedSpeedCap
	default:
		constraints.Mot.MaxSpeed = override.MaxSpeed
	}

	virtual := intent.LocalObstacles.Clone()
	if rp.holder.GoalieID() != rp.id {
		virtual.AddAll(rp.holder.DefAreaObstacles())
	}

	return motionplan.PlanRequest{
		Start: trajectory.RobotInstant{
			Pose:     robot.Pose,
			Velocity: robot.Velocity,
			Stamp:    observed,
		},
		Command:          cmd,
		Constraints:      constraints,
		FieldObstacles:   rp.holder.GlobalObstacles(),
		VirtualObstacles: virtual,
		PeerTrajectories: rp.peers.PeersFor(rp.id, intent.Priority),
		ShellID:          rp.id,
		WorldState:       ws,
		Field:            rp.holder.FieldDimensions(),
		Priority:         intent.Priority,
		BallSense:        rp.ballSense.Load(),
		MinDistFromBall:  override.MinDistFromBall,
		DribblerSpeed:    math.Min(intent.DribblerSpeed, override.MaxDribblerSpeed),
		Now:              now,
	}
}

// unsafePlan runs the strategy named by the request's command and checks its output. On any
// failure the strategy is reset once and the error returned.
func (rp *robotPlanner) unsafePlan(ctx context.Context, req motionplan.PlanRequest) (trajectory.Trajectory, error) {
	name := motionplan.PlannerNameOf(req.Command)
	planner, err := rp.registry.Resolve(name)
	if err != nil {
		return trajectory.Empty(), err
	}
	rp.current = planner

	traj, err := planCapturingPanic(ctx, planner, req)
	if err == nil {
		err = acceptTrajectory(name, traj)
	} else if !motionplan.IsStrategyFailure(err) {
		err = motionplan.NewPlannerFailedError(name, err)
	}
	if err != nil {
		planner.Reset()
		return trajectory.Empty(), err
	}
	return traj, nil
}

// planCapturingPanic runs one strategy, reporting a panic inside it as a planning failure.
func planCapturingPanic(
	ctx context.Context,
	planner motionplan.PathPlanner,
	req motionplan.PlanRequest,
) (traj trajectory.Trajectory, err error) {
	defer func() {
		if r := recover(); r != nil {
			traj = trajectory.Empty()
			err = motionplan.NewPlannerFailedError(planner.Name(), errors.Errorf("panic: %v", r))
		}
	}()
	return planner.Plan(ctx, req)
}

// acceptTrajectory rejects trajectories that are empty, lack a heading profile, or lack a creation
// time.
func acceptTrajectory(name string, traj trajectory.Trajectory) error {
	err := traj.Validate()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, trajectory.ErrEmpty):
		return motionplan.NewEmptyTrajectoryError(name)
	case errors.Is(err, trajectory.ErrNoAngleProfile):
		return motionplan.NewNoAngleProfileError(name)
	case errors.Is(err, trajectory.ErrNoTimestamp):
		return motionplan.NewNoTimestampError(name)
	default:
		return motionplan.NewPlannerFailedError(name, err)
	}
}

// safePlan always returns a trajectory: when the commanded strategy fails, the robot escapes
// obstacles instead for this tick.
func (rp *robotPlanner) safePlan(ctx context.Context, req motionplan.PlanRequest) trajectory.Trajectory {
	traj, err := rp.unsafePlan(ctx, req)
	if err == nil {
		return traj
	}
	rp.fallbacks.Inc()
	rp.logger.CWarnw(ctx, "planning failed, falling back",
		"robot", rp.id,
		"planner", motionplan.PlannerNameOf(req.Command),
		"error", err,
	)
	rp.current = rp.fallback
	traj, err = planCapturingPanic(ctx, rp.fallback, req)
	// the escape result is used whatever it contains, unless there is nothing to publish
	if err != nil || traj.IsEmpty() {
		rp.logger.Errorw("fallback planning failed, holding position", "robot", rp.id, "error", err)
		return holdPosition(req)
	}
	return traj
}

// holdPosition is a single instant at the request's start, at rest. It is published only when
// the escape fallback fails too.
func holdPosition(req motionplan.PlanRequest) trajectory.Trajectory {
	return trajectory.New(trajectory.RobotInstant{Pose: req.Start.Pose, Stamp: req.Now}).
		WithHeadings(trajectory.FaceAngle(req.Start.Pose.Heading)).
		WithTimeCreated(req.Now)
}

// IsDone is false before any strategy has run for the current goal.
func (rp *robotPlanner) IsDone() bool {
	return rp.current != nil && rp.current.IsDone()
}

func (rp *robotPlanner) setBallSense(hasBall bool) {
	rp.ballSense.Store(hasBall)
}

// PlanHypothetical plans intent with throwaway strategies and returns how long the result takes.
// It may run concurrently with the goal loop.
func (rp *robotPlanner) PlanHypothetical(ctx context.Context, intent motionplan.RobotIntent) (time.Duration, error) {
	if !rp.robotAlive() {
		return 0, errRobotUnreachable
	}
	req := rp.makeRequest(intent)
	name := motionplan.PlannerNameOf(req.Command)
	planner, err := rp.newRegistry(rp.cfg.Planners).Resolve(name)
	if err != nil {
		return 0, err
	}
	traj, err := planCapturingPanic(ctx, planner, req)
	if err != nil {
		return 0, err
	}
	if err := acceptTrajectory(name, traj); err != nil {
		return 0, err
	}
	return traj.Duration(), nil
}

func (rp *robotPlanner) stats() (robotmove.PlanningStats, error) {
	summary, err := rp.latency.Summary()
	if err != nil {
		return robotmove.PlanningStats{}, err
	}
	return robotmove.PlanningStats{
		Ticks:     int(rp.ticks.Load()),
		Fallbacks: int(rp.fallbacks.Load()),
		Latency:   summary,
	}, nil
}
