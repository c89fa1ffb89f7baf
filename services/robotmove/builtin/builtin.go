// Package builtin implements the robot move service: a goal loop per robot that plans every tick
// and publishes trajectories and manipulator setpoints.
package builtin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/rjsoccer/planner/logging"
	"github.com/rjsoccer/planner/motionplan"
	"github.com/rjsoccer/planner/services/robotmove"
	"github.com/rjsoccer/planner/utils"
	"github.com/rjsoccer/planner/world"
)

// Config configures a Dispatcher.
type Config struct {
	NumRobots    int
	TickRateHz   float64
	RobotTimeout time.Duration
	Constraints  motionplan.RobotConstraints
	Planners     motionplan.PlannerConfigs
}

// DefaultConfig drives every shell at 60 Hz.
func DefaultConfig() Config {
	return Config{
		NumRobots:    world.NumShells,
		TickRateHz:   60,
		RobotTimeout: 500 * time.Millisecond,
		Constraints:  motionplan.DefaultRobotConstraints(),
	}
}

// Validate checks the config.
func (cfg Config) Validate() error {
	var err error
	if cfg.NumRobots < 1 || cfg.NumRobots > world.NumShells {
		err = multierr.Append(err, errors.Errorf("num_robots must be in [1, %d], got %d", world.NumShells, cfg.NumRobots))
	}
	if cfg.TickRateHz <= 0 {
		err = multierr.Append(err, errors.Errorf("tick_rate_hz must be positive, got %v", cfg.TickRateHz))
	}
	if cfg.RobotTimeout <= 0 {
		err = multierr.Append(err, errors.Errorf("robot_timeout must be positive, got %v", cfg.RobotTimeout))
	}
	return multierr.Append(err, cfg.Constraints.Validate())
}

func (cfg Config) tickPeriod() time.Duration {
	return time.Duration(float64(time.Second) / cfg.TickRateHz)
}

// RegistryFactory builds a fresh set of strategies.
type RegistryFactory func(motionplan.PlannerConfigs) *motionplan.Registry

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithClock replaces the wall clock, typically with a mock.
func WithClock(clk clock.Clock) Option {
	return func(d *Dispatcher) {
		d.clk = clk
	}
}

// WithRegistryFactory replaces the built-in strategies.
func WithRegistryFactory(f RegistryFactory) Option {
	return func(d *Dispatcher) {
		d.newRegistry = f
	}
}

// goalRun is one goal's execution loop.
type goalRun struct {
	handle        *robotmove.GoalHandle
	supersede     chan struct{}
	supersedeOnce sync.Once
	exited        chan struct{}
}

func newGoalRun(handle *robotmove.GoalHandle) *goalRun {
	return &goalRun{
		handle:    handle,
		supersede: make(chan struct{}),
		exited:    make(chan struct{}),
	}
}

func (run *goalRun) requestSupersede() {
	run.supersedeOnce.Do(func() { close(run.supersede) })
}

func (run *goalRun) running() bool {
	select {
	case <-run.exited:
		return false
	default:
		return true
	}
}

// robotSlot is the per-robot execution state.
type robotSlot struct {
	// submitMu serializes submissions for the robot.
	submitMu sync.Mutex

	mu      sync.Mutex
	current *goalRun

	planner *robotPlanner
}

func (s *robotSlot) currentRun() *goalRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Dispatcher runs at most one goal loop per robot.
type Dispatcher struct {
	cfg       Config
	holder    *world.Holder
	trajSink  robotmove.TrajectorySink
	manipSink robotmove.ManipulatorSink
	peers     *motionplan.TrajectoryCollection

	newRegistry RegistryFactory
	clk         clock.Clock
	logger      logging.Logger

	slots   []*robotSlot
	workers utils.StoppableWorkers
	closed  atomic.Bool
}

var _ robotmove.Service = (*Dispatcher)(nil)

// NewDispatcher returns a dispatcher for cfg.NumRobots robots reading the world from holder.
func NewDispatcher(
	cfg Config,
	holder *world.Holder,
	trajSink robotmove.TrajectorySink,
	manipSink robotmove.ManipulatorSink,
	logger logging.Logger,
	opts ...Option,
) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid dispatcher config")
	}
	if holder == nil || trajSink == nil || manipSink == nil {
		return nil, errors.New("dispatcher needs a world holder and both sinks")
	}
	d := &Dispatcher{
		cfg:         cfg,
		holder:      holder,
		trajSink:    trajSink,
		manipSink:   manipSink,
		peers:       motionplan.NewTrajectoryCollection(),
		newRegistry: motionplan.NewDefaultRegistry,
		clk:         clock.New(),
		logger:      logger,
		workers:     utils.NewStoppableWorkers(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.slots = make([]*robotSlot, cfg.NumRobots)
	for i := range d.slots {
		d.slots[i] = &robotSlot{planner: newRobotPlanner(i, d)}
	}
	return d, nil
}

func (d *Dispatcher) slot(robotID int) (*robotSlot, error) {
	if err := robotmove.ValidateRobotID(robotID, d.cfg.NumRobots); err != nil {
		return nil, err
	}
	return d.slots[robotID], nil
}

// Submit starts a goal for robotID. A running goal is superseded first, and Submit waits for its
// loop to exit; if ctx ends before then, the new goal is not started.
func (d *Dispatcher) Submit(ctx context.Context, robotID int, intent motionplan.RobotIntent) (*robotmove.GoalHandle, error) {
	if d.closed.Load() {
		return nil, robotmove.ErrDispatcherClosed
	}
	s, err := d.slot(robotID)
	if err != nil {
		return nil, err
	}
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	if prev := s.currentRun(); prev != nil && prev.running() {
		prev.requestSupersede()
		stopSlowLogger := utils.SlowLogger(ctx, d.clk, "waiting for previous goal to stop", "goal", prev.handle.String(), d.logger)
		select {
		case <-prev.exited:
			stopSlowLogger()
		case <-ctx.Done():
			stopSlowLogger()
			return nil, errors.Wrapf(ctx.Err(), "waiting for robot %d's previous goal to stop", robotID)
		}
	}

	handle := robotmove.NewGoalHandle(robotID, intent)
	run := newGoalRun(handle)
	s.planner.beginGoal()
	s.mu.Lock()
	s.current = run
	s.mu.Unlock()

	if !d.workers.AddWorkers(func(ctx context.Context) { d.runGoal(ctx, s, run) }) {
		handle.Resolve(robotmove.OutcomeCanceled)
		close(run.exited)
		return nil, robotmove.ErrDispatcherClosed
	}
	d.logger.Debugw("goal started", "goal", handle.String())
	return handle, nil
}

// runGoal is one goal's loop. The handle is resolved before the loop is reported exited, so a
// superseding goal never starts before its predecessor has an outcome. A loop that dies without
// an outcome resolves as canceled.
func (d *Dispatcher) runGoal(ctx context.Context, s *robotSlot, run *goalRun) {
	defer close(run.exited)
	outcome := robotmove.OutcomeCanceled
	defer func() {
		s.planner.endGoal()
		run.handle.Resolve(outcome)
		d.logger.Debugw("goal finished", "goal", run.handle.String(), "outcome", outcome.String())
	}()
	outcome = d.executeGoal(ctx, s.planner, run)
}

func (d *Dispatcher) executeGoal(ctx context.Context, rp *robotPlanner, run *goalRun) robotmove.GoalOutcome {
	ticker := d.clk.Ticker(d.cfg.tickPeriod())
	defer ticker.Stop()

	for {
		// supersession wins over cancellation when both are pending
		select {
		case <-run.supersede:
			return robotmove.OutcomeSuperseded
		default:
		}
		select {
		case <-run.handle.CancelRequested():
			return robotmove.OutcomeCanceled
		case <-ctx.Done():
			return robotmove.OutcomeCanceled
		default:
		}

		rp.ExecuteIntent(ctx, run.handle.Intent)
		if rp.IsDone() {
			return robotmove.OutcomeSucceeded
		}

		select {
		case <-ticker.C:
		case <-run.supersede:
		case <-run.handle.CancelRequested():
		case <-ctx.Done():
		}
	}
}

// Cancel asks handle's loop to stop at its next tick boundary. A resolved goal is unaffected.
func (d *Dispatcher) Cancel(handle *robotmove.GoalHandle) {
	if handle == nil {
		return
	}
	handle.RequestCancel()
}

// IsExecuting reports whether a goal loop is running for robotID.
func (d *Dispatcher) IsExecuting(robotID int) bool {
	s, err := d.slot(robotID)
	if err != nil {
		return false
	}
	run := s.currentRun()
	return run != nil && run.running()
}

// PlanHypothetical estimates how long intent would take robotID from its current state.
func (d *Dispatcher) PlanHypothetical(ctx context.Context, robotID int, intent motionplan.RobotIntent) (time.Duration, error) {
	if d.closed.Load() {
		return 0, robotmove.ErrDispatcherClosed
	}
	s, err := d.slot(robotID)
	if err != nil {
		return 0, err
	}
	return s.planner.PlanHypothetical(ctx, intent)
}

// UpdateRobotStatus records robot feedback.
func (d *Dispatcher) UpdateRobotStatus(status robotmove.RobotStatus) {
	s, err := d.slot(status.RobotID)
	if err != nil {
		d.logger.Debugw("ignoring status", "error", err)
		return
	}
	s.planner.setBallSense(status.HasBall)
}

// Stats returns robotID's planning statistics.
func (d *Dispatcher) Stats(robotID int) (robotmove.PlanningStats, error) {
	s, err := d.slot(robotID)
	if err != nil {
		return robotmove.PlanningStats{}, err
	}
	return s.planner.stats()
}

// Close cancels every goal and waits for the loops to exit or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.closed.Store(true)
	stopped := make(chan struct{})
	goutils.PanicCapturingGo(func() {
		d.workers.Stop()
		close(stopped)
	})
	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for goal loops to stop")
	}
}

func robotLoggerName(id int) string {
	return fmt.Sprintf("robot_%d", id)
}
