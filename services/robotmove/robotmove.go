// Package robotmove defines the service that turns each robot's latest intent into a stream of
// trajectories and manipulator setpoints, one goal per robot at a time.
package robotmove

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/rjsoccer/planner/motionplan"
	"github.com/rjsoccer/planner/trajectory"
	"github.com/rjsoccer/planner/utils"
	"github.com/rjsoccer/planner/world"
)

// ErrDispatcherClosed is returned for work submitted after Close.
var ErrDispatcherClosed = errors.New("robot move dispatcher is closed")

// NewRobotOutOfRangeError is returned for a robot id outside [0, numRobots).
func NewRobotOutOfRangeError(robotID, numRobots int) error {
	return errors.Errorf("robot id %d out of range [0, %d)", robotID, numRobots)
}

// ValidateRobotID checks a shell id against the number of robots a service drives.
func ValidateRobotID(robotID, numRobots int) error {
	if robotID < 0 || robotID >= numRobots || robotID >= world.NumShells {
		return NewRobotOutOfRangeError(robotID, numRobots)
	}
	return nil
}

// GoalOutcome is how a goal ended.
type GoalOutcome int

// The set of goal outcomes. Superseded and canceled goals are aborted.
const (
	OutcomeSucceeded GoalOutcome = iota + 1
	OutcomeSuperseded
	OutcomeCanceled
)

func (o GoalOutcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeSuperseded:
		return "superseded"
	case OutcomeCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("GoalOutcome(%d)", int(o))
	}
}

// Aborted reports whether the goal ended without achieving its command.
func (o GoalOutcome) Aborted() bool {
	return o == OutcomeSuperseded || o == OutcomeCanceled
}

// GoalHandle tracks one submitted goal. It is resolved exactly once.
type GoalHandle struct {
	ID      uuid.UUID
	RobotID int
	Intent  motionplan.RobotIntent

	resolveOnce sync.Once
	cancelOnce  sync.Once
	done        chan struct{}
	canceled    chan struct{}
	outcome     GoalOutcome
}

// NewGoalHandle returns an unresolved handle for intent.
func NewGoalHandle(robotID int, intent motionplan.RobotIntent) *GoalHandle {
	return &GoalHandle{
		ID:       uuid.New(),
		RobotID:  robotID,
		Intent:   intent,
		done:     make(chan struct{}),
		canceled: make(chan struct{}),
	}
}

// Done is closed once the goal has an outcome.
func (h *GoalHandle) Done() <-chan struct{} {
	return h.done
}

// Outcome returns the goal's outcome, or false while it is still running.
func (h *GoalHandle) Outcome() (GoalOutcome, bool) {
	select {
	case <-h.done:
		return h.outcome, true
	default:
		return 0, false
	}
}

// Wait blocks until the goal resolves or ctx is done.
func (h *GoalHandle) Wait(ctx context.Context) (GoalOutcome, error) {
	select {
	case <-h.done:
		return h.outcome, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Resolve records the outcome and closes Done. Only the first call has any effect; it reports
// whether this call was that one.
func (h *GoalHandle) Resolve(outcome GoalOutcome) bool {
	resolved := false
	h.resolveOnce.Do(func() {
		h.outcome = outcome
		close(h.done)
		resolved = true
	})
	return resolved
}

// RequestCancel asks the goal's loop to stop at its next tick boundary.
func (h *GoalHandle) RequestCancel() {
	h.cancelOnce.Do(func() { close(h.canceled) })
}

// CancelRequested is closed once cancellation has been requested.
func (h *GoalHandle) CancelRequested() <-chan struct{} {
	return h.canceled
}

func (h *GoalHandle) String() string {
	return fmt.Sprintf("goal %s for robot %d (%s)", h.ID, h.RobotID, motionplan.PlannerNameOf(h.Intent.Command))
}

// RobotStatus is feedback reported by a robot.
type RobotStatus struct {
	RobotID int
	HasBall bool
	Stamp   time.Time
}

// ManipulatorSetpoint is the kicker and dribbler command sent alongside a trajectory.
type ManipulatorSetpoint struct {
	ShootMode     motionplan.ShootMode
	TriggerMode   motionplan.TriggerMode
	KickSpeed     float64
	DribblerSpeed float64
}

// TrajectorySink receives every trajectory a robot is to follow.
type TrajectorySink interface {
	PublishTrajectory(robotID int, traj trajectory.Trajectory)
}

// ManipulatorSink receives every manipulator setpoint.
type ManipulatorSink interface {
	PublishManipulator(robotID int, setpoint ManipulatorSetpoint)
}

// PlanningStats summarizes one robot's recent planning.
type PlanningStats struct {
	Ticks     int
	Fallbacks int
	// Latency is in milliseconds over the most recent ticks.
	Latency utils.WindowSummary
}

// A Service executes goals for our robots. At most one goal runs per robot; submitting a goal
// supersedes the one running for that robot.
type Service interface {
	// Submit starts a goal for robotID, first superseding and waiting out any running goal.
	Submit(ctx context.Context, robotID int, intent motionplan.RobotIntent) (*GoalHandle, error)
	// Cancel asks a goal to stop. It takes effect at the goal's next tick boundary.
	Cancel(handle *GoalHandle)
	// IsExecuting reports whether a goal loop is running for robotID.
	IsExecuting(robotID int) bool
	// PlanHypothetical returns how long intent would take from the robot's current state
	// without affecting any running goal.
	PlanHypothetical(ctx context.Context, robotID int, intent motionplan.RobotIntent) (time.Duration, error)
	// UpdateRobotStatus records robot feedback. It never blocks on planning.
	UpdateRobotStatus(status RobotStatus)
	// Stats returns robotID's planning statistics.
	Stats(robotID int) (PlanningStats, error)
	// Close cancels every goal and waits for the loops to exit.
	Close(ctx context.Context) error
}
