package motionplan

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/rjsoccer/planner/trajectory"
)

var (
	// ErrUnknownStrategy is matched by errors for commands that name no registered strategy.
	ErrUnknownStrategy = errors.New("unknown path planning strategy")
	// ErrPlanningFailed is matched by every error a strategy reports, or that is raised against
	// the trajectory it returned.
	ErrPlanningFailed = errors.New("path planning failed")
)

// PlanningError is a failure attributed to one strategy.
type PlanningError struct {
	Planner string
	Cause   error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("planner %q failed: %v", e.Planner, e.Cause)
}

// Is lets errors.Is(err, ErrPlanningFailed) match.
func (e *PlanningError) Is(target error) bool {
	return target == ErrPlanningFailed
}

// Unwrap returns the underlying cause.
func (e *PlanningError) Unwrap() error {
	return e.Cause
}

// NewUnknownStrategyError is returned when no strategy with the given name is registered.
func NewUnknownStrategyError(name string) error {
	return errors.Wrapf(ErrUnknownStrategy, "%q", name)
}

// NewPlannerFailedError attributes cause to the named strategy.
func NewPlannerFailedError(name string, cause error) error {
	return &PlanningError{Planner: name, Cause: cause}
}

// NewEmptyTrajectoryError is returned when a strategy produced no instants.
func NewEmptyTrajectoryError(name string) error {
	return NewPlannerFailedError(name, trajectory.ErrEmpty)
}

// NewNoAngleProfileError is returned when a strategy never assigned headings.
func NewNoAngleProfileError(name string) error {
	return NewPlannerFailedError(name, trajectory.ErrNoAngleProfile)
}

// NewNoTimestampError is returned when a strategy never stamped its trajectory.
func NewNoTimestampError(name string) error {
	return NewPlannerFailedError(name, trajectory.ErrNoTimestamp)
}

// NewNoPathError is returned when no collision-free path to the goal exists.
func NewNoPathError(name string) error {
	return NewPlannerFailedError(name, errors.New("no collision-free path found"))
}

// IsStrategyFailure reports whether err is one the per-robot planner recovers from by falling
// back to the escape strategy.
func IsStrategyFailure(err error) bool {
	return errors.Is(err, ErrUnknownStrategy) || errors.Is(err, ErrPlanningFailed)
}
