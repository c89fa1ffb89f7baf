// Package motionplan turns a robot's motion command into a time-parameterized trajectory. It
// holds the command and request types, the PathPlanner contract, a registry of named strategies
// and the strategies themselves.
package motionplan

import (
	"context"

	"github.com/rjsoccer/planner/trajectory"
	"github.com/rjsoccer/planner/utils"
)

// PathPlanner is one named planning strategy. Instances keep state between ticks (a committed
// path, whether the ball has been seen) and are owned by a single robot's execution loop.
type PathPlanner interface {
	// Name is the strategy name commands resolve to.
	Name() string
	// Plan returns a trajectory for the request. Failure is an error or an empty trajectory.
	Plan(ctx context.Context, req PlanRequest) (trajectory.Trajectory, error)
	// IsDone reports whether the most recent plan has achieved its command.
	IsDone() bool
	// Reset clears any state committed by earlier plans.
	Reset()
}

// commandAs extracts the command the planner serves from req.
func commandAs[T MotionCommand](name string, req PlanRequest) (T, error) {
	cmd, ok := req.Command.(T)
	if !ok {
		var zero T
		return zero, NewPlannerFailedError(name, utils.NewUnexpectedTypeError[T](req.Command))
	}
	return cmd, nil
}

// checkContext fails a plan early if the tick was abandoned.
func checkContext(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return NewPlannerFailedError(name, err)
	}
	return nil
}
