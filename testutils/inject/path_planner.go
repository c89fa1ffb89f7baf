// Package inject provides fakes whose behavior is injected per test.
package inject

import (
	"context"

	"go.uber.org/atomic"

	"github.com/rjsoccer/planner/motionplan"
	"github.com/rjsoccer/planner/trajectory"
)

// PathPlanner is a fake strategy. Unset funcs fall through to the embedded planner, or to a
// harmless default when there is none. Calls are counted.
type PathPlanner struct {
	motionplan.PathPlanner
	name       string
	PlanFunc   func(ctx context.Context, req motionplan.PlanRequest) (trajectory.Trajectory, error)
	IsDoneFunc func() bool
	ResetFunc  func()

	planCalls  atomic.Int64
	resetCalls atomic.Int64
}

// NewPathPlanner returns a new injected strategy with the given name.
func NewPathPlanner(name string) *PathPlanner {
	return &PathPlanner{name: name}
}

// Name returns the strategy name.
func (p *PathPlanner) Name() string {
	return p.name
}

// Plan calls the injected Plan or the real variant.
func (p *PathPlanner) Plan(ctx context.Context, req motionplan.PlanRequest) (trajectory.Trajectory, error) {
	p.planCalls.Inc()
	if p.PlanFunc == nil {
		if p.PathPlanner == nil {
			return trajectory.Empty(), nil
		}
		return p.PathPlanner.Plan(ctx, req)
	}
	return p.PlanFunc(ctx, req)
}

// IsDone calls the injected IsDone or the real variant.
func (p *PathPlanner) IsDone() bool {
	if p.IsDoneFunc == nil {
		if p.PathPlanner == nil {
			return false
		}
		return p.PathPlanner.IsDone()
	}
	return p.IsDoneFunc()
}

// Reset calls the injected Reset or the real variant.
func (p *PathPlanner) Reset() {
	p.resetCalls.Inc()
	if p.ResetFunc == nil {
		if p.PathPlanner != nil {
			p.PathPlanner.Reset()
		}
		return
	}
	p.ResetFunc()
}

// PlanCalls is how many times Plan has been called.
func (p *PathPlanner) PlanCalls() int {
	return int(p.planCalls.Load())
}

// ResetCalls is how many times Reset has been called.
func (p *PathPlanner) ResetCalls() int {
	return int(p.resetCalls.Load())
}
