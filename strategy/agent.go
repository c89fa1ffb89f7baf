package strategy

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/rjsoccer/planner/logging"
	"github.com/rjsoccer/planner/motionplan"
	"github.com/rjsoccer/planner/services/robotmove"
	"github.com/rjsoccer/planner/utils"
	"github.com/rjsoccer/planner/world"
)

// DefaultAgentRateHz is how often an agent asks its position for a task.
const DefaultAgentRateHz = 60

// Agent drives one robot: every tick it asks its position for a task and hands the task to the
// robot move service when the kind of command changes or the previous goal has ended.
type Agent struct {
	position Position
	holder   *world.Holder
	service  robotmove.Service
	period   time.Duration
	clk      clock.Clock
	logger   logging.Logger

	mu     sync.Mutex
	kind   string
	handle *robotmove.GoalHandle

	workers utils.StoppableWorkers
}

// NewAgent returns an agent ticking position at rateHz. It does nothing until Start.
func NewAgent(
	position Position,
	holder *world.Holder,
	service robotmove.Service,
	rateHz float64,
	clk clock.Clock,
	logger logging.Logger,
) (*Agent, error) {
	if position == nil || holder == nil || service == nil {
		return nil, errors.New("agent needs a position, a world holder and a robot move service")
	}
	if rateHz <= 0 {
		return nil, errors.Errorf("agent rate must be positive, got %v", rateHz)
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Agent{
		position: position,
		holder:   holder,
		service:  service,
		period:   time.Duration(float64(time.Second) / rateHz),
		clk:      clk,
		logger:   logger,
	}, nil
}

// Tick asks the position for a task once and submits it if warranted.
func (a *Agent) Tick(ctx context.Context) error {
	intent := a.position.GetTask(a.holder.WorldState())
	kind := motionplan.PlannerNameOf(intent.Command)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.handle != nil && kind == a.kind {
		if _, resolved := a.handle.Outcome(); !resolved {
			return nil
		}
	}
	handle, err := a.service.Submit(ctx, a.position.RobotID(), intent)
	if err != nil {
		return err
	}
	if kind != a.kind {
		a.logger.CDebugw(ctx, "switching command", "robot", a.position.RobotID(), "from", a.kind, "to", kind)
	}
	a.kind, a.handle = kind, handle
	return nil
}

// Handle returns the most recently submitted goal, if any.
func (a *Agent) Handle() *robotmove.GoalHandle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handle
}

// Start runs the agent's loop in the background until Close.
func (a *Agent) Start() {
	a.workers = utils.NewStoppableWorkers(a.run)
}

func (a *Agent) run(ctx context.Context) {
	ticker := a.clk.Ticker(a.period)
	defer ticker.Stop()
	for {
		if err := a.Tick(ctx); err != nil {
			if errors.Is(err, robotmove.ErrDispatcherClosed) || ctx.Err() != nil {
				return
			}
			a.logger.CWarnw(ctx, "submitting task failed", "robot", a.position.RobotID(), "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Close stops the loop and cancels the goal the agent last submitted.
func (a *Agent) Close() {
	if a.workers != nil {
		a.workers.Stop()
	}
	if handle := a.Handle(); handle != nil {
		a.service.Cancel(handle)
	}
}
