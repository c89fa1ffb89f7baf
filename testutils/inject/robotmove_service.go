package inject

import (
	"context"
	"sync"
	"time"

	"github.com/rjsoccer/planner/motionplan"
	"github.com/rjsoccer/planner/services/robotmove"
)

// RobotMoveService is an injected robot move service. Submissions are recorded.
type RobotMoveService struct {
	robotmove.Service
	SubmitFunc func(ctx context.Context, robotID int, intent motionplan.RobotIntent) (*robotmove.GoalHandle, error)
	CancelFunc func(handle *robotmove.GoalHandle)
	CloseFunc  func(ctx context.Context) error

	mu        sync.Mutex
	submitted []*robotmove.GoalHandle
}

// NewRobotMoveService returns a new injected robot move service.
func NewRobotMoveService() *RobotMoveService {
	return &RobotMoveService{}
}

// Submit calls the injected Submit, or returns a fresh unresolved handle.
func (s *RobotMoveService) Submit(ctx context.Context, robotID int, intent motionplan.RobotIntent) (*robotmove.GoalHandle, error) {
	var (
		handle *robotmove.GoalHandle
		err    error
	)
	switch {
	case s.SubmitFunc != nil:
		handle, err = s.SubmitFunc(ctx, robotID, intent)
	case s.Service != nil:
		handle, err = s.Service.Submit(ctx, robotID, intent)
	default:
		handle = robotmove.NewGoalHandle(robotID, intent)
	}
	if err == nil {
		s.mu.Lock()
		s.submitted = append(s.submitted, handle)
		s.mu.Unlock()
	}
	return handle, err
}

// Cancel calls the injected Cancel or the real variant.
func (s *RobotMoveService) Cancel(handle *robotmove.GoalHandle) {
	if s.CancelFunc == nil {
		if s.Service != nil {
			s.Service.Cancel(handle)
			return
		}
		if handle != nil {
			handle.RequestCancel()
		}
		return
	}
	s.CancelFunc(handle)
}

// IsExecuting calls the real variant, or reports whether the last submission is unresolved.
func (s *RobotMoveService) IsExecuting(robotID int) bool {
	if s.Service != nil {
		return s.Service.IsExecuting(robotID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.submitted) - 1; i >= 0; i-- {
		if s.submitted[i].RobotID == robotID {
			_, resolved := s.submitted[i].Outcome()
			return !resolved
		}
	}
	return false
}

// PlanHypothetical calls the real variant, or returns zero.
func (s *RobotMoveService) PlanHypothetical(ctx context.Context, robotID int, intent motionplan.RobotIntent) (time.Duration, error) {
	if s.Service == nil {
		return 0, nil
	}
	return s.Service.PlanHypothetical(ctx, robotID, intent)
}

// UpdateRobotStatus calls the real variant if there is one.
func (s *RobotMoveService) UpdateRobotStatus(status robotmove.RobotStatus) {
	if s.Service != nil {
		s.Service.UpdateRobotStatus(status)
	}
}

// Close calls the injected Close or the real variant.
func (s *RobotMoveService) Close(ctx context.Context) error {
	if s.CloseFunc == nil {
		if s.Service == nil {
			return nil
		}
		return s.Service.Close(ctx)
	}
	return s.CloseFunc(ctx)
}

// Submitted returns every goal handed out, oldest first.
func (s *RobotMoveService) Submitted() []*robotmove.GoalHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*robotmove.GoalHandle(nil), s.submitted...)
}
