package robotmove

import (
	"sync"

	"github.com/rjsoccer/planner/trajectory"
)

type latchedEntry struct {
	traj      trajectory.Trajectory
	hasTraj   bool
	setpoint  ManipulatorSetpoint
	hasSet    bool
	trajCount int
	setCount  int
}

// LatchedSink is an in-memory TrajectorySink and ManipulatorSink that keeps the last value
// published for each robot and how many were published.
type LatchedSink struct {
	mu      sync.Mutex
	entries map[int]*latchedEntry
}

// NewLatchedSink returns an empty sink.
func NewLatchedSink() *LatchedSink {
	return &LatchedSink{entries: map[int]*latchedEntry{}}
}

func (s *LatchedSink) entry(robotID int) *latchedEntry {
	e, ok := s.entries[robotID]
	if !ok {
		e = &latchedEntry{}
		s.entries[robotID] = e
	}
	return e
}

// PublishTrajectory latches traj for robotID.
func (s *LatchedSink) PublishTrajectory(robotID int, traj trajectory.Trajectory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(robotID)
	e.traj = traj
	e.hasTraj = true
	e.trajCount++
}

// PublishManipulator latches setpoint for robotID.
func (s *LatchedSink) PublishManipulator(robotID int, setpoint ManipulatorSetpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(robotID)
	e.setpoint = setpoint
	e.hasSet = true
	e.setCount++
}

// Trajectory returns the last trajectory published for robotID.
func (s *LatchedSink) Trajectory(robotID int) (trajectory.Trajectory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[robotID]
	if !ok || !e.hasTraj {
		return trajectory.Empty(), false
	}
	return e.traj, true
}

// Manipulator returns the last setpoint published for robotID.
func (s *LatchedSink) Manipulator(robotID int) (ManipulatorSetpoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[robotID]
	if !ok || !e.hasSet {
		return ManipulatorSetpoint{}, false
	}
	return e.setpoint, true
}

// TrajectoryCount is how many trajectories have been published for robotID.
func (s *LatchedSink) TrajectoryCount(robotID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[robotID]; ok {
		return e.trajCount
	}
	return 0
}

// ManipulatorCount is how many setpoints have been published for robotID.
func (s *LatchedSink) ManipulatorCount(robotID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[robotID]; ok {
		return e.setCount
	}
	return 0
}
