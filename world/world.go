// Package world holds the latest perceived state of the field and the process-wide Holder that
// shares it between the ingestion writer and the per-robot planners.
package world

import (
	"time"

	"github.com/golang/geo/r2"

	"github.com/rjsoccer/planner/spatialmath"
)

const (
	// NumShells is the number of robot shell ids per team.
	NumShells = 16
	// RobotRadius is the radius of a robot in meters.
	RobotRadius = 0.09
	// BallRadius is the radius of the ball in meters.
	BallRadius = 0.0215
)

// RobotState is the perceived state of one robot.
type RobotState struct {
	ID        int
	Pose      spatialmath.Pose
	Velocity  spatialmath.Twist
	Visible   bool
	Timestamp time.Time
}

// BallState is the perceived state of the ball.
type BallState struct {
	Position  r2.Point
	Velocity  r2.Point
	Visible   bool
	Timestamp time.Time
}

// PredictAt returns where the ball will be after d assuming constant velocity.
func (b BallState) PredictAt(d time.Duration) r2.Point {
	return b.Position.Add(b.Velocity.Mul(d.Seconds()))
}

// Speed returns the magnitude of the ball's velocity.
func (b BallState) Speed() float64 {
	return b.Velocity.Norm()
}

// WorldState is one consistent snapshot of everything perceived on the field. OurRobots and
// TheirRobots are indexed by shell id.
type WorldState struct {
	OurRobots   []RobotState
	TheirRobots []RobotState
	Ball        BallState
	LastUpdated time.Time
}

// NewWorldState returns a snapshot with NumShells invisible robots per team.
func NewWorldState() *WorldState {
	ws := &WorldState{
		OurRobots:   make([]RobotState, NumShells),
		TheirRobots: make([]RobotState, NumShells),
	}
	for i := 0; i < NumShells; i++ {
		ws.OurRobots[i].ID = i
		ws.TheirRobots[i].ID = i
	}
	return ws
}

// Clone returns a deep copy of the snapshot.
func (ws *WorldState) Clone() *WorldState {
	if ws == nil {
		return nil
	}
	out := *ws
	out.OurRobots = append([]RobotState(nil), ws.OurRobots...)
	out.TheirRobots = append([]RobotState(nil), ws.TheirRobots...)
	return &out
}

// OurRobot returns the state of our robot with the given shell id.
func (ws *WorldState) OurRobot(id int) (RobotState, bool) {
	if ws == nil || id < 0 || id >= len(ws.OurRobots) {
		return RobotState{}, false
	}
	return ws.OurRobots[id], true
}

// VisibleOpponents returns the opponents currently seen.
func (ws *WorldState) VisibleOpponents() []RobotState {
	if ws == nil {
		return nil
	}
	var out []RobotState
	for _, r := range ws.TheirRobots {
		if r.Visible {
			out = append(out, r)
		}
	}
	return out
}
