package world

import (
	"fmt"
	"sync"

	"github.com/samber/lo"

	"github.com/rjsoccer/planner/spatialmath"
)

// Holder is the process-wide store of perceived and coach-provided state. A single ingestion
// writer replaces snapshots wholesale; any number of planners read them concurrently. All
// obstacle sets it hands out are in robot-center space: a robot's center must stay out of them.
type Holder struct {
	mu sync.RWMutex

	worldState       *WorldState
	goalieID         int
	playState        PlayState
	coachState       CoachState
	field            FieldDimensions
	staticObstacles  spatialmath.ShapeSet
	globalObstacles  spatialmath.ShapeSet
	defAreaObstacles spatialmath.ShapeSet
}

// NewHolder returns a holder with an empty world on the given field.
func NewHolder(field FieldDimensions) *Holder {
	h := &Holder{
		worldState: NewWorldState(),
		playState:  PlayStateHalt,
		coachState: CoachState{GlobalOverride: DefaultGlobalOverride()},
		field:      field,
	}
	h.defAreaObstacles = field.DefenseAreaObstacles()
	h.globalObstacles = h.computeGlobalObstacles()
	return h
}

// SetWorldState publishes a copy of ws as the current snapshot and recomputes the global obstacles
// from it. The caller may keep mutating ws afterward.
func (h *Holder) SetWorldState(ws *WorldState) {
	snapshot := ws.Clone()
	if snapshot == nil {
		snapshot = NewWorldState()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.worldState = snapshot
	h.globalObstacles = h.computeGlobalObstacles()
}

// WorldState returns the current snapshot. It is shared between readers and must not be modified;
// the next SetWorldState replaces it rather than changing it.
func (h *Holder) WorldState() *WorldState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.worldState
}

// GoalieID returns the shell id of our goalie.
func (h *Holder) GoalieID() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.goalieID
}

// SetGoalieID sets the shell id of our goalie.
func (h *Holder) SetGoalieID(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.goalieID = id
}

// PlayState returns the current play state.
func (h *Holder) PlayState() PlayState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.playState
}

// SetPlayState sets the current play state.
func (h *Holder) SetPlayState(ps PlayState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playState = ps
}

// CoachState returns the current coach state.
func (h *Holder) CoachState() CoachState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.coachState
}

// SetCoachState sets the current coach state.
func (h *Holder) SetCoachState(cs CoachState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.coachState = cs
}

// FieldDimensions returns the current field.
func (h *Holder) FieldDimensions() FieldDimensions {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.field
}

// SetFieldDimensions replaces the field and recomputes the defense area obstacles.
func (h *Holder) SetFieldDimensions(field FieldDimensions) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.field = field
	h.defAreaObstacles = field.DefenseAreaObstacles()
}

// SetStaticObstacles replaces the fixed obstacles, given in field space. They are padded by a
// robot radius and folded into the global obstacles.
func (h *Holder) SetStaticObstacles(obstacles spatialmath.ShapeSet) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.staticObstacles = obstacles.Inflated(RobotRadius)
	h.globalObstacles = h.computeGlobalObstacles()
}

// GlobalObstacles returns the real obstacles: static obstacles plus every visible opponent.
func (h *Holder) GlobalObstacles() spatialmath.ShapeSet {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.globalObstacles.Clone()
}

// DefAreaObstacles returns both defense areas as virtual obstacles.
func (h *Holder) DefAreaObstacles() spatialmath.ShapeSet {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.defAreaObstacles.Clone()
}

// computeGlobalObstacles must be called with mu held for writing.
func (h *Holder) computeGlobalObstacles() spatialmath.ShapeSet {
	opponents := lo.FilterMap(h.worldState.TheirRobots, func(r RobotState, _ int) (spatialmath.Shape, bool) {
		if !r.Visible {
			return nil, false
		}
		return spatialmath.Circle{
			Center: r.Pose.Position,
			Radius: 2 * RobotRadius,
			Name:   fmt.Sprintf("opponent_%d", r.ID),
		}, true
	})
	out := h.staticObstacles.Clone()
	out.Add(opponents...)
	return out
}
