package strategy

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/rjsoccer/planner/motionplan"
	"github.com/rjsoccer/planner/utils"
	"github.com/rjsoccer/planner/world"
)

const (
	// DefaultMinShotSpeed is the slowest ball speed, in m/s, treated as a shot.
	DefaultMinShotSpeed = 0.3
	// goalMouthMargin widens the goal, in m, when deciding whether a ball is on target.
	goalMouthMargin = 0.1
	// goaliePriority puts the goalie ahead of field players for peer avoidance.
	goaliePriority = 10
)

// Goalie blocks shots on our goal and otherwise guards it from its idle position.
type Goalie struct {
	id           int
	field        world.FieldDimensions
	MinShotSpeed float64
}

var _ Position = (*Goalie)(nil)

// NewGoalie returns a goalie for robot id on field.
func NewGoalie(id int, field world.FieldDimensions) *Goalie {
	return &Goalie{id: id, field: field, MinShotSpeed: DefaultMinShotSpeed}
}

// RobotID returns the goalie's shell id.
func (g *Goalie) RobotID() int {
	return g.id
}

// GetTask intercepts a shot on goal if there is one, and idles otherwise.
func (g *Goalie) GetTask(ws *world.WorldState) motionplan.RobotIntent {
	intent := newIntent(g.id)
	intent.Priority = goaliePriority
	if ws == nil {
		intent.Command = motionplan.EmptyCommand{}
		return intent
	}
	if crossing, ok := g.ShotOnGoalDetected(ws); ok {
		intent.Command = motionplan.InterceptCommand{Target: crossing}
		return intent
	}
	intent.Command = motionplan.GoalieIdleCommand{}
	return intent
}

// ShotOnGoalDetected reports whether the ball is moving fast enough toward our goal line to cross
// it inside the goal mouth, and where it will cross, clamped to the mouth.
func (g *Goalie) ShotOnGoalDetected(ws *world.WorldState) (r2.Point, bool) {
	if ws == nil || !ws.Ball.Visible {
		return r2.Point{}, false
	}
	ball := ws.Ball
	goal := g.field.OurGoalCenter()
	if ball.Speed() < g.MinShotSpeed || ball.Velocity.Y >= 0 || ball.Position.Y <= goal.Y {
		return r2.Point{}, false
	}
	t := (goal.Y - ball.Position.Y) / ball.Velocity.Y
	x := ball.Position.X + ball.Velocity.X*t
	half := g.field.GoalWidth / 2
	if math.Abs(x-goal.X) > half+goalMouthMargin {
		return r2.Point{}, false
	}
	return r2.Point{X: utils.Clamp(x, goal.X-half, goal.X+half), Y: goal.Y}, true
}
