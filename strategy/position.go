// Package strategy turns the world into robot intents.
package strategy

import (
	"github.com/rjsoccer/planner/motionplan"
	"github.com/rjsoccer/planner/world"
)

// A Position decides what one robot should do next.
type Position interface {
	// RobotID is the shell id the position drives.
	RobotID() int
	// GetTask returns a complete intent for the given world. A nil world yields an intent with an
	// empty command.
	GetTask(ws *world.WorldState) motionplan.RobotIntent
}

// newIntent starts an intent for robotID.
func newIntent(robotID int) motionplan.RobotIntent {
	return motionplan.RobotIntent{RobotID: robotID, IsActive: true}
}
