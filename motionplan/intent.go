package motionplan

import (
	"fmt"

	"github.com/rjsoccer/planner/spatialmath"
)

// ShootMode selects the kicker.
type ShootMode int

// The set of shoot modes.
const (
	ShootModeKick ShootMode = iota
	ShootModeChip
)

func (m ShootMode) String() string {
	if m == ShootModeChip {
		return "chip"
	}
	return "kick"
}

// TriggerMode selects when the kicker fires.
type TriggerMode int

// The set of trigger modes.
const (
	TriggerModeStandDown TriggerMode = iota
	TriggerModeImmediate
	TriggerModeOnBreakBeam
)

func (m TriggerMode) String() string {
	switch m {
	case TriggerModeStandDown:
		return "stand_down"
	case TriggerModeImmediate:
		return "immediate"
	case TriggerModeOnBreakBeam:
		return "on_break_beam"
	default:
		return fmt.Sprintf("TriggerMode(%d)", int(m))
	}
}

// RobotIntent is a complete request for what one robot should do. Intents are built whole by the
// strategy layer and never modified after submission.
type RobotIntent struct {
	RobotID       int
	Command       MotionCommand
	ShootMode     ShootMode
	TriggerMode   TriggerMode
	KickSpeed     float64
	DribblerSpeed float64
	// Priority orders robots for peer avoidance: lower priority robots avoid higher ones.
	Priority       int
	LocalObstacles spatialmath.ShapeSet
	IsActive       bool
}

func (ri RobotIntent) String() string {
	return fmt.Sprintf("RobotIntent{robot: %d, command: %s, priority: %d}",
		ri.RobotID, PlannerNameOf(ri.Command), ri.Priority)
}
