package motionplan

import (
	"github.com/golang/geo/r2"
)

// Names of the path planning strategies. A MotionCommand names the strategy that serves it.
const (
	GoalieIdleName      = "goalie_idle"
	InterceptName       = "intercept"
	PathTargetName      = "path_target"
	SettleName          = "settle"
	CollectName         = "collect"
	LineKickName        = "line_kick"
	PivotName           = "pivot"
	EscapeObstaclesName = "escape_obstacles"
)

// MotionCommand is what a robot should do with its body. The set of commands is closed; each one
// resolves to exactly one strategy by name.
type MotionCommand interface {
	PlannerName() string
	isMotionCommand()
}

// LinearMotionInstant is a target position and the velocity to have when reaching it.
type LinearMotionInstant struct {
	Position r2.Point
	Velocity r2.Point
}

// FaceOption chooses where a robot looks while following a PathTargetCommand. A nil FaceOption
// faces the direction of travel.
type FaceOption interface {
	isFaceOption()
}

// FacePointOption faces a fixed point.
type FacePointOption struct {
	Point r2.Point
}

// FaceAngleOption holds a fixed heading.
type FaceAngleOption struct {
	Angle float64
}

// FaceBallOption faces the ball.
type FaceBallOption struct{}

func (FacePointOption) isFaceOption() {}
func (FaceAngleOption) isFaceOption() {}
func (FaceBallOption) isFaceOption()  {}

// EmptyCommand halts the robot where it is, stepping out of any obstacle it is in.
type EmptyCommand struct{}

// PathTargetCommand drives to a target while avoiding obstacles.
type PathTargetCommand struct {
	Target     LinearMotionInstant
	Face       FaceOption
	IgnoreBall bool
}

// InterceptCommand moves onto the ball's path, as close to Target as possible.
type InterceptCommand struct {
	Target r2.Point
}

// GoalieIdleCommand keeps the goalie between the ball and the goal.
type GoalieIdleCommand struct{}

// SettleCommand receives a moving ball and brings it to rest. If Target is set the robot tries to
// meet the ball there.
type SettleCommand struct {
	Target *r2.Point
}

// CollectCommand gathers a slow or stationary ball with the dribbler.
type CollectCommand struct{}

// LineKickCommand kicks the ball in a straight line toward Target.
type LineKickCommand struct {
	Target r2.Point
}

// PivotCommand rotates around PivotPoint until facing PivotTarget.
type PivotCommand struct {
	PivotPoint  r2.Point
	PivotTarget r2.Point
}

// PlannerName implements MotionCommand.
func (EmptyCommand) PlannerName() string { return EscapeObstaclesName }

// PlannerName implements MotionCommand.
func (PathTargetCommand) PlannerName() string { return PathTargetName }

// PlannerName implements MotionCommand.
func (InterceptCommand) PlannerName() string { return InterceptName }

// PlannerName implements MotionCommand.
func (GoalieIdleCommand) PlannerName() string { return GoalieIdleName }

// PlannerName implements MotionCommand.
func (SettleCommand) PlannerName() string { return SettleName }

// PlannerName implements MotionCommand.
func (CollectCommand) PlannerName() string { return CollectName }

// PlannerName implements MotionCommand.
func (LineKickCommand) PlannerName() string { return LineKickName }

// PlannerName implements MotionCommand.
func (PivotCommand) PlannerName() string { return PivotName }

func (EmptyCommand) isMotionCommand()      {}
func (PathTargetCommand) isMotionCommand() {}
func (InterceptCommand) isMotionCommand()  {}
func (GoalieIdleCommand) isMotionCommand() {}
func (SettleCommand) isMotionCommand()     {}
func (CollectCommand) isMotionCommand()    {}
func (LineKickCommand) isMotionCommand()   {}
func (PivotCommand) isMotionCommand()      {}

// PlannerNameOf returns the strategy name for cmd, treating nil as EmptyCommand.
func PlannerNameOf(cmd MotionCommand) string {
	if cmd == nil {
		return EmptyCommand{}.PlannerName()
	}
	return cmd.PlannerName()
}
