package motionplan

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// MotionConstraints bound translational motion, in m/s and m/s².
type MotionConstraints struct {
	MaxSpeed float64 `json:"max_speed"`
	MaxAccel float64 `json:"max_accel"`
}

// RotationConstraints bound rotational motion, in rad/s and rad/s².
type RotationConstraints struct {
	MaxSpeed float64 `json:"max_speed"`
	MaxAccel float64 `json:"max_accel"`
}

// RobotConstraints are the kinematic limits a trajectory must respect.
type RobotConstraints struct {
	Mot MotionConstraints   `json:"motion"`
	Rot RotationConstraints `json:"rotation"`
}

// DefaultRobotConstraints returns limits suited to a typical small-size robot.
func DefaultRobotConstraints() RobotConstraints {
	return RobotConstraints{
		Mot: MotionConstraints{MaxSpeed: 2.0, MaxAccel: 2.5},
		Rot: RotationConstraints{MaxSpeed: 6.0, MaxAccel: 12.0},
	}
}

// Validate ensures every limit is positive.
func (rc RobotConstraints) Validate() error {
	var errs error
	if rc.Mot.MaxSpeed <= 0 {
		errs = multierr.Append(errs, errors.Errorf("motion max_speed must be positive, got %v", rc.Mot.MaxSpeed))
	}
	if rc.Mot.MaxAccel <= 0 {
		errs = multierr.Append(errs, errors.Errorf("motion max_accel must be positive, got %v", rc.Mot.MaxAccel))
	}
	if rc.Rot.MaxSpeed <= 0 {
		errs = multierr.Append(errs, errors.Errorf("rotation max_speed must be positive, got %v", rc.Rot.MaxSpeed))
	}
	if rc.Rot.MaxAccel <= 0 {
		errs = multierr.Append(errs, errors.Errorf("rotation max_accel must be positive, got %v", rc.Rot.MaxAccel))
	}
	return errs
}
