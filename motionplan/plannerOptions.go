package motionplan

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/rjsoccer/planner/utils"
)

// default values for planner tuning.
const (
	// distance from the goal, in m, under which a target counts as reached.
	defaultGoalTolerance = 0.05

	// sampling interval of produced trajectories.
	defaultTimeStep = 50 * time.Millisecond

	// distance the goalie keeps from the center of the goal line while idling, in m.
	defaultIdleRadius = 0.5

	// distance kept from the pivot point while pivoting, in m.
	defaultPivotRadius = 0.15

	// heading error, in rad, under which a pivot is done.
	defaultHeadingTolerance = 0.05

	// ball speed, in m/s, under which the ball counts as stopped.
	defaultMinBallSpeed = 0.3

	// speed, in m/s, under which a robot counts as stopped.
	stoppedSpeed = 0.1

	// ball speed, in m/s, above which a ball that was in the dribbler counts as kicked.
	kickedBallSpeed = 1.0
)

// PlannerConfig tunes one strategy. Zero fields take their defaults.
type PlannerConfig struct {
	GoalTolerance    float64       `json:"goal_tolerance"`
	TimeStep         time.Duration `json:"time_step"`
	IdleRadius       float64       `json:"idle_radius"`
	PivotRadius      float64       `json:"pivot_radius"`
	HeadingTolerance float64       `json:"heading_tolerance"`
	MinBallSpeed     float64       `json:"min_ball_speed"`
}

// DefaultPlannerConfig returns the default tuning shared by all strategies.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		GoalTolerance:    defaultGoalTolerance,
		TimeStep:         defaultTimeStep,
		IdleRadius:       defaultIdleRadius,
		PivotRadius:      defaultPivotRadius,
		HeadingTolerance: defaultHeadingTolerance,
		MinBallSpeed:     defaultMinBallSpeed,
	}
}

func (pc PlannerConfig) withDefaults() PlannerConfig {
	def := DefaultPlannerConfig()
	if pc.GoalTolerance == 0 {
		pc.GoalTolerance = def.GoalTolerance
	}
	if pc.TimeStep == 0 {
		pc.TimeStep = def.TimeStep
	}
	if pc.IdleRadius == 0 {
		pc.IdleRadius = def.IdleRadius
	}
	if pc.PivotRadius == 0 {
		pc.PivotRadius = def.PivotRadius
	}
	if pc.HeadingTolerance == 0 {
		pc.HeadingTolerance = def.HeadingTolerance
	}
	if pc.MinBallSpeed == 0 {
		pc.MinBallSpeed = def.MinBallSpeed
	}
	return pc
}

// Validate ensures all parts of the config are valid.
func (pc PlannerConfig) Validate() error {
	var errs error
	for name, v := range map[string]float64{
		"goal_tolerance":    pc.GoalTolerance,
		"idle_radius":       pc.IdleRadius,
		"pivot_radius":      pc.PivotRadius,
		"heading_tolerance": pc.HeadingTolerance,
		"min_ball_speed":    pc.MinBallSpeed,
	} {
		if v < 0 || math.IsNaN(v) {
			errs = multierr.Append(errs, errors.Errorf("%s must not be negative, got %v", name, v))
		}
	}
	if pc.TimeStep < 0 {
		errs = multierr.Append(errs, errors.Errorf("time_step must not be negative, got %v", pc.TimeStep))
	}
	return errs
}

// PlannerConfigs holds per-strategy tuning keyed by strategy name.
type PlannerConfigs map[string]PlannerConfig

// For returns the tuning for the named strategy with defaults filled in.
func (pcs PlannerConfigs) For(name string) PlannerConfig {
	return pcs[name].withDefaults()
}

// StrategyNames lists every built-in strategy.
func StrategyNames() []string {
	return []string{
		GoalieIdleName,
		InterceptName,
		PathTargetName,
		SettleName,
		CollectName,
		LineKickName,
		PivotName,
		EscapeObstaclesName,
	}
}

// NewPlannerConfigs decodes per-strategy attribute maps, as read from configuration.
func NewPlannerConfigs(attrs map[string]utils.AttributeMap) (PlannerConfigs, error) {
	out := PlannerConfigs{}
	var errs error
	for name, am := range attrs {
		if !lo.Contains(StrategyNames(), name) {
			errs = multierr.Append(errs, NewUnknownStrategyError(name))
			continue
		}
		pc, err := utils.TransformAttributeMap[PlannerConfig](am)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "planner %q", name))
			continue
		}
		if err := pc.Validate(); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "planner %q", name))
			continue
		}
		out[name] = pc
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}
