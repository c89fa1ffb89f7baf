// Package config defines the planner's configuration file and how it is read and watched.
package config

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/rjsoccer/planner/motionplan"
	"github.com/rjsoccer/planner/services/robotmove/builtin"
	"github.com/rjsoccer/planner/utils"
	"github.com/rjsoccer/planner/world"
)

// Config is the planner's configuration, as read from JSON. Omitted sections take their defaults
// during Validate.
type Config struct {
	NumRobots      int                           `json:"num_robots,omitempty"`
	TickRateHz     float64                       `json:"tick_rate_hz,omitempty"`
	RobotTimeout   string                        `json:"robot_timeout,omitempty"`
	GoalieID       int                           `json:"goalie_id"`
	Constraints    *motionplan.RobotConstraints  `json:"constraints,omitempty"`
	GlobalOverride *world.GlobalOverride         `json:"global_override,omitempty"`
	Field          *world.FieldDimensions        `json:"field,omitempty"`
	Planners       map[string]utils.AttributeMap `json:"planners,omitempty"`
	Debug          bool                          `json:"debug,omitempty"`

	ConfigFilePath string `json:"-"`

	robotTimeout time.Duration
	planners     motionplan.PlannerConfigs
}

// Validate fills in defaults and ensures the config is usable. Every problem found is reported.
func (c *Config) Validate() error {
	if c.NumRobots == 0 {
		c.NumRobots = world.NumShells
	}
	if c.TickRateHz == 0 {
		c.TickRateHz = builtin.DefaultConfig().TickRateHz
	}
	if c.RobotTimeout == "" {
		c.RobotTimeout = builtin.DefaultConfig().RobotTimeout.String()
	}
	if c.Constraints == nil {
		constraints := motionplan.DefaultRobotConstraints()
		c.Constraints = &constraints
	}
	if c.GlobalOverride == nil {
		override := world.DefaultGlobalOverride()
		c.GlobalOverride = &override
	}
	if c.Field == nil {
		field := world.DefaultFieldDimensions()
		c.Field = &field
	}

	var errs error
	timeout, err := time.ParseDuration(c.RobotTimeout)
	if err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "robot_timeout"))
	}
	c.robotTimeout = timeout
	if c.GoalieID < 0 || c.GoalieID >= c.NumRobots {
		errs = multierr.Append(errs, errors.Errorf("goalie_id must be in [0, %d), got %d", c.NumRobots, c.GoalieID))
	}
	if c.GlobalOverride.MaxDribblerSpeed < 0 {
		errs = multierr.Append(errs, errors.Errorf(
			"global_override max_dribbler_speed must not be negative, got %v", c.GlobalOverride.MaxDribblerSpeed))
	}
	if err := c.Field.Validate(); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "field"))
	}
	planners, err := motionplan.NewPlannerConfigs(c.Planners)
	if err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "planners"))
	}
	c.planners = planners
	if err := c.DispatcherConfig().Validate(); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

// DispatcherConfig is the robot move dispatcher's share of a validated config.
func (c *Config) DispatcherConfig() builtin.Config {
	cfg := builtin.Config{
		NumRobots:    c.NumRobots,
		TickRateHz:   c.TickRateHz,
		RobotTimeout: c.robotTimeout,
		Planners:     c.planners,
	}
	if c.Constraints != nil {
		cfg.Constraints = *c.Constraints
	}
	return cfg
}

// CoachState is the coach state to publish for a validated config.
func (c *Config) CoachState() world.CoachState {
	cs := world.CoachState{GlobalOverride: world.DefaultGlobalOverride()}
	if c.GlobalOverride != nil {
		cs.GlobalOverride = *c.GlobalOverride
	}
	return cs
}

// FieldDimensions returns the configured field.
func (c *Config) FieldDimensions() world.FieldDimensions {
	if c.Field == nil {
		return world.DefaultFieldDimensions()
	}
	return *c.Field
}
