package config

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// A Diff is the difference between two configs, left and right, where left is usually old and
// right is new.
type Diff struct {
	Left, Right *Config
	// LiveEqual is false when something that can be applied while running changed: the goalie,
	// the coach override or the field.
	LiveEqual bool
	// RestartRequired is true when the dispatcher's own settings or the log level changed.
	RestartRequired bool
	PrettyDiff      string
}

var ignoreUnexported = cmpopts.IgnoreUnexported(Config{})

// DiffConfigs returns the difference between two validated configs.
func DiffConfigs(left, right *Config) *Diff {
	diff := &Diff{
		Left:       left,
		Right:      right,
		PrettyDiff: cmp.Diff(left, right, ignoreUnexported, cmpopts.IgnoreFields(Config{}, "ConfigFilePath")),
	}
	diff.LiveEqual = left.GoalieID == right.GoalieID &&
		cmp.Equal(left.GlobalOverride, right.GlobalOverride) &&
		cmp.Equal(left.Field, right.Field)
	diff.RestartRequired = left.Debug != right.Debug ||
		!cmp.Equal(left.DispatcherConfig(), right.DispatcherConfig(), cmpopts.EquateEmpty())
	return diff
}

// Equal reports whether the configs are the same in every setting.
func (diff *Diff) Equal() bool {
	return diff.PrettyDiff == ""
}

func (diff *Diff) String() string {
	return diff.PrettyDiff
}
