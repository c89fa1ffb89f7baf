package world

import "fmt"

// PlayState is the referee-driven state of the game.
type PlayState int

// The set of play states.
const (
	PlayStateHalt PlayState = iota
	PlayStateStop
	PlayStateSetup
	PlayStateReady
	PlayStatePlaying
	PlayStatePenalty
)

func (ps PlayState) String() string {
	switch ps {
	case PlayStateHalt:
		return "halt"
	case PlayStateStop:
		return "stop"
	case PlayStateSetup:
		return "setup"
	case PlayStateReady:
		return "ready"
	case PlayStatePlaying:
		return "playing"
	case PlayStatePenalty:
		return "penalty"
	default:
		return fmt.Sprintf("PlayState(%d)", int(ps))
	}
}

// MatchSituation is the coach's read of the game.
type MatchSituation int

// The set of match situations.
const (
	MatchSituationGameplay MatchSituation = iota
	MatchSituationKickoff
	MatchSituationFreeKick
	MatchSituationPenalty
	MatchSituationStop
	MatchSituationHalt
)

// GlobalOverride holds team-wide limits set by the coach.
//
// MaxSpeed is in m/s: 0 forces every robot to halt, a negative value lifts the limit, and a
// positive value caps the translational speed.
type GlobalOverride struct {
	MaxSpeed         float64 `json:"max_speed"`
	MaxDribblerSpeed float64 `json:"max_dribbler_speed"`
	MinDistFromBall  float64 `json:"min_dist_from_ball"`
}

// DefaultGlobalOverride imposes no limits.
func DefaultGlobalOverride() GlobalOverride {
	return GlobalOverride{MaxSpeed: -1, MaxDribblerSpeed: 1}
}

// CoachState is the coach's team-wide state.
type CoachState struct {
	MatchSituation MatchSituation
	OurPossession  bool
	GlobalOverride GlobalOverride
}
