package world

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/rjsoccer/planner/spatialmath"
)

// FieldDimensions describes the playing field in meters. Our goal sits at the origin and the field
// extends toward +y; x spans [-Width/2, Width/2].
type FieldDimensions struct {
	Length           float64 `json:"length"`
	Width            float64 `json:"width"`
	Border           float64 `json:"border"`
	GoalWidth        float64 `json:"goal_width"`
	GoalDepth        float64 `json:"goal_depth"`
	PenaltyLongDist  float64 `json:"penalty_long_dist"`
	PenaltyShortDist float64 `json:"penalty_short_dist"`
}

// DefaultFieldDimensions returns the division B field.
func DefaultFieldDimensions() FieldDimensions {
	return FieldDimensions{
		Length:           9,
		Width:            6,
		Border:           0.3,
		GoalWidth:        1,
		GoalDepth:        0.18,
		PenaltyLongDist:  2,
		PenaltyShortDist: 1,
	}
}

// Validate ensures all parts of the dimensions are valid.
func (f FieldDimensions) Validate() error {
	var errs error
	if f.Length <= 0 || f.Width <= 0 {
		errs = multierr.Append(errs, errors.Errorf("field must have positive length and width, got %vx%v", f.Length, f.Width))
	}
	if f.GoalWidth <= 0 || f.GoalWidth > f.Width {
		errs = multierr.Append(errs, errors.Errorf("goal width %v must be in (0, width]", f.GoalWidth))
	}
	if f.PenaltyLongDist <= 0 || f.PenaltyLongDist > f.Width {
		errs = multierr.Append(errs, errors.Errorf("penalty long dist %v must be in (0, width]", f.PenaltyLongDist))
	}
	if f.PenaltyShortDist <= 0 || 2*f.PenaltyShortDist > f.Length {
		errs = multierr.Append(errs, errors.Errorf("penalty short dist %v must be in (0, length/2]", f.PenaltyShortDist))
	}
	if f.Border < 0 || f.GoalDepth < 0 {
		errs = multierr.Append(errs, errors.New("border and goal depth must not be negative"))
	}
	return errs
}

// OurGoalCenter is the center of our goal line.
func (f FieldDimensions) OurGoalCenter() r2.Point {
	return r2.Point{}
}

// TheirGoalCenter is the center of the opponent's goal line.
func (f FieldDimensions) TheirGoalCenter() r2.Point {
	return r2.Point{X: 0, Y: f.Length}
}

// CenterPoint is the center of the field.
func (f FieldDimensions) CenterPoint() r2.Point {
	return r2.Point{X: 0, Y: f.Length / 2}
}

// FieldRect is the playing area inside the lines.
func (f FieldDimensions) FieldRect() r2.Rect {
	return r2.RectFromPoints(r2.Point{X: -f.Width / 2, Y: 0}, r2.Point{X: f.Width / 2, Y: f.Length})
}

// OurDefenseArea is the penalty area in front of our goal.
func (f FieldDimensions) OurDefenseArea() r2.Rect {
	return r2.RectFromPoints(
		r2.Point{X: -f.PenaltyLongDist / 2, Y: 0},
		r2.Point{X: f.PenaltyLongDist / 2, Y: f.PenaltyShortDist},
	)
}

// TheirDefenseArea is the penalty area in front of the opponent's goal.
func (f FieldDimensions) TheirDefenseArea() r2.Rect {
	return r2.RectFromPoints(
		r2.Point{X: -f.PenaltyLongDist / 2, Y: f.Length - f.PenaltyShortDist},
		r2.Point{X: f.PenaltyLongDist / 2, Y: f.Length},
	)
}

// DefenseAreaObstacles returns both defense areas padded by a robot radius so a robot's body
// stays out of them.
func (f FieldDimensions) DefenseAreaObstacles() spatialmath.ShapeSet {
	ours := spatialmath.Rect{Bounds: f.OurDefenseArea(), Name: "our_defense_area"}
	theirs := spatialmath.Rect{Bounds: f.TheirDefenseArea(), Name: "their_defense_area"}
	return spatialmath.NewShapeSet(ours, theirs).Inflated(RobotRadius)
}
