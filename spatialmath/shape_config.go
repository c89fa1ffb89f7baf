package spatialmath

import (
	"strings"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// ShapeType is the name of a shape kind in configuration.
type ShapeType string

// The set of allowable shape types.
const (
	CircleType  = ShapeType("circle")
	RectType    = ShapeType("rect")
	CapsuleType = ShapeType("capsule")
)

// ShapeConfig describes a shape in JSON configuration. Circles use X, Y and R. Rects and capsules
// span (X, Y) to (X2, Y2); capsules also use R.
type ShapeConfig struct {
	Type  ShapeType `json:"type"`
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	X2    float64   `json:"x2,omitempty"`
	Y2    float64   `json:"y2,omitempty"`
	R     float64   `json:"r,omitempty"`
	Label string    `json:"label,omitempty"`
}

// ParseConfig converts a ShapeConfig into a Shape.
func (config *ShapeConfig) ParseConfig() (Shape, error) {
	a := r2.Point{X: config.X, Y: config.Y}
	b := r2.Point{X: config.X2, Y: config.Y2}
	switch ShapeType(strings.ToLower(string(config.Type))) {
	case CircleType:
		return NewCircle(a, config.R, config.Label)
	case RectType:
		return NewRect(a, b, config.Label)
	case CapsuleType:
		return NewCapsule(a, b, config.R, config.Label)
	case "":
		return nil, errors.New("shape config is missing a type")
	default:
		return nil, errors.Errorf("shape type %q is unsupported", config.Type)
	}
}

// ParseShapeConfigs parses every config into one ShapeSet, failing on the first bad entry.
func ParseShapeConfigs(configs []ShapeConfig) (ShapeSet, error) {
	var ss ShapeSet
	for i := range configs {
		s, err := configs[i].ParseConfig()
		if err != nil {
			return ShapeSet{}, errors.Wrapf(err, "shape %d", i)
		}
		ss.Add(s)
	}
	return ss, nil
}
