// Package camera persists the viewer's camera as a named-vector record.
package camera

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidCamera = errors.New("camera: invalid record")

// State is a camera pose. Angle is the vertical view angle in degrees and is
// optional in the record.
type State struct {
	Position      [3]float64 `yaml:"position,flow" json:"position"`
	FocalPoint    [3]float64 `yaml:"focal_point,flow" json:"focal_point"`
	ViewUp        [3]float64 `yaml:"view_up,flow" json:"view_up"`
	ClippingRange [2]float64 `yaml:"clipping_range,flow" json:"clipping_range"`
	Angle         *float64   `yaml:"angle,omitempty" json:"angle,omitempty"`
}

// DefaultAngle is used when a record carries no view angle.
const DefaultAngle = 30.0

// Default returns the built-in camera framing the CONUS basemap.
func Default() State {
	angle := DefaultAngle
	return State{
		Position:      [3]float64{671.46120300504, -2054.1340881372676, 1786.9861600854017},
		FocalPoint:    [3]float64{833.3877526949775, -20.752970430237255, 379.0011417472582},
		ViewUp:        [3]float64{-0.002320196264332275, 0.5694042877567462, 0.8220543618116307},
		ClippingRange: [2]float64{2193.398106044568, 4488.309829557098},
		Angle:         &angle,
	}
}

// ViewAngle returns Angle or DefaultAngle when unset.
func (s State) ViewAngle() float64 {
	if s.Angle == nil {
		return DefaultAngle
	}
	return *s.Angle
}

// Clone returns a deep copy.
func (s State) Clone() State {
	if s.Angle != nil {
		a := *s.Angle
		s.Angle = &a
	}
	return s
}

func (s State) Validate() error {
	if s.Position == s.FocalPoint {
		return fmt.Errorf("%w: position equals focal point", ErrInvalidCamera)
	}
	if s.ViewUp == [3]float64{} {
		return fmt.Errorf("%w: zero view-up", ErrInvalidCamera)
	}
	if s.ClippingRange[0] < 0 || s.ClippingRange[1] < s.ClippingRange[0] {
		return fmt.Errorf("%w: clipping range %v", ErrInvalidCamera, s.ClippingRange)
	}
	return nil
}

// Save writes s to path as YAML.
func Save(path string, s State) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads a record written by Save. JSON records parse as well since the
// YAML decoder accepts them.
func Load(path string) (State, error) {
	var s State
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("%w: %s: %v", ErrInvalidCamera, path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
