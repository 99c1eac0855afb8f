package config

import (
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/epicast/pkg/models"
)

// ParseCalibrationYAML parses a Calibration from YAML bytes and validates it.
// Keys missing from the document keep their DefaultCalibration values.
func ParseCalibrationYAML(data []byte) (*Calibration, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, &models.ConfigError{Reason: "failed to parse calibration yaml", Err: err}
	}
	cfg := DefaultCalibration()
	if err := CheckIntegers(&node, reflect.TypeOf(cfg)); err != nil {
		return nil, err
	}
	if len(node.Content) > 0 {
		if err := node.Decode(cfg); err != nil {
			return nil, &models.ConfigError{Reason: "failed to parse calibration yaml", Err: err}
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MarshalCalibration renders a configuration as YAML
func MarshalCalibration(cfg *Calibration) ([]byte, error) {
	return yaml.Marshal(cfg)
}
