package models

import (
	"errors"
	"fmt"
)

// InvalidParameterError reports model parameters or initial states that cannot be integrated
type InvalidParameterError struct {
	Param  string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%g: %s", e.Param, e.Value, e.Reason)
}

// InvalidInputError reports malformed time or observation inputs
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// ShapeMismatchError reports observed and simulated series that cannot be aligned
type ShapeMismatchError struct {
	Observed  int
	Simulated int
	Reason    string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch (observed=%d, simulated=%d): %s", e.Observed, e.Simulated, e.Reason)
}

// ConfigError reports a bad calibration or serialization configuration
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := "config error"
	if e.Field != "" {
		msg += " in " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IOError reports a failed read or write of a durable artifact
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Kind returns a short label for the first categorized error in err's chain
func Kind(err error) string {
	var (
		paramErr  *InvalidParameterError
		inputErr  *InvalidInputError
		shapeErr  *ShapeMismatchError
		configErr *ConfigError
		ioErr     *IOError
	)
	switch {
	case errors.As(err, &paramErr):
		return "InvalidParameterError"
	case errors.As(err, &inputErr):
		return "InvalidInputError"
	case errors.As(err, &shapeErr):
		return "ShapeMismatchError"
	case errors.As(err, &configErr):
		return "ConfigError"
	case errors.As(err, &ioErr):
		return "IOError"
	}
	return "Error"
}
