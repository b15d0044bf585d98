package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrArbitrage        = errors.New("arbitrage")
	ErrUnsupported      = errors.New("unsupported option")
)

// InvalidParameterError is returned for out-of-domain inputs (non-positive volatility,
// maturity, steps, path count, or a confidence level outside (0,1)).
type InvalidParameterError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s=%g: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidParameterError) Is(target error) bool { return target == ErrInvalidParameter }

func invalid(field string, value float64, reason string) error {
	return &InvalidParameterError{Field: field, Value: value, Reason: reason}
}

// InvalidParameter is exported for the pricing packages.
func InvalidParameter(field string, value float64, reason string) error {
	return invalid(field, value, reason)
}

// ArbitrageError reports a lattice whose risk-neutral probability falls outside (0,1).
// The (rate, volatility, dt) combination cannot be represented as a valid tree.
type ArbitrageError struct {
	Probability float64
	Up          float64
	Down        float64
	Dt          float64
}

func (e *ArbitrageError) Error() string {
	return fmt.Sprintf("risk-neutral probability %g outside (0,1) (u=%g d=%g dt=%g)",
		e.Probability, e.Up, e.Down, e.Dt)
}

func (e *ArbitrageError) Is(target error) bool { return target == ErrArbitrage }

// UnsupportedError is returned when a pricer is asked for a style or payoff it does not model.
type UnsupportedError struct {
	Method Method
	Spec   OptionSpec
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s pricer does not support %s", e.Method, e.Spec)
}

func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }
