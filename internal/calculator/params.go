package calculator

import (
	"fmt"
	"math"
)

// Canonical Bollinger defaults. The dashboard has shipped both 10/5 and 3/5;
// 10/5 is the one kept.
const (
	DefaultPeriods = 10
	DefaultStd     = 5.0
)

// ValidationError reports an unusable indicator parameter.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Params carries the user-tunable values. Nil means "not supplied".
type Params struct {
	Std     *float64 // band width in standard deviations
	Periods *int     // rolling window length
}

// Settings are resolved, always-usable parameter values.
type Settings struct {
	Window           int
	K                float64
	StochasticWindow int
}

// Defaults are the fallbacks Resolve uses for missing or invalid values.
type Defaults struct {
	Periods          int
	Std              float64
	StochasticWindow int
}

// StandardDefaults returns the built-in defaults.
func StandardDefaults() Defaults {
	return Defaults{Periods: DefaultPeriods, Std: DefaultStd, StochasticWindow: DefaultStochasticWindow}
}

// Validate reports the first unusable supplied value.
func (p Params) Validate() error {
	if p.Periods != nil && *p.Periods < 2 {
		return &ValidationError{Field: "periods", Err: fmt.Errorf("must be >= 2, got %d", *p.Periods)}
	}
	if p.Std != nil && !validStd(*p.Std) {
		return &ValidationError{Field: "std", Err: fmt.Errorf("must be a positive finite number, got %v", *p.Std)}
	}
	return nil
}

// Resolve applies d to every missing or invalid value. Each parameter falls
// back independently. A valid Periods also sets the stochastic %D window.
func (p Params) Resolve(d Defaults) Settings {
	s := Settings{Window: d.Periods, K: d.Std, StochasticWindow: d.StochasticWindow}
	if p.Periods != nil && *p.Periods >= 2 {
		s.Window = *p.Periods
		s.StochasticWindow = *p.Periods
	}
	if p.Std != nil && validStd(*p.Std) {
		s.K = *p.Std
	}
	return s
}

func validStd(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
