package model

import (
	"fmt"
	"math"
	"strings"
)

// IndicatorKind names a companion subplot indicator.
type IndicatorKind string

const (
	IndicatorOBV  IndicatorKind = "OBV"
	IndicatorMACD IndicatorKind = "MACD"
	IndicatorSO   IndicatorKind = "SO"
	IndicatorAD   IndicatorKind = "A/D"
)

// AllIndicators lists the selectable indicators in display order.
var AllIndicators = []IndicatorKind{IndicatorOBV, IndicatorMACD, IndicatorSO, IndicatorAD}

// ParseIndicatorKind accepts the display names case-insensitively, plus "AD" and "ADL" for A/D.
func ParseIndicatorKind(s string) (IndicatorKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OBV":
		return IndicatorOBV, nil
	case "MACD":
		return IndicatorMACD, nil
	case "SO", "STOCH", "STOCHASTIC":
		return IndicatorSO, nil
	case "A/D", "AD", "ADL":
		return IndicatorAD, nil
	}
	return "", fmt.Errorf("unknown indicator %q", s)
}

// Line is one named numeric sequence, index-aligned with its Series.
// NaN marks an undefined value.
type Line struct {
	Name   string
	Values []float64
}

// Last returns the final value, or NaN for an empty line.
func (l Line) Last() float64 {
	if len(l.Values) == 0 {
		return math.NaN()
	}
	return l.Values[len(l.Values)-1]
}

// IndicatorOutput is the set of lines computed for one indicator.
type IndicatorOutput struct {
	Kind  IndicatorKind
	Lines []Line
}

// Line looks up a line by name.
func (o IndicatorOutput) Line(name string) (Line, bool) {
	for _, l := range o.Lines {
		if l.Name == name {
			return l, true
		}
	}
	return Line{}, false
}

// Primary is the line a chart plots for the indicator: OBV, MACD, %D or A/D.
func (o IndicatorOutput) Primary() Line {
	name := string(o.Kind)
	if o.Kind == IndicatorSO {
		name = "%D"
	}
	if l, ok := o.Line(name); ok {
		return l
	}
	if len(o.Lines) > 0 {
		return o.Lines[0]
	}
	return Line{Name: name}
}
