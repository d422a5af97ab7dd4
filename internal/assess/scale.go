package assess

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange reports a value beyond a bounded scale's defined range.
// Nutrient scales end at a domain ceiling (e.g. 200 ppm phosphorus) with
// no band above it, so the engine signals instead of extrapolating.
var ErrOutOfRange = errors.New("assess: value out of range")

// Step is one contiguous interval of a Scale. The interval runs from the
// previous step's upper boundary (or the scale floor) up to Upper;
// Inclusive says whether Upper itself still belongs to this step. Encoding
// only the upper boundary makes gaps and overlaps unrepresentable.
type Step struct {
	Upper     float64  `yaml:"upper"`
	Inclusive bool     `yaml:"inclusive"`
	Band      Band     `yaml:"band"`
	Severity  Severity `yaml:"severity"`
	Note      string   `yaml:"note"`
	Color     string   `yaml:"color"`
}

// Scale is an ordered list of classification steps for one metric.
//
// A total scale covers the whole real line: its last step has Upper=+Inf
// and catches everything the earlier steps did not. A bounded scale
// covers [Floor, last Upper] and reports ErrOutOfRange outside it.
type Scale struct {
	Name    string  `yaml:"-"`
	Bounded bool    `yaml:"bounded"`
	Floor   float64 `yaml:"floor"`
	Steps   []Step  `yaml:"steps"`
}

// Classify places v on the scale, returning the first matching step.
func (s Scale) Classify(v float64) (Assessment, error) {
	if math.IsNaN(v) {
		return Assessment{}, ErrOutOfRange
	}
	if s.Bounded && v < s.Floor {
		return Assessment{}, ErrOutOfRange
	}
	for _, st := range s.Steps {
		if v < st.Upper || (st.Inclusive && v == st.Upper) {
			return Assessment{Band: st.Band, Severity: st.Severity, Note: st.Note, Color: st.Color}, nil
		}
	}
	return Assessment{}, ErrOutOfRange
}

// classifyTotal is Classify for scales that must never fail: anything
// unplaceable (NaN) degrades to an explicit unknown/error assessment.
func (s Scale) classifyTotal(v float64) Assessment {
	a, err := s.Classify(v)
	if err != nil {
		return Assessment{Band: BandUnknown, Severity: SeverityError, Note: "value not classifiable"}
	}
	return a
}

// Validate checks the structural invariants of a scale: at least one
// step, strictly ascending upper bounds, no NaN boundaries, a +Inf
// terminal step on total scales and a finite, inclusive ceiling on
// bounded ones.
func (s Scale) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("scale %s: no steps", s.Name)
	}
	prev := math.Inf(-1)
	for i, st := range s.Steps {
		if math.IsNaN(st.Upper) {
			return fmt.Errorf("scale %s: step %d has NaN boundary", s.Name, i)
		}
		if st.Upper <= prev {
			return fmt.Errorf("scale %s: step %d boundary %v not ascending", s.Name, i, st.Upper)
		}
		if st.Band == "" {
			return fmt.Errorf("scale %s: step %d missing band", s.Name, i)
		}
		switch st.Severity {
		case SeverityError, SeverityWarning, SeveritySuccess, SeverityInfo:
		default:
			return fmt.Errorf("scale %s: step %d invalid severity %q", s.Name, i, st.Severity)
		}
		prev = st.Upper
	}
	last := s.Steps[len(s.Steps)-1]
	if s.Bounded {
		if math.IsInf(last.Upper, +1) {
			return fmt.Errorf("scale %s: bounded scale has infinite ceiling", s.Name)
		}
		if !last.Inclusive {
			return fmt.Errorf("scale %s: ceiling %v must be inclusive", s.Name, last.Upper)
		}
		if math.IsNaN(s.Floor) || s.Floor >= s.Steps[0].Upper {
			return fmt.Errorf("scale %s: floor %v does not precede first boundary", s.Name, s.Floor)
		}
	} else if !math.IsInf(last.Upper, +1) {
		return fmt.Errorf("scale %s: total scale must end with an open step", s.Name)
	}
	return nil
}
