package domain

import (
	"fmt"
	"math"
	"slices"
)

// Range is an inclusive [Min, Max] constraint.
type Range[T int | float64] struct {
	Min T `json:"min"`
	Max T `json:"max"`
}

// Contains reports whether v lies within the range, bounds included.
func (r Range[T]) Contains(v T) bool {
	return v >= r.Min && v <= r.Max
}

// TsunamiFilter selects events by tsunami indicator.
type TsunamiFilter string

const (
	TsunamiAll  TsunamiFilter = ""
	TsunamiOnly TsunamiFilter = "only"
	TsunamiNone TsunamiFilter = "none"
)

// RegionFilter selects events by Ring of Fire membership.
type RegionFilter string

const (
	RegionAll        RegionFilter = ""
	RegionRingOfFire RegionFilter = "ring_of_fire"
	RegionOutside    RegionFilter = "outside"
)

// FilterConfig holds user-chosen constraints. A nil range, a nil Months slice
// and the zero selector values mean "no constraint" for that dimension.
//
// Months is applied literally: a non-nil empty slice selects no months and
// therefore matches nothing. Whether an empty selection should widen to all
// months is the caller's decision.
type FilterConfig struct {
	Years     *Range[int]     `json:"years,omitempty"`
	Magnitude *Range[float64] `json:"magnitude,omitempty"`
	Depth     *Range[float64] `json:"depth,omitempty"`
	Months    []int           `json:"months,omitempty"`
	Tsunami   TsunamiFilter   `json:"tsunami,omitempty"`
	Region    RegionFilter    `json:"region,omitempty"`
}

// Validate returns a *ConfigError for an inverted or NaN range, a month
// outside 1..12, or an unknown selector.
func (c FilterConfig) Validate() error {
	if c.Years != nil && c.Years.Min > c.Years.Max {
		return invertedRange("year range", c.Years.Min, c.Years.Max)
	}
	if err := validateFloatRange("magnitude range", c.Magnitude); err != nil {
		return err
	}
	if err := validateFloatRange("depth range", c.Depth); err != nil {
		return err
	}
	for _, m := range c.Months {
		if m < 1 || m > 12 {
			return &ConfigError{Field: "months", Reason: fmt.Sprintf("month %d outside 1..12", m)}
		}
	}
	switch c.Tsunami {
	case TsunamiAll, TsunamiOnly, TsunamiNone:
	default:
		return &ConfigError{Field: "tsunami", Reason: fmt.Sprintf("unknown selector %q", c.Tsunami)}
	}
	switch c.Region {
	case RegionAll, RegionRingOfFire, RegionOutside:
	default:
		return &ConfigError{Field: "region", Reason: fmt.Sprintf("unknown selector %q", c.Region)}
	}
	return nil
}

func validateFloatRange(field string, r *Range[float64]) error {
	if r == nil {
		return nil
	}
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) {
		return &ConfigError{Field: field, Reason: "bound is NaN"}
	}
	if r.Min > r.Max {
		return invertedRange(field, r.Min, r.Max)
	}
	return nil
}

func invertedRange[T int | float64](field string, lo, hi T) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf("min %v greater than max %v", lo, hi)}
}

// predicate reports whether an event satisfies one filter dimension.
type predicate func(e *Event) bool

// predicates returns the active constraints in the order they are evaluated.
func (c FilterConfig) predicates() []predicate {
	var ps []predicate
	if c.Years != nil {
		r := *c.Years
		ps = append(ps, func(e *Event) bool { return r.Contains(e.Year) })
	}
	if c.Magnitude != nil {
		r := *c.Magnitude
		ps = append(ps, func(e *Event) bool { return r.Contains(e.Magnitude) })
	}
	if c.Depth != nil {
		r := *c.Depth
		ps = append(ps, func(e *Event) bool { return r.Contains(e.Depth) })
	}
	switch c.Tsunami {
	case TsunamiOnly:
		ps = append(ps, func(e *Event) bool { return e.Tsunami })
	case TsunamiNone:
		ps = append(ps, func(e *Event) bool { return !e.Tsunami })
	}
	switch c.Region {
	case RegionRingOfFire:
		ps = append(ps, func(e *Event) bool { return e.RingOfFire })
	case RegionOutside:
		ps = append(ps, func(e *Event) bool { return !e.RingOfFire })
	}
	if c.Months != nil {
		months := slices.Clone(c.Months)
		ps = append(ps, func(e *Event) bool { return slices.Contains(months, e.Month) })
	}
	return ps
}

// Apply returns a new table holding the events of t that satisfy every active
// constraint of cfg, in their original order. t is not modified. An empty
// result is valid. The only failure is a *ConfigError from cfg.Validate.
func Apply(t *Table, cfg FilterConfig) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ps := cfg.predicates()
	out := make([]Event, 0, t.Len())
	for i := range t.Len() {
		e := &t.events[i]
		if matchesAll(e, ps) {
			out = append(out, *e)
		}
	}
	return &Table{events: out}, nil
}

func matchesAll(e *Event, ps []predicate) bool {
	for _, p := range ps {
		if !p(e) {
			return false
		}
	}
	return true
}
