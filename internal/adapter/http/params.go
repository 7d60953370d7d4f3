package http

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/quake-data-explorer/internal/domain"
)

// parseFilter builds a FilterConfig from query parameters:
//
//	year_min, year_max     integer year range
//	mag_min, mag_max       magnitude range
//	depth_min, depth_max   depth range in km
//	months                 comma-separated 1..12; present but empty selects nothing
//	tsunami                all | only | none
//	region                 all | ring_of_fire | outside
//
// A range is constrained when either bound is given; the missing bound is
// open. Malformed values yield a *domain.ConfigError.
func parseFilter(q url.Values) (domain.FilterConfig, error) {
	var cfg domain.FilterConfig
	var err error

	if cfg.Years, err = intRange(q, "year_min", "year_max"); err != nil {
		return cfg, err
	}
	if cfg.Magnitude, err = floatRange(q, "mag_min", "mag_max"); err != nil {
		return cfg, err
	}
	if cfg.Depth, err = floatRange(q, "depth_min", "depth_max"); err != nil {
		return cfg, err
	}
	if cfg.Months, err = months(q); err != nil {
		return cfg, err
	}

	switch v := q.Get("tsunami"); v {
	case "", "all":
		cfg.Tsunami = domain.TsunamiAll
	default:
		cfg.Tsunami = domain.TsunamiFilter(v)
	}
	switch v := q.Get("region"); v {
	case "", "all":
		cfg.Region = domain.RegionAll
	default:
		cfg.Region = domain.RegionFilter(v)
	}

	return cfg, cfg.Validate()
}

func intRange(q url.Values, minKey, maxKey string) (*domain.Range[int], error) {
	lo, hasLo, err := intParam(q, minKey)
	if err != nil {
		return nil, err
	}
	hi, hasHi, err := intParam(q, maxKey)
	if err != nil {
		return nil, err
	}
	if !hasLo && !hasHi {
		return nil, nil
	}
	r := &domain.Range[int]{Min: math.MinInt, Max: math.MaxInt}
	if hasLo {
		r.Min = lo
	}
	if hasHi {
		r.Max = hi
	}
	return r, nil
}

func floatRange(q url.Values, minKey, maxKey string) (*domain.Range[float64], error) {
	lo, hasLo, err := floatParam(q, minKey)
	if err != nil {
		return nil, err
	}
	hi, hasHi, err := floatParam(q, maxKey)
	if err != nil {
		return nil, err
	}
	if !hasLo && !hasHi {
		return nil, nil
	}
	r := &domain.Range[float64]{Min: math.Inf(-1), Max: math.Inf(1)}
	if hasLo {
		r.Min = lo
	}
	if hasHi {
		r.Max = hi
	}
	return r, nil
}

func intParam(q url.Values, key string) (int, bool, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, &domain.ConfigError{Field: key, Reason: fmt.Sprintf("%q is not an integer", s)}
	}
	return v, true, nil
}

func floatParam(q url.Values, key string) (float64, bool, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, &domain.ConfigError{Field: key, Reason: fmt.Sprintf("%q is not a finite number", s)}
	}
	return v, true, nil
}

func months(q url.Values) ([]int, error) {
	if _, present := q["months"]; !present {
		return nil, nil
	}
	out := []int{}
	for _, part := range strings.Split(q.Get("months"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m, err := strconv.Atoi(part)
		if err != nil {
			return nil, &domain.ConfigError{Field: "months", Reason: fmt.Sprintf("%q is not a month number", part)}
		}
		out = append(out, m)
	}
	return out, nil
}

// boolParam accepts the forms strconv.ParseBool does; absent means false.
func boolParam(q url.Values, key string) (bool, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, &domain.ConfigError{Field: key, Reason: fmt.Sprintf("%q is not a boolean", s)}
	}
	return v, nil
}
