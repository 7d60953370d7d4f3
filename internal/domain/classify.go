package domain

import "math"

// MagCategory is the magnitude class of an event.
type MagCategory string

const (
	MagModerate MagCategory = "Moderate"
	MagHigh     MagCategory = "High"
	MagVeryHigh MagCategory = "Very High"
	MagExtreme  MagCategory = "Extreme"
)

// DepthCategory is the hypocenter depth class of an event.
type DepthCategory string

const (
	DepthShallow      DepthCategory = "Shallow (<70km)"
	DepthIntermediate DepthCategory = "Intermediate (70-300km)"
	DepthDeep         DepthCategory = "Deep (>300km)"
)

const (
	shallowDepthKm     = 70.0
	highMagnitude      = 7.0
	ringOfFireMinAbsLa = 10.0
)

// bin is a half-open interval (lower, upper] mapped to a label.
type bin[L ~string] struct {
	lower float64
	upper float64
	label L
}

var magnitudeBins = []bin[MagCategory]{
	{0, 6.5, MagModerate},
	{6.5, 7.0, MagHigh},
	{7.0, 7.5, MagVeryHigh},
	{7.5, 10, MagExtreme},
}

var depthBins = []bin[DepthCategory]{
	{-1, 70, DepthShallow},
	{70, 300, DepthIntermediate},
	{300, 700, DepthDeep},
}

// classify returns the label of the first bin containing v, or "" when none does.
func classify[L ~string](bins []bin[L], v float64) L {
	for _, b := range bins {
		if v > b.lower && v <= b.upper {
			return b.label
		}
	}
	var none L
	return none
}

func classifyMagnitude(magnitude float64) MagCategory {
	return classify(magnitudeBins, magnitude)
}

func classifyDepth(depth float64) DepthCategory {
	return classify(depthBins, depth)
}

func isShallow(depth float64) bool {
	return depth < shallowDepthKm
}

func isHighMagnitude(magnitude float64) bool {
	return magnitude >= highMagnitude
}

// InRingOfFire reports whether a location lies in the Ring of Fire band, an
// approximation of Pacific Rim membership. The first band runs east from 120
// and wraps through the antimeridian to -60; the second covers the Americas
// side on its own.
func InRingOfFire(lat, lon float64) bool {
	if math.Abs(lat) <= ringOfFireMinAbsLa {
		return false
	}
	return lonBetween(lon, 120, -60) || lonBetween(lon, -180, -60)
}

// lonBetween reports whether lon lies in [from, to], inclusive. When from > to
// the band wraps through the antimeridian.
func lonBetween(lon, from, to float64) bool {
	if from <= to {
		return lon >= from && lon <= to
	}
	return lon >= from || lon <= to
}
