package domain

// RiskLevel is the coarse tsunami-risk bucket of a RiskAssessment.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
)

// RiskAssessment is the output of the rule-based tsunami risk heuristic.
type RiskAssessment struct {
	Score          int       `json:"score"`
	Level          RiskLevel `json:"level"`
	Recommendation string    `json:"recommendation"`
}

// AssessTsunamiRisk scores a hypothetical event on a 0-100 scale from
// magnitude, depth and Ring of Fire membership. It is a heuristic derived
// from catalog exploration, not a trained model.
//
//	magnitude: >=7.5 +40 | >=7.0 +25 | >=6.5 +10
//	depth:     <50km +35 | <70km +20 | <100km +5
//	Ring of Fire: +25
func AssessTsunamiRisk(magnitude, depth float64, ringOfFire bool) RiskAssessment {
	score := 0

	switch {
	case magnitude >= 7.5:
		score += 40
	case magnitude >= 7.0:
		score += 25
	case magnitude >= 6.5:
		score += 10
	}

	switch {
	case depth < 50:
		score += 35
	case depth < 70:
		score += 20
	case depth < 100:
		score += 5
	}

	if ringOfFire {
		score += 25
	}

	level, rec := riskLevel(score)
	return RiskAssessment{Score: score, Level: level, Recommendation: rec}
}

func riskLevel(score int) (RiskLevel, string) {
	switch {
	case score >= 80:
		return RiskVeryHigh, "maximum alert: evacuate coastal areas immediately"
	case score >= 60:
		return RiskHigh, "alert: prepare evacuation and monitor intensively"
	case score >= 40:
		return RiskMedium, "caution: intensify monitoring and notify authorities"
	default:
		return RiskLow, "normal: continue standard monitoring"
	}
}
