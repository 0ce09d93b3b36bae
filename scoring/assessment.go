package scoring

import (
	"fmt"
	"math"
	"time"

	"threat-analysis-service/trust"
)

// ComponentScore is a sub-score, its weight, and the weighted
// contribution it makes to the overall score.
type ComponentScore struct {
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

func newComponent(score, weight float64) ComponentScore {
	return ComponentScore{
		Score:        round2(score),
		Weight:       weight,
		Contribution: round2(score * weight),
	}
}

// ThreatComponents are the three fixed components of an assessment.
type ThreatComponents struct {
	DomainTrust  ComponentScore `json:"domain_trust"`
	AIAnalysis   ComponentScore `json:"ai_analysis"`
	OtherFactors ComponentScore `json:"other_factors"`
}

// ThreatAssessment is the complete scoring output for one request.
// UNKNOWN is reserved for the internal-failure path and always comes
// with a populated ErrorMessage.
type ThreatAssessment struct {
	OverallScore    float64           `json:"overall_score"`
	ThreatLevel     trust.ThreatLevel `json:"threat_level"`
	Confidence      float64           `json:"confidence"`
	Components      ThreatComponents  `json:"components"`
	RiskFactors     []string          `json:"risk_factors"`
	Recommendations []string          `json:"recommendations"`
	CalculatedAt    time.Time         `json:"calculated_at"`
	ErrorMessage    string            `json:"error_message,omitempty"`
}

// ScoringError is an unexpected internal failure during aggregation,
// as opposed to expected missing evidence, which scores to defaults.
type ScoringError struct {
	Stage string
	Cause string
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("scoring failed during %s: %s", e.Stage, e.Cause)
}

// LevelForScore maps an overall score to its threat band.
func LevelForScore(score float64) trust.ThreatLevel {
	switch {
	case score >= 80:
		return trust.LevelHigh
	case score >= 60:
		return trust.LevelMedium
	case score >= 40:
		return trust.LevelLow
	default:
		return trust.LevelSafe
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
