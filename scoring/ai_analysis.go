package scoring

import "strings"

// Per-category weights for the AI analysis component.
const (
	weightAbuse        = 0.35
	weightCopyright    = 0.30
	weightCommercial   = 0.20
	weightModification = 0.15
)

// Neutral scores substituted when a category was never analyzed.
const (
	absentAbuseScore        = 50
	absentCopyrightScore    = 30
	absentCommercialScore   = 30
	absentModificationScore = 30
)

// Label banding tables; labels outside a table fall back to the
// category's benign score.
var (
	abuseLabelScores        = map[string]float64{"high": 90, "medium": 60}
	copyrightLabelScores    = map[string]float64{"high": 85, "medium": 55}
	commercialLabelScores   = map[string]float64{"unauthorized": 70, "commercial": 50}
	modificationLabelScores = map[string]float64{"major": 70, "minor": 40}
)

// scoreAIAnalysis computes the AI analysis component on the 0-100 risk
// scale.
func scoreAIAnalysis(evidence AIEvidence) float64 {
	return scoreJudgment(evidence.Abuse, abuseLabelScores, 20, absentAbuseScore)*weightAbuse +
		scoreJudgment(evidence.Copyright, copyrightLabelScores, 15, absentCopyrightScore)*weightCopyright +
		scoreJudgment(evidence.Commercial, commercialLabelScores, 20, absentCommercialScore)*weightCommercial +
		scoreJudgment(evidence.Modification, modificationLabelScores, 20, absentModificationScore)*weightModification
}

// scoreJudgment bands the label, then pulls the result toward the
// 50-point neutral baseline in proportion to how unsure the model was.
func scoreJudgment(j *Judgment, table map[string]float64, benign, absent float64) float64 {
	if j == nil {
		return absent
	}
	confidence := 0.5
	if j.Confidence != nil {
		confidence = clamp(*j.Confidence, 0, 1)
	}
	banded := labelScore(table, j.Label, benign)
	return banded*confidence + 50*(1-confidence)
}

func labelScore(table map[string]float64, label string, benign float64) float64 {
	if score, ok := table[strings.ToLower(strings.TrimSpace(label))]; ok {
		return score
	}
	return benign
}
