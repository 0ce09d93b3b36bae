package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"threat-analysis-service/metrics"
	"threat-analysis-service/trust"
)

// Top-level component weights. They must sum to 1.0; CalculateScore
// refuses to aggregate otherwise.
const (
	weightDomainTrust  = 0.40
	weightAIAnalysis   = 0.40
	weightOtherFactors = 0.20
)

// Fixed recommendation sets keyed by final threat level.
var recommendationSets = map[trust.ThreatLevel][]string{
	trust.LevelHigh: {
		"Immediate investigation required",
		"Escalate to the brand protection team",
		"Consider a takedown request or legal action",
	},
	trust.LevelMedium: {
		"Verify domain ownership and intent",
		"Contact the site owner if content is infringing",
		"Add the domain to the monitoring watchlist",
	},
	trust.LevelLow: {
		"Periodic monitoring recommended",
		"Re-assess if new evidence appears",
	},
	trust.LevelSafe: {
		"No action required",
	},
}

// Scorer turns evidence into weighted threat assessments. It is
// stateless and safe for concurrent use.
type Scorer struct {
	log *slog.Logger
}

func NewScorer() *Scorer {
	return &Scorer{log: slog.Default().With("component", "scorer")}
}

// CalculateScore produces a complete assessment. It never fails
// outward: missing evidence scores to documented defaults, and an
// unexpected internal failure degrades to an UNKNOWN assessment with
// the failure recorded.
func (s *Scorer) CalculateScore(domain DomainEvidence, ai AIEvidence, search SearchEvidence, content ContentEvidence) (assessment ThreatAssessment) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			scoringErr, ok := r.(*ScoringError)
			if !ok {
				scoringErr = &ScoringError{Stage: "aggregation", Cause: fmt.Sprintf("%v", r)}
			}
			s.log.Error("scoring failed", "domain", domain.Domain, "error", scoringErr)
			assessment = unknownAssessment(scoringErr)
		}
		metrics.ScoringDuration.Observe(time.Since(start).Seconds())
		metrics.AssessmentsTotal.WithLabelValues(string(assessment.ThreatLevel)).Inc()
	}()

	validateWeights()

	now := time.Now().UTC()

	domainTrust := newComponent(scoreDomainTrust(domain, now), weightDomainTrust)
	aiAnalysis := newComponent(scoreAIAnalysis(ai), weightAIAnalysis)
	otherFactors := newComponent(scoreOtherFactors(search, content, now), weightOtherFactors)

	overall := round2(clamp(
		domainTrust.Score*domainTrust.Weight+
			aiAnalysis.Score*aiAnalysis.Weight+
			otherFactors.Score*otherFactors.Weight,
		0, 100))
	level := LevelForScore(overall)

	assessment = ThreatAssessment{
		OverallScore: overall,
		ThreatLevel:  level,
		Confidence:   calculateConfidence(domain, ai),
		Components: ThreatComponents{
			DomainTrust:  domainTrust,
			AIAnalysis:   aiAnalysis,
			OtherFactors: otherFactors,
		},
		RiskFactors:     extractRiskFactors(domain, ai, search, content, now),
		Recommendations: recommendationSets[level],
		CalculatedAt:    now,
	}
	return assessment
}

func validateWeights() {
	total := weightDomainTrust + weightAIAnalysis + weightOtherFactors
	if math.Abs(total-1.0) > 0.01 {
		panic(&ScoringError{Stage: "weight validation", Cause: fmt.Sprintf("component weights sum to %v", total)})
	}
}

func unknownAssessment(err *ScoringError) ThreatAssessment {
	return ThreatAssessment{
		OverallScore:    50,
		ThreatLevel:     trust.LevelUnknown,
		Confidence:      0,
		RiskFactors:     []string{"Assessment could not be completed"},
		Recommendations: []string{"Retry the assessment or review the input data manually"},
		CalculatedAt:    time.Now().UTC(),
		ErrorMessage:    err.Error(),
	}
}

// calculateConfidence averages the evidence-presence indicators:
// registration counts 0.9, certificate 0.8, and each AI judgment its
// own reported confidence. No evidence at all reads as 0.5.
func calculateConfidence(domain DomainEvidence, ai AIEvidence) float64 {
	var indicators []float64
	if domain.Whois != nil {
		indicators = append(indicators, 0.9)
	}
	if domain.SSL != nil {
		indicators = append(indicators, 0.8)
	}
	for _, j := range []*Judgment{ai.Abuse, ai.Copyright, ai.Commercial, ai.Repost, ai.Modification} {
		if j == nil {
			continue
		}
		confidence := 0.5
		if j.Confidence != nil {
			confidence = clamp(*j.Confidence, 0, 1)
		}
		indicators = append(indicators, confidence)
	}

	if len(indicators) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, c := range indicators {
		sum += c
	}
	return round2(sum / float64(len(indicators)))
}

// extractRiskFactors evaluates the fixed rule list in order; only
// triggered rules appear, so the output order is always the same.
func extractRiskFactors(domain DomainEvidence, ai AIEvidence, search SearchEvidence, content ContentEvidence, now time.Time) []string {
	factors := []string{}

	// Domain age
	if domain.CreatedAt != nil && now.Sub(*domain.CreatedAt).Hours()/24 < 30 {
		factors = append(factors, "New domain (registered less than 30 days ago)")
	}

	// SSL
	if domain.SSL == nil || !domain.SSL.HasSSL {
		factors = append(factors, "No SSL certificate")
	}

	// AI labels
	if ai.Abuse != nil && strings.Contains(strings.ToLower(ai.Abuse.Label), "high") {
		factors = append(factors, "High abuse risk detected")
	}
	if ai.Copyright != nil && strings.Contains(strings.ToLower(ai.Copyright.Label), "high") {
		factors = append(factors, "Possible copyright infringement")
	}

	// Search position
	if search.Ranking != nil && *search.Ranking > 50 {
		factors = append(factors, "Low search ranking")
	}

	// Content similarity; absent data must not flag, so default high
	similarity := 1.0
	if content.SimilarityScore != nil {
		similarity = *content.SimilarityScore
	}
	if similarity < 0.3 {
		factors = append(factors, "Low content similarity")
	}

	return factors
}

// ScoreRequest pairs the four evidence groups for one scoring call.
type ScoreRequest struct {
	Domain  DomainEvidence  `json:"domain_data"`
	AI      AIEvidence      `json:"ai_analysis"`
	Search  SearchEvidence  `json:"search_data"`
	Content ContentEvidence `json:"content_data"`
}

// ScoreBatchResult preserves input order: Results[i] answers
// requests[i]. Failed counts assessments that hit the UNKNOWN path.
type ScoreBatchResult struct {
	Results      []ThreatAssessment `json:"results"`
	SuccessCount int                `json:"success_count"`
	FailedCount  int                `json:"failed_count"`
}

// ScoreBatch scores requests, fanning out when parallel is set with at
// most maxConcurrency in flight. Sequential and parallel runs produce
// the same per-item results.
func (s *Scorer) ScoreBatch(ctx context.Context, requests []ScoreRequest, parallel bool, maxConcurrency int) ScoreBatchResult {
	results := make([]ThreatAssessment, len(requests))

	if parallel && len(requests) > 1 {
		if maxConcurrency <= 0 {
			maxConcurrency = 5
		}
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(maxConcurrency)
		for i, req := range requests {
			i, req := i, req
			g.Go(func() error {
				results[i] = s.CalculateScore(req.Domain, req.AI, req.Search, req.Content)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, req := range requests {
			results[i] = s.CalculateScore(req.Domain, req.AI, req.Search, req.Content)
		}
	}

	out := ScoreBatchResult{Results: results}
	for _, a := range out.Results {
		if a.ThreatLevel == trust.LevelUnknown {
			out.FailedCount++
		} else {
			out.SuccessCount++
		}
	}
	return out
}
