// Package stats keeps in-memory assessment statistics and batch-job state.
package stats

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"threat-analysis-service/trust"
)

// historyCap bounds the retained assessment records.
const historyCap = 1000

// Record is one retained assessment outcome.
type Record struct {
	Domain       string            `json:"domain"`
	OverallScore float64           `json:"overall_score"`
	ThreatLevel  trust.ThreatLevel `json:"threat_level"`
	RiskFactors  []string          `json:"risk_factors,omitempty"`
	ProcessingMS int64             `json:"processing_time_ms"`
	CalculatedAt time.Time         `json:"calculated_at"`
}

// Trend summarizes a time window of assessments.
type Trend struct {
	Count        int     `json:"count"`
	AverageScore float64 `json:"average_score"`
}

// Statistics is the aggregate view served by the statistics endpoint.
type Statistics struct {
	TotalAssessments  int                       `json:"total_assessments"`
	ScoreDistribution map[trust.ThreatLevel]int `json:"score_distribution"`
	AverageScore      float64                   `json:"average_score"`
	MedianScore       float64                   `json:"median_score"`
	HighRiskDomains   []string                  `json:"recent_high_risk_domains"`
	Trend             map[string]Trend          `json:"trend"`
}

// FactorCount pairs a risk factor with how often it appeared.
type FactorCount struct {
	Factor string `json:"factor"`
	Count  int    `json:"count"`
}

// Summary is the per-period digest served by the summary endpoint.
type Summary struct {
	Period           string                    `json:"period"`
	TotalAssessments int                       `json:"total_assessments"`
	ByLevel          map[trust.ThreatLevel]int `json:"by_level"`
	AverageScore     float64                   `json:"average_score"`
	AvgProcessingMS  float64                   `json:"avg_processing_time_ms"`
	TopRiskFactors   []FactorCount             `json:"top_risk_factors"`
	Suggestions      []string                  `json:"improvement_suggestions"`
}

// Store accumulates assessment outcomes. Totals and the per-level
// distribution cover the full lifetime; history-derived views (median,
// trends, summaries) cover the most recent historyCap records.
type Store struct {
	mu       sync.RWMutex
	total    int
	byLevel  map[trust.ThreatLevel]int
	scoreSum float64
	history  []Record
}

func NewStore() *Store {
	return &Store{byLevel: make(map[trust.ThreatLevel]int)}
}

// RecordAssessment adds one outcome to the running statistics.
func (s *Store) RecordAssessment(rec Record) {
	if rec.CalculatedAt.IsZero() {
		rec.CalculatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.byLevel[rec.ThreatLevel]++
	s.scoreSum += rec.OverallScore
	s.history = append(s.history, rec)
	if len(s.history) > historyCap {
		s.history = s.history[len(s.history)-historyCap:]
	}
}

// Snapshot returns the current aggregate statistics.
func (s *Store) Snapshot() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Statistics{
		TotalAssessments:  s.total,
		ScoreDistribution: make(map[trust.ThreatLevel]int, len(s.byLevel)),
		Trend:             make(map[string]Trend, 3),
	}
	for level, n := range s.byLevel {
		stats.ScoreDistribution[level] = n
	}
	if s.total > 0 {
		stats.AverageScore = round2(s.scoreSum / float64(s.total))
	}

	scores := make([]float64, 0, len(s.history))
	for _, rec := range s.history {
		scores = append(scores, rec.OverallScore)
	}
	if len(scores) > 0 {
		sort.Float64s(scores)
		stats.MedianScore = scores[len(scores)/2]
	}

	stats.HighRiskDomains = s.recentHighRiskLocked()

	now := time.Now().UTC()
	stats.Trend["24h"] = s.trendLocked(now.Add(-24 * time.Hour))
	stats.Trend["7d"] = s.trendLocked(now.Add(-7 * 24 * time.Hour))
	stats.Trend["all"] = s.trendLocked(time.Time{})
	return stats
}

// recentHighRiskLocked collects distinct HIGH domains from the newest 50
// records, most recent first, capped at 10.
func (s *Store) recentHighRiskLocked() []string {
	domains := make([]string, 0, 10)
	seen := make(map[string]bool)
	start := max(len(s.history)-50, 0)
	for i := len(s.history) - 1; i >= start; i-- {
		rec := s.history[i]
		if rec.ThreatLevel != trust.LevelHigh || rec.Domain == "" || seen[rec.Domain] {
			continue
		}
		seen[rec.Domain] = true
		domains = append(domains, rec.Domain)
		if len(domains) == 10 {
			break
		}
	}
	return domains
}

func (s *Store) trendLocked(since time.Time) Trend {
	var t Trend
	var sum float64
	for _, rec := range s.history {
		if !since.IsZero() && rec.CalculatedAt.Before(since) {
			continue
		}
		t.Count++
		sum += rec.OverallScore
	}
	if t.Count > 0 {
		t.AverageScore = round2(sum / float64(t.Count))
	}
	return t
}

// Summarize digests the records of one period. Accepted periods are
// "24h", "7d" and "30d"; anything else falls back to "7d".
func (s *Store) Summarize(period string) Summary {
	var window time.Duration
	switch period {
	case "24h":
		window = 24 * time.Hour
	case "30d":
		window = 30 * 24 * time.Hour
	default:
		period = "7d"
		window = 7 * 24 * time.Hour
	}
	since := time.Now().UTC().Add(-window)

	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := Summary{
		Period:  period,
		ByLevel: make(map[trust.ThreatLevel]int),
	}
	factorCounts := make(map[string]int)
	var scoreSum float64
	var processingSum int64
	newDomain := 0
	noSSL := 0

	for _, rec := range s.history {
		if rec.CalculatedAt.Before(since) {
			continue
		}
		summary.TotalAssessments++
		summary.ByLevel[rec.ThreatLevel]++
		scoreSum += rec.OverallScore
		processingSum += rec.ProcessingMS
		for _, f := range rec.RiskFactors {
			factorCounts[f]++
			if strings.Contains(f, "New domain") {
				newDomain++
			}
			if strings.Contains(f, "No SSL") {
				noSSL++
			}
		}
	}

	if summary.TotalAssessments > 0 {
		summary.AverageScore = round2(scoreSum / float64(summary.TotalAssessments))
		summary.AvgProcessingMS = round2(float64(processingSum) / float64(summary.TotalAssessments))
	}
	summary.TopRiskFactors = topFactors(factorCounts, 10)
	summary.Suggestions = buildSuggestions(summary, newDomain, noSSL)
	return summary
}

func topFactors(counts map[string]int, limit int) []FactorCount {
	factors := make([]FactorCount, 0, len(counts))
	for f, n := range counts {
		factors = append(factors, FactorCount{Factor: f, Count: n})
	}
	sort.Slice(factors, func(i, j int) bool {
		if factors[i].Count != factors[j].Count {
			return factors[i].Count > factors[j].Count
		}
		return factors[i].Factor < factors[j].Factor
	})
	if len(factors) > limit {
		factors = factors[:limit]
	}
	return factors
}

func buildSuggestions(summary Summary, newDomain, noSSL int) []string {
	total := summary.TotalAssessments
	if total == 0 {
		return []string{"No assessments recorded in this period"}
	}

	var suggestions []string
	if float64(summary.ByLevel[trust.LevelHigh])/float64(total) > 0.3 {
		suggestions = append(suggestions, "High threat ratio is elevated; review takedown and escalation capacity")
	}
	if float64(summary.ByLevel[trust.LevelMedium])/float64(total) > 0.5 {
		suggestions = append(suggestions, "Many assessments land in MEDIUM; consider tuning evidence collection to sharpen verdicts")
	}
	if float64(newDomain) > 0.3*float64(total) {
		suggestions = append(suggestions, "A large share of analyzed domains are newly registered; consider stricter monitoring of new registrations")
	}
	if float64(noSSL) > 0.2*float64(total) {
		suggestions = append(suggestions, "Many analyzed domains lack SSL; factor certificate checks into intake filtering")
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions, "Threat profile looks stable for this period")
	}
	return suggestions
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
