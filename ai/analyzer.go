// Package ai scores page content with Gemini and turns the model's JSON
// verdict into typed judgments the scorer can weigh.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"threat-analysis-service/metrics"
	"threat-analysis-service/scoring"
	"threat-analysis-service/trust"
)

// ContentInput is the page content submitted for analysis.
type ContentInput struct {
	Domain string `json:"domain"`
	URL    string `json:"url,omitempty"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text"`
}

// OverallAssessment is the model's summary judgment of the content.
type OverallAssessment struct {
	ThreatLevel     trust.ThreatLevel `json:"threat_level"`
	RiskScore       float64           `json:"risk_score"`
	Summary         string            `json:"summary"`
	Recommendations []string          `json:"recommendations,omitempty"`
}

// AnalysisResult is the parsed verdict for one piece of content.
type AnalysisResult struct {
	Abuse        *scoring.Judgment `json:"abuse_detection,omitempty"`
	Copyright    *scoring.Judgment `json:"copyright_risk,omitempty"`
	Commercial   *scoring.Judgment `json:"commercial_use,omitempty"`
	Repost       *scoring.Judgment `json:"repost_detection,omitempty"`
	Modification *scoring.Judgment `json:"content_modification,omitempty"`
	Overall      OverallAssessment `json:"overall_assessment"`
}

// Evidence converts the verdict into the shape the scorer consumes.
func (r *AnalysisResult) Evidence() scoring.AIEvidence {
	if r == nil {
		return scoring.AIEvidence{}
	}
	return scoring.AIEvidence{
		Abuse:        r.Abuse,
		Copyright:    r.Copyright,
		Commercial:   r.Commercial,
		Repost:       r.Repost,
		Modification: r.Modification,
	}
}

// Analyzer runs content through Gemini under a request rate cap.
type Analyzer struct {
	client  *GeminiClient
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewAnalyzer wraps client with a requests-per-minute limit (default 15,
// the free-tier Gemini quota).
func NewAnalyzer(client *GeminiClient, requestsPerMinute int) *Analyzer {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 15
	}
	return &Analyzer{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
		log:     slog.Default().With("component", "ai"),
	}
}

// Analyze submits one piece of content and returns the parsed verdict.
func (a *Analyzer) Analyze(ctx context.Context, input ContentInput) (*AnalysisResult, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	raw, err := a.client.Generate(ctx, BuildAnalysisPrompt(input), AnalysisSystemPrompt)
	if err != nil {
		metrics.LookupFailures.WithLabelValues("ai").Inc()
		return nil, fmt.Errorf("gemini request: %w", err)
	}

	result, err := parseVerdict(raw)
	if err != nil {
		metrics.LookupFailures.WithLabelValues("ai").Inc()
		a.log.Warn("discarding unparseable verdict", "domain", input.Domain, "error", err)
		return nil, err
	}

	a.log.Debug("content analyzed",
		"domain", input.Domain,
		"threat_level", result.Overall.ThreatLevel,
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// parseVerdict decodes the model's JSON reply. Gemini is asked for bare
// JSON but occasionally wraps it in markdown fences anyway.
func parseVerdict(raw string) (*AnalysisResult, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var result AnalysisResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("verdict is not valid JSON: %w", err)
	}
	if result.Abuse == nil && result.Copyright == nil && result.Commercial == nil &&
		result.Repost == nil && result.Modification == nil {
		return nil, fmt.Errorf("verdict carries no analysis categories")
	}

	for _, j := range []*scoring.Judgment{result.Abuse, result.Copyright, result.Commercial, result.Repost, result.Modification} {
		if j != nil {
			j.Label = strings.ToLower(strings.TrimSpace(j.Label))
		}
	}
	result.Overall.ThreatLevel = normalizeLevel(string(result.Overall.ThreatLevel))
	if result.Overall.RiskScore < 0 {
		result.Overall.RiskScore = 0
	}
	if result.Overall.RiskScore > 100 {
		result.Overall.RiskScore = 100
	}
	return &result, nil
}

func normalizeLevel(raw string) trust.ThreatLevel {
	switch level := trust.ThreatLevel(strings.ToUpper(strings.TrimSpace(raw))); level {
	case trust.LevelSafe, trust.LevelLow, trust.LevelMedium, trust.LevelHigh:
		return level
	default:
		return trust.LevelUnknown
	}
}

// BatchAnalysis pairs one input with its outcome.
type BatchAnalysis struct {
	Domain string          `json:"domain"`
	Result *AnalysisResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// AnalyzeBatch analyzes inputs with bounded concurrency, preserving input
// order. A failed item carries its error; the rest of the batch proceeds.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, inputs []ContentInput, maxConcurrency int) []BatchAnalysis {
	if maxConcurrency <= 0 {
		maxConcurrency = 3
	}

	results := make([]BatchAnalysis, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			res, err := a.Analyze(ctx, input)
			item := BatchAnalysis{Domain: input.Domain, Result: res}
			if err != nil {
				item.Error = err.Error()
			}
			results[i] = item
			return nil
		})
	}
	_ = g.Wait()
	return results
}
