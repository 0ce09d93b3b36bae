package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"threat-analysis-service/ai"
	"threat-analysis-service/scoring"
	"threat-analysis-service/stats"
	"threat-analysis-service/trust"
)

const maxClassifyBatch = 50

type classifyRequest struct {
	URL string `json:"url"`
}

type classifyBatchRequest struct {
	URLs           []string `json:"urls"`
	MaxConcurrency int      `json:"max_concurrency,omitempty"`
}

type assessContent struct {
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
}

type assessRequest struct {
	URL     string         `json:"url"`
	Content *assessContent `json:"content,omitempty"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	signal, err := s.Classifier.Classify(r.Context(), req.URL)
	if err != nil {
		var extractErr *trust.ExtractionError
		if errors.As(err, &extractErr) {
			s.writeError(w, http.StatusBadRequest, extractErr.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"signal":  signal,
	})
}

func (s *Server) handleClassifyBatch(w http.ResponseWriter, r *http.Request) {
	var req classifyBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.URLs) == 0 {
		s.writeError(w, http.StatusBadRequest, "urls is required")
		return
	}
	if len(req.URLs) > maxClassifyBatch {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("maximum %d urls per batch", maxClassifyBatch))
		return
	}

	concurrency := req.MaxConcurrency
	if concurrency <= 0 {
		concurrency = s.BatchConcurrency
	}

	start := time.Now()
	job := s.Jobs.Create(len(req.URLs))
	s.Jobs.Start(job.ID)

	result := s.Classifier.ClassifyBatch(r.Context(), req.URLs, concurrency)
	for range result.Results {
		s.Jobs.Advance(job.ID)
	}
	s.Jobs.Complete(job.ID)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"job_id":             job.ID,
		"total_count":        len(result.Results),
		"success_count":      result.SuccessCount,
		"failed_count":       result.FailedCount,
		"results":            result.Results,
		"processing_time_ms": time.Since(start).Milliseconds(),
	})
}

// handleAssess runs the whole pipeline for one URL: classify, probe
// DNS, optionally analyze submitted page content, then score.
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	start := time.Now()
	signal, err := s.Classifier.Classify(r.Context(), req.URL)
	if err != nil {
		var extractErr *trust.ExtractionError
		if errors.As(err, &extractErr) {
			s.writeError(w, http.StatusBadRequest, extractErr.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dns := trust.ProbeDNS(signal.Domain)

	// Content analysis is best effort: a Gemini failure degrades the
	// assessment to domain evidence only instead of failing the call.
	var aiEvidence scoring.AIEvidence
	if req.Content != nil && s.Analyzer != nil {
		verdict, aerr := s.Analyzer.Analyze(r.Context(), ai.ContentInput{
			Domain: signal.Domain,
			URL:    req.URL,
			Title:  req.Content.Title,
			Text:   req.Content.Text,
		})
		if aerr != nil {
			s.log.Warn("content analysis skipped", "domain", signal.Domain, "error", aerr)
		} else {
			aiEvidence = verdict.Evidence()
		}
	}

	evidence := scoring.EvidenceFromSignal(signal, &dns)
	assessment := s.Scorer.CalculateScore(evidence, aiEvidence, scoring.SearchEvidence{}, scoring.ContentEvidence{})

	s.Stats.RecordAssessment(stats.Record{
		Domain:       signal.Domain,
		OverallScore: assessment.OverallScore,
		ThreatLevel:  assessment.ThreatLevel,
		RiskFactors:  assessment.RiskFactors,
		ProcessingMS: time.Since(start).Milliseconds(),
		CalculatedAt: assessment.CalculatedAt,
	})

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"signal":     signal,
		"dns":        dns,
		"assessment": assessment,
	})
}
