package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"threat-analysis-service/scoring"
	"threat-analysis-service/stats"
)

const maxScoreBatch = 10

type scoreRequest struct {
	scoring.ScoreRequest
	IncludeMetadata bool `json:"include_metadata,omitempty"`
}

type scoreBatchRequest struct {
	Assessments        []scoring.ScoreRequest `json:"assessments"`
	ParallelProcessing bool                   `json:"parallel_processing,omitempty"`
}

type scoreBatchItem struct {
	RequestID  string                   `json:"request_id"`
	Success    bool                     `json:"success"`
	Assessment scoring.ThreatAssessment `json:"assessment"`
}

// handleScore scores caller-supplied evidence without doing any
// lookups of its own.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start := time.Now()
	assessment := s.Scorer.CalculateScore(req.Domain, req.AI, req.Search, req.Content)

	s.Stats.RecordAssessment(stats.Record{
		Domain:       req.Domain.Domain,
		OverallScore: assessment.OverallScore,
		ThreatLevel:  assessment.ThreatLevel,
		RiskFactors:  assessment.RiskFactors,
		ProcessingMS: time.Since(start).Milliseconds(),
		CalculatedAt: assessment.CalculatedAt,
	})

	resp := map[string]any{
		"success":    assessment.ErrorMessage == "",
		"assessment": assessment,
		"request_id": uuid.NewString(),
	}
	if req.IncludeMetadata {
		resp["metadata"] = buildMetadata(req.ScoreRequest, assessment)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScoreBatch(w http.ResponseWriter, r *http.Request) {
	var req scoreBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Assessments) == 0 {
		s.writeError(w, http.StatusBadRequest, "assessments is required")
		return
	}
	if len(req.Assessments) > maxScoreBatch {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("maximum %d assessments per batch", maxScoreBatch))
		return
	}

	start := time.Now()
	job := s.Jobs.Create(len(req.Assessments))
	s.Jobs.Start(job.ID)

	result := s.Scorer.ScoreBatch(r.Context(), req.Assessments, req.ParallelProcessing, s.BatchConcurrency)

	items := make([]scoreBatchItem, len(result.Results))
	for i, assessment := range result.Results {
		items[i] = scoreBatchItem{
			RequestID:  fmt.Sprintf("batch_item_%d", i),
			Success:    assessment.ErrorMessage == "",
			Assessment: assessment,
		}
		s.Stats.RecordAssessment(stats.Record{
			Domain:       req.Assessments[i].Domain.Domain,
			OverallScore: assessment.OverallScore,
			ThreatLevel:  assessment.ThreatLevel,
			RiskFactors:  assessment.RiskFactors,
			CalculatedAt: assessment.CalculatedAt,
		})
		s.Jobs.Advance(job.ID)
	}
	s.Jobs.Complete(job.ID)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":            result.FailedCount == 0,
		"job_id":             job.ID,
		"total_count":        len(result.Results),
		"success_count":      result.SuccessCount,
		"failed_count":       result.FailedCount,
		"results":            items,
		"processing_time_ms": time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"statistics": s.Stats.Snapshot(),
	})
}

func (s *Server) handleScoreConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"settings": scoring.CurrentSettings(),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"summary": s.Stats.Summarize(period),
	})
}

// buildMetadata reports how much of the possible evidence the caller
// supplied, in quarters: domain, AI, search and content blocks.
func buildMetadata(req scoring.ScoreRequest, assessment scoring.ThreatAssessment) map[string]any {
	populated := 0
	if domainPopulated(req.Domain) {
		populated++
	}
	if req.AI.Abuse != nil || req.AI.Copyright != nil || req.AI.Commercial != nil ||
		req.AI.Repost != nil || req.AI.Modification != nil {
		populated++
	}
	if req.Search.Ranking != nil || req.Search.TrafficRank != nil || req.Search.SocialShares != nil {
		populated++
	}
	if req.Content.SimilarityScore != nil || req.Content.LastUpdated != nil {
		populated++
	}

	return map[string]any{
		"data_completeness": float64(populated) / 4.0,
		"reliability":       assessment.Confidence,
		"factors_analyzed":  len(assessment.RiskFactors),
	}
}

func domainPopulated(d scoring.DomainEvidence) bool {
	return d.Domain != "" || d.CreatedAt != nil || d.ExpiresAt != nil ||
		d.Whois != nil || d.SSL != nil || d.DNS != nil || d.Reputation != nil
}
