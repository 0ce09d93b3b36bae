package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"threat-analysis-service/scoring"
	"threat-analysis-service/stats"
)

type scoreResponse struct {
	Success    bool                     `json:"success"`
	Assessment scoring.ThreatAssessment `json:"assessment"`
	RequestID  string                   `json:"request_id"`
	Metadata   *struct {
		DataCompleteness float64 `json:"data_completeness"`
		Reliability      float64 `json:"reliability"`
		FactorsAnalyzed  int     `json:"factors_analyzed"`
	} `json:"metadata"`
}

type scoreBatchResponse struct {
	Success          bool             `json:"success"`
	JobID            string           `json:"job_id"`
	TotalCount       int              `json:"total_count"`
	SuccessCount     int              `json:"success_count"`
	FailedCount      int              `json:"failed_count"`
	Results          []scoreBatchItem `json:"results"`
	ProcessingTimeMS int64            `json:"processing_time_ms"`
}

func TestScoreWithMetadata(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	tenDaysAgo := time.Now().UTC().Add(-10 * 24 * time.Hour)
	req := scoreRequest{
		ScoreRequest: scoring.ScoreRequest{
			Domain: scoring.DomainEvidence{
				Domain:    "example-shop.net",
				CreatedAt: &tenDaysAgo,
				SSL:       &scoring.SSLDetail{HasSSL: false},
			},
		},
		IncludeMetadata: true,
	}

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/score", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body scoreResponse
	decodeBody(t, resp, &body)

	if !body.Success {
		t.Errorf("Expected success, got error %q", body.Assessment.ErrorMessage)
	}
	if body.RequestID == "" {
		t.Error("Expected a request id")
	}
	if body.Metadata == nil {
		t.Fatal("Expected metadata when include_metadata is set")
	}
	// Only the domain block of the four evidence groups is populated.
	if body.Metadata.DataCompleteness != 0.25 {
		t.Errorf("Expected completeness 0.25, got %f", body.Metadata.DataCompleteness)
	}
	if body.Metadata.FactorsAnalyzed != 2 {
		t.Errorf("Expected 2 factors, got %d", body.Metadata.FactorsAnalyzed)
	}

	wantFactors := map[string]bool{
		"New domain (registered less than 30 days ago)": false,
		"No SSL certificate":                            false,
	}
	for _, f := range body.Assessment.RiskFactors {
		if _, ok := wantFactors[f]; ok {
			wantFactors[f] = true
		}
	}
	for f, seen := range wantFactors {
		if !seen {
			t.Errorf("Expected risk factor %q, got %v", f, body.Assessment.RiskFactors)
		}
	}
}

func TestScoreWithoutMetadata(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/score", scoreRequest{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body scoreResponse
	decodeBody(t, resp, &body)
	if body.Metadata != nil {
		t.Error("Expected no metadata by default")
	}
	if body.Assessment.OverallScore < 0 || body.Assessment.OverallScore > 100 {
		t.Errorf("Score out of range: %f", body.Assessment.OverallScore)
	}
}

func TestScoreBatchParallel(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	tenDaysAgo := time.Now().UTC().Add(-10 * 24 * time.Hour)
	req := scoreBatchRequest{
		Assessments: []scoring.ScoreRequest{
			{Domain: scoring.DomainEvidence{Domain: "first.example"}},
			{Domain: scoring.DomainEvidence{
				Domain:    "second.example",
				CreatedAt: &tenDaysAgo,
				SSL:       &scoring.SSLDetail{HasSSL: false},
			}},
		},
		ParallelProcessing: true,
	}

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/score/batch", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body scoreBatchResponse
	decodeBody(t, resp, &body)

	if !body.Success {
		t.Error("Expected batch success with no failed items")
	}
	if body.TotalCount != 2 || body.SuccessCount != 2 || body.FailedCount != 0 {
		t.Errorf("Unexpected counts: total %d success %d failed %d",
			body.TotalCount, body.SuccessCount, body.FailedCount)
	}
	if body.Results[0].RequestID != "batch_item_0" || body.Results[1].RequestID != "batch_item_1" {
		t.Errorf("Expected positional request ids, got %q and %q",
			body.Results[0].RequestID, body.Results[1].RequestID)
	}
	if body.ProcessingTimeMS < 0 {
		t.Errorf("Negative processing time: %d", body.ProcessingTimeMS)
	}

	job, ok := srv.Jobs.Get(body.JobID)
	if !ok {
		t.Fatal("Expected job to be tracked")
	}
	if job.State != stats.JobCompleted {
		t.Errorf("Expected completed job, got %s", job.State)
	}
	if job.Completed != 2 {
		t.Errorf("Expected 2 completed items, got %d", job.Completed)
	}

	if got := srv.Stats.Snapshot().TotalAssessments; got != 2 {
		t.Errorf("Expected 2 recorded assessments, got %d", got)
	}
}

func TestScoreBatchRejectsOversizedRequest(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	req := scoreBatchRequest{Assessments: make([]scoring.ScoreRequest, maxScoreBatch+1)}
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/score/batch", req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestScoreConfigReportsWeightsAndBands(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/score/config")
	if err != nil {
		t.Fatalf("config request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Success  bool             `json:"success"`
		Settings scoring.Settings `json:"settings"`
	}
	decodeBody(t, resp, &body)

	if got := body.Settings.Weights.TopLevel["domain_trust"]; got != 0.40 {
		t.Errorf("Expected domain_trust weight 0.40, got %f", got)
	}
	if got := body.Settings.Weights.AIAnalysis["abuse_detection"]; got != 0.35 {
		t.Errorf("Expected abuse_detection weight 0.35, got %f", got)
	}
	if body.Settings.Thresholds.High != "80-100" {
		t.Errorf("Expected HIGH band 80-100, got %q", body.Settings.Thresholds.High)
	}
	if body.Settings.Thresholds.Safe != "0-39" {
		t.Errorf("Expected SAFE band 0-39, got %q", body.Settings.Thresholds.Safe)
	}
}

func TestStatisticsAndSummaryEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	for _, domain := range []string{"one.example", "two.example"} {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/score", scoreRequest{
			ScoreRequest: scoring.ScoreRequest{
				Domain: scoring.DomainEvidence{Domain: domain},
			},
		})
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/api/v1/score/statistics")
	if err != nil {
		t.Fatalf("statistics request failed: %v", err)
	}
	var statsBody struct {
		Success    bool             `json:"success"`
		Statistics stats.Statistics `json:"statistics"`
	}
	decodeBody(t, resp, &statsBody)
	if statsBody.Statistics.TotalAssessments != 2 {
		t.Errorf("Expected 2 assessments, got %d", statsBody.Statistics.TotalAssessments)
	}

	resp, err = http.Get(ts.URL + "/api/v1/score/summary?period=24h")
	if err != nil {
		t.Fatalf("summary request failed: %v", err)
	}
	var summaryBody struct {
		Success bool          `json:"success"`
		Summary stats.Summary `json:"summary"`
	}
	decodeBody(t, resp, &summaryBody)
	if summaryBody.Summary.Period != "24h" {
		t.Errorf("Expected period 24h, got %q", summaryBody.Summary.Period)
	}
	if summaryBody.Summary.TotalAssessments != 2 {
		t.Errorf("Expected 2 assessments in window, got %d", summaryBody.Summary.TotalAssessments)
	}
}
