package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"threat-analysis-service/ai"
	"threat-analysis-service/scoring"
	"threat-analysis-service/trust"
)

type classifyResponse struct {
	Success bool               `json:"success"`
	Signal  trust.DomainSignal `json:"signal"`
}

type classifyBatchResponse struct {
	Success          bool              `json:"success"`
	JobID            string            `json:"job_id"`
	TotalCount       int               `json:"total_count"`
	SuccessCount     int               `json:"success_count"`
	FailedCount      int               `json:"failed_count"`
	Results          []trust.BatchItem `json:"results"`
	ProcessingTimeMS int64             `json:"processing_time_ms"`
}

type assessResponse struct {
	Success    bool                     `json:"success"`
	Signal     trust.DomainSignal       `json:"signal"`
	DNS        trust.DNSPosture         `json:"dns"`
	Assessment scoring.ThreatAssessment `json:"assessment"`
}

func TestClassifyWhitelistedDomain(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/classify", map[string]string{
		"url": "https://docs.github.com/en/actions",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body classifyResponse
	decodeBody(t, resp, &body)

	if !body.Success {
		t.Error("Expected success")
	}
	if body.Signal.Domain != "github.com" {
		t.Errorf("Expected github.com, got %q", body.Signal.Domain)
	}
	if body.Signal.Subdomain != "docs" {
		t.Errorf("Expected docs subdomain, got %q", body.Signal.Subdomain)
	}
	if !body.Signal.IsWhitelisted {
		t.Error("Expected whitelisted signal")
	}
	if body.Signal.ThreatLevel != trust.LevelSafe {
		t.Errorf("Expected SAFE, got %s", body.Signal.ThreatLevel)
	}
	if body.Signal.Confidence != 1.0 {
		t.Errorf("Expected confidence 1.0, got %f", body.Signal.Confidence)
	}
}

func TestClassifyUnlistedDomain(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/classify", map[string]string{
		"url": "https://fresh-pick.example/shop",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body classifyResponse
	decodeBody(t, resp, &body)

	if body.Signal.IsWhitelisted {
		t.Error("Expected non-whitelisted signal")
	}
	// No suspicious lexical patterns, 400-day registration, valid
	// certificate: the baseline MEDIUM verdict stands untouched.
	if body.Signal.ThreatLevel != trust.LevelMedium {
		t.Errorf("Expected MEDIUM, got %s", body.Signal.ThreatLevel)
	}
	if body.Signal.Confidence != 0.5 {
		t.Errorf("Expected confidence 0.5, got %f", body.Signal.Confidence)
	}
	if body.Signal.Registration == nil || body.Signal.Registration.Registrar == "" {
		t.Error("Expected registration evidence in signal")
	}
	if body.Signal.Certificate == nil || !body.Signal.Certificate.Available {
		t.Error("Expected certificate evidence in signal")
	}
}

func TestClassifyRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	cases := []struct {
		name string
		body map[string]string
	}{
		{"missing url", map[string]string{}},
		{"empty host", map[string]string{"url": "http://"}},
		{"unparseable url", map[string]string{"url": "http://exa mple.com"}},
	}
	for _, tc := range cases {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/classify", tc.body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: Expected 400, got %d", tc.name, resp.StatusCode)
		}
	}
}

func TestClassifyBatchPreservesOrderAndCounts(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/classify/batch", map[string]any{
		"urls": []string{
			"https://github.com/octocat",
			"http://",
			"https://en.wikipedia.org/wiki/Go",
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body classifyBatchResponse
	decodeBody(t, resp, &body)

	if body.TotalCount != 3 {
		t.Fatalf("Expected 3 results, got %d", body.TotalCount)
	}
	if body.SuccessCount != 2 || body.FailedCount != 1 {
		t.Errorf("Expected 2 succeeded / 1 failed, got %d / %d", body.SuccessCount, body.FailedCount)
	}
	if body.Results[0].Signal == nil || body.Results[0].Signal.Domain != "github.com" {
		t.Errorf("Expected github.com first, got %+v", body.Results[0])
	}
	if body.Results[1].Error == "" {
		t.Error("Expected error for empty-host url")
	}
	if body.Results[2].Signal == nil || body.Results[2].Signal.Domain != "wikipedia.org" {
		t.Errorf("Expected wikipedia.org last, got %+v", body.Results[2])
	}
	if body.JobID == "" {
		t.Error("Expected job id in batch response")
	}

	job, ok := srv.Jobs.Get(body.JobID)
	if !ok {
		t.Fatal("Expected job to be tracked")
	}
	if job.Completed != 3 {
		t.Errorf("Expected 3 completed items, got %d", job.Completed)
	}
}

func TestClassifyBatchRejectsOversizedRequest(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	urls := make([]string, maxClassifyBatch+1)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://site-%d.example", i)
	}

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/classify/batch", map[string]any{"urls": urls})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestAssessWithoutContent(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/assess", map[string]any{
		"url": "https://fresh-pick.example/login",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body assessResponse
	decodeBody(t, resp, &body)

	if !body.Success {
		t.Error("Expected success")
	}
	if body.Signal.Domain != "fresh-pick.example" {
		t.Errorf("Expected fresh-pick.example, got %q", body.Signal.Domain)
	}
	if body.Assessment.ThreatLevel == trust.LevelUnknown || body.Assessment.ThreatLevel == "" {
		t.Errorf("Expected a definite threat level, got %q", body.Assessment.ThreatLevel)
	}
	if body.Assessment.OverallScore < 0 || body.Assessment.OverallScore > 100 {
		t.Errorf("Score out of range: %f", body.Assessment.OverallScore)
	}

	if got := srv.Stats.Snapshot().TotalAssessments; got != 1 {
		t.Errorf("Expected 1 recorded assessment, got %d", got)
	}
}

func TestAssessWithContentAnalysis(t *testing.T) {
	verdict := `{
		"abuse_detection": {
			"label": "high",
			"confidence": 0.9,
			"evidence": ["login form asks for account credentials"]
		},
		"overall_assessment": {
			"threat_level": "HIGH",
			"risk_score": 88,
			"summary": "Credential phishing page impersonating a storefront."
		}
	}`
	srv := newTestServer(t, fakeAnalyzer(t, verdict))
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/assess", map[string]any{
		"url": "https://fresh-pick.example/login",
		"content": map[string]string{
			"title": "Sign in",
			"text":  "Enter your account password to continue shopping.",
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body assessResponse
	decodeBody(t, resp, &body)

	// 400-day registration and a valid certificate leave exactly one
	// triggered rule: the high abuse label from content analysis.
	if len(body.Assessment.RiskFactors) != 1 || body.Assessment.RiskFactors[0] != "High abuse risk detected" {
		t.Errorf("Expected only the abuse risk factor, got %v", body.Assessment.RiskFactors)
	}
	if body.Assessment.Components.AIAnalysis.Score <= 40 {
		t.Errorf("Expected AI component above the neutral band, got %f", body.Assessment.Components.AIAnalysis.Score)
	}
}

func TestAssessDegradesWhenAnalyzerFails(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer stub.Close()

	client := ai.NewGeminiClient("test-key", "")
	client.BaseURL = stub.URL
	srv := newTestServer(t, ai.NewAnalyzer(client, 6000))
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	// A Gemini failure must degrade the assessment to domain evidence
	// only, never fail the request.
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/assess", map[string]any{
		"url":     "https://fresh-pick.example/login",
		"content": map[string]string{"text": "some page text"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body assessResponse
	decodeBody(t, resp, &body)
	if !body.Success {
		t.Error("Expected success despite analyzer failure")
	}
	if body.Assessment.ThreatLevel == trust.LevelUnknown {
		t.Error("Expected a scored assessment")
	}
}
