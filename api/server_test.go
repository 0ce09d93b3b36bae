package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"threat-analysis-service/ai"
	"threat-analysis-service/scoring"
	"threat-analysis-service/stats"
	"threat-analysis-service/trust"
	"threat-analysis-service/whitelist"
)

type fakeRegistry struct {
	info *trust.RegistrationInfo
	err  error
}

func (f *fakeRegistry) Lookup(domain string) (*trust.RegistrationInfo, error) {
	return f.info, f.err
}

type fakeCertSource struct {
	cert *trust.CertificateInfo
	err  error
}

func (f *fakeCertSource) Lookup(domain string) (*trust.CertificateInfo, error) {
	return f.cert, f.err
}

// newTestServer wires a Server with fake lookups: every non-whitelisted
// domain appears 400 days old with a valid certificate.
func newTestServer(t *testing.T, analyzer *ai.Analyzer) *Server {
	t.Helper()

	created := time.Now().UTC().Add(-400 * 24 * time.Hour)
	registry := &fakeRegistry{info: &trust.RegistrationInfo{
		CreatedAt: &created,
		Registrar: "Example Registrar Inc.",
		Org:       "Example Org",
	}}
	certs := &fakeCertSource{cert: &trust.CertificateInfo{
		Available: true,
		Issuer:    "CN=R3,O=Let's Encrypt,C=US",
	}}

	store := whitelist.NewMemoryStore()
	jobs := stats.NewJobStore(time.Hour)
	t.Cleanup(jobs.Close)

	return &Server{
		Classifier:       trust.NewClassifier(store, registry, certs, time.Hour),
		Scorer:           scoring.NewScorer(),
		Analyzer:         analyzer,
		Whitelist:        store,
		Stats:            stats.NewStore(),
		Jobs:             jobs,
		StoreKind:        "memory",
		BatchConcurrency: 4,
	}
}

// fakeAnalyzer returns an Analyzer backed by a stub Gemini endpoint
// that always answers with the given verdict JSON.
func fakeAnalyzer(t *testing.T, verdictJSON string) *ai.Analyzer {
	t.Helper()

	payload := fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%s}]}}]}`, strconv.Quote(verdictJSON))
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, payload)
	}))
	t.Cleanup(stub.Close)

	client := ai.NewGeminiClient("test-key", "")
	client.BaseURL = stub.URL
	return ai.NewAnalyzer(client, 6000)
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request failed: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}

	var body struct {
		Service    string         `json:"service"`
		Status     string         `json:"status"`
		Components map[string]any `json:"components"`
	}
	decodeBody(t, resp, &body)

	if body.Service != "threat-analysis-service" {
		t.Errorf("Expected service name, got %q", body.Service)
	}
	if body.Status != "healthy" {
		t.Errorf("Expected healthy, got %q", body.Status)
	}
	if body.Components["whitelist"] != "memory" {
		t.Errorf("Expected memory whitelist, got %v", body.Components["whitelist"])
	}
	if body.Components["ai_analyzer"] != "disabled" {
		t.Errorf("Expected disabled analyzer, got %v", body.Components["ai_analyzer"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics failed: %v", err)
	}
	if !strings.Contains(string(data), "tas_") {
		t.Error("Expected tas_ metrics in exposition output")
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/nope")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}
