package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.uber.org/zap"

	"sitewatch/internal/pkg/config"
	"sitewatch/internal/pkg/logger"
	"sitewatch/internal/pkg/report"
)

func init() {
	// Ensure that the logger is not nil during tests.
	logger.Log = zap.NewNop()
}

// For all URLs: valid iff scheme is http/https and the host is non-empty.
func TestIsValidURL(t *testing.T) {
	valid := []string{
		"http://example.com",
		"https://example.com/path?q=1",
		"http://localhost:8080",
	}
	for _, url := range valid {
		if !IsValidURL(url) {
			t.Errorf("Expected %q to be valid", url)
		}
	}

	invalid := []string{
		"",
		"example.com",
		"ftp://example.com",
		"http://",
		"javascript:void(0)",
		"://missing-scheme.com",
	}
	for _, url := range invalid {
		if IsValidURL(url) {
			t.Errorf("Expected %q to be invalid", url)
		}
	}
}

// Collects webhook payloads delivered during a test run.
type webhookCapture struct {
	mu       sync.Mutex
	payloads []report.Payload
}

func (wc *webhookCapture) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload report.Payload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		wc.mu.Lock()
		wc.payloads = append(wc.payloads, payload)
		wc.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}
}

func (wc *webhookCapture) all() []report.Payload {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	return append([]report.Payload(nil), wc.payloads...)
}

func testConfig(webhookURL string) *config.Config {
	return &config.Config{
		WebhookURL:            webhookURL,
		RequestTimeoutSeconds: 2,
		MaxAttempts:           1,
		RetryBaseDelaySeconds: 0,
		UserAgent:             "sitewatch-test",
		NumWorkers:            1,
		QueueCapacity:         10,
	}
}

// End to end: a healthy page produces a green report with extracted fields,
// a dead host produces a red all-sentinel report, and the failure does not
// halt processing of the remaining URLs.
func TestRunIsolatesFailures(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html lang="en"><head><title>Healthy</title></head><body><h1>Up</h1></body></html>`))
	}))
	defer page.Close()

	// A URL whose host refuses connections.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	capture := &webhookCapture{}
	sink := httptest.NewServer(capture.handler())
	defer sink.Close()

	p, err := New(testConfig(sink.URL))
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}

	urls := []string{deadURL, "not-a-url", page.URL}
	if err := p.Run(context.Background(), urls); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	payloads := capture.all()
	if len(payloads) != 2 {
		t.Fatalf("Expected 2 delivered reports (invalid URL skipped), got %d", len(payloads))
	}

	// First report is the fetch failure: red, sentinel title.
	failure := payloads[0].Embeds[0]
	if failure.Color != 0xe74c3c {
		t.Errorf("Expected red embed for failed fetch, got %#x", failure.Color)
	}
	var failureTitle string
	for _, field := range failure.Fields {
		if field.Name == "Title" {
			failureTitle = field.Value
		}
	}
	if failureTitle != "N/A" {
		t.Errorf("Expected sentinel title in failure report, got %q", failureTitle)
	}

	// Second report is the healthy page: green, extracted title.
	success := payloads[1].Embeds[0]
	if success.Color != 0x2ecc71 {
		t.Errorf("Expected green embed for healthy page, got %#x", success.Color)
	}
	var successTitle string
	for _, field := range success.Fields {
		if field.Name == "Title" {
			successTitle = field.Value
		}
	}
	if successTitle != "Healthy" {
		t.Errorf("Expected extracted title, got %q", successTitle)
	}
}

// A failing webhook must not stop the batch.
func TestRunContinuesOnDeliveryFailure(t *testing.T) {
	var pagesServed int
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pagesServed++
		w.Write([]byte(`<html><head><title>Page</title></head></html>`))
	}))
	defer page.Close()

	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rejected", http.StatusBadRequest)
	}))
	defer sink.Close()

	p, err := New(testConfig(sink.URL))
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}

	urls := []string{page.URL + "/one", page.URL + "/two"}
	if err := p.Run(context.Background(), urls); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if pagesServed != 2 {
		t.Errorf("Expected both URLs to be processed despite delivery failures, got %d", pagesServed)
	}
}

// Watch phrases configured through the config surface in the record.
func TestWatchPhraseEnrichment(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Store</title></head><body><h1>Item is out of stock</h1></body></html>`))
	}))
	defer page.Close()

	capture := &webhookCapture{}
	sink := httptest.NewServer(capture.handler())
	defer sink.Close()

	cfg := testConfig(sink.URL)
	cfg.WatchPhrases = "out of stock, recalled"

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}
	if err := p.Run(context.Background(), []string{page.URL}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	payloads := capture.all()
	if len(payloads) != 1 {
		t.Fatalf("Expected 1 report, got %d", len(payloads))
	}

	found := false
	for _, field := range payloads[0].Embeds[0].Fields {
		if field.Name == "Watch Phrases Hit (1)" {
			found = true
		}
	}
	if !found {
		t.Error("Expected a watch phrase field in the report")
	}
}
