package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"sitewatch/internal/pkg/logger"
	"sitewatch/internal/pkg/models"
	"sitewatch/internal/pkg/report"
)

func init() {
	// Ensure that the logger is not nil during tests.
	logger.Log = zap.NewNop()
}

func testPayload() report.Payload {
	return report.Format(models.NewFailureRecord("http://a.com/"), "a.com", "http://a.com/", 0)
}

// Verifies that the full payload reaches the endpoint as JSON.
func TestDeliverSuccess(t *testing.T) {
	bodyCh := make(chan []byte, 1)

	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %q", ct)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("Failed to read request body: %v", err)
		}
		bodyCh <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer testServer.Close()

	sender := New(testServer.URL)
	if err := sender.Deliver(context.Background(), testPayload(), "a.com"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var decoded report.Payload
	if err := json.Unmarshal(<-bodyCh, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal delivered payload: %v", err)
	}
	if decoded.Username != "Sitewatch Bot" {
		t.Errorf("Unexpected username %q", decoded.Username)
	}
	if len(decoded.Embeds) != 1 {
		t.Errorf("Expected 1 embed, got %d", len(decoded.Embeds))
	}
}

// Non-2xx responses are failures and are not retried.
func TestDeliverRejectedPayload(t *testing.T) {
	var attempts int

	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer testServer.Close()

	sender := New(testServer.URL)
	if err := sender.Deliver(context.Background(), testPayload(), "a.com"); err == nil {
		t.Fatal("Expected error for rejected payload")
	}
	if attempts != 1 {
		t.Errorf("Expected exactly 1 delivery attempt, got %d", attempts)
	}
}

// After enough consecutive failures the circuit opens and later deliveries
// fail fast without reaching the endpoint.
func TestDeliverCircuitOpens(t *testing.T) {
	var attempts int

	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer testServer.Close()

	sender := New(testServer.URL)
	for i := 0; i < breakerThreshold+2; i++ {
		if err := sender.Deliver(context.Background(), testPayload(), "a.com"); err == nil {
			t.Fatalf("Expected error on delivery %d", i)
		}
	}

	if attempts != breakerThreshold {
		t.Errorf("Expected %d attempts before the circuit opened, got %d", breakerThreshold, attempts)
	}
}

// An unreachable endpoint is reported as a failure, not a panic or hang.
func TestDeliverUnreachableEndpoint(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := testServer.URL
	testServer.Close()

	sender := New(deadURL)
	if err := sender.Deliver(context.Background(), testPayload(), "a.com"); err == nil {
		t.Fatal("Expected error for unreachable endpoint")
	}
}
