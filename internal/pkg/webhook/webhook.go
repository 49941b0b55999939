package webhook

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "time"

    "go.uber.org/zap"

    "sitewatch/internal/pkg/circuitbreaker"
    "sitewatch/internal/pkg/logger"
    "sitewatch/internal/pkg/metrics"
    "sitewatch/internal/pkg/report"
)

const (
    deliveryTimeout  = 10 * time.Second
    breakerThreshold = 3
    breakerReset     = 30 * time.Second
)

// Delivers formatted reports to the configured webhook endpoint. A circuit
// breaker keeps a large batch from hammering an endpoint that is down.
type Sender struct {
    client  *http.Client
    url     string
    breaker *circuitbreaker.CircuitBreaker
}

// Creates a new Sender for the given webhook URL.
func New(webhookURL string) *Sender {
    return &Sender{
        client:  &http.Client{Timeout: deliveryTimeout},
        url:     webhookURL,
        breaker: circuitbreaker.NewCircuitBreaker("webhook", breakerThreshold, breakerReset),
    }
}

// Posts the payload to the webhook. A failure is logged and returned but
// must never abort processing of the remaining URLs; deliveries are not
// retried.
func (s *Sender) Deliver(ctx context.Context, payload report.Payload, domain string) error {
    err := s.breaker.Execute(func() error {
        return s.post(ctx, payload)
    })
    if err != nil {
        metrics.DeliveryFailures.Inc()
        logger.Log.Error("Failed to deliver report",
            zap.String("domain", domain),
            zap.Error(err))
        return err
    }

    metrics.ReportsDelivered.Inc()
    logger.Log.Info("Delivered report",
        zap.String("domain", domain))
    return nil
}

func (s *Sender) post(ctx context.Context, payload report.Payload) error {
    body, err := json.Marshal(payload)
    if err != nil {
        return fmt.Errorf("marshaling payload: %w", err)
    }

    request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
    if err != nil {
        return fmt.Errorf("creating request: %w", err)
    }
    request.Header.Set("Content-Type", "application/json")

    response, err := s.client.Do(request)
    if err != nil {
        return err
    }
    defer response.Body.Close()

    if response.StatusCode < 200 || response.StatusCode >= 300 {
        return fmt.Errorf("webhook returned status %d", response.StatusCode)
    }
    return nil
}
