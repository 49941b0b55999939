package fetcher

import (
    "context"
    "fmt"
    "io"
    "net/http"
    "time"

    "go.uber.org/zap"

    "sitewatch/internal/pkg/logger"
    "sitewatch/internal/pkg/metrics"
    "sitewatch/internal/pkg/models"
)

// Status codes considered transient: the fetch is retried with backoff.
var retryableStatus = map[int]bool{
    http.StatusTooManyRequests:     true,
    http.StatusInternalServerError: true,
    http.StatusBadGateway:          true,
    http.StatusServiceUnavailable:  true,
    http.StatusGatewayTimeout:      true,
}

// Retrieves raw page content with bounded retry on transient failures.
type Fetcher struct {
    client      *http.Client
    userAgent   string
    maxAttempts int
    baseDelay   time.Duration
}

// Creates a new Fetcher. The timeout applies per request attempt.
func New(timeout time.Duration, userAgent string, maxAttempts int, baseDelay time.Duration) *Fetcher {
    if maxAttempts < 1 {
        maxAttempts = 1
    }
    return &Fetcher{
        client:      &http.Client{Timeout: timeout},
        userAgent:   userAgent,
        maxAttempts: maxAttempts,
        baseDelay:   baseDelay,
    }
}

// Fetches the given URL with a GET request. Never returns an error: every
// outcome, including exhausted retries, is folded into the FetchResult so
// the caller can always produce a report.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) models.FetchResult {
    return f.do(ctx, http.MethodGet, rawURL)
}

func (f *Fetcher) do(ctx context.Context, method, rawURL string) models.FetchResult {
    var (
        lastStatus int
        lastErr    error
    )

    start := time.Now()
    for attempt := 1; attempt <= f.maxAttempts; attempt++ {
        if attempt > 1 {
            metrics.FetchRetries.Inc()
            if err := f.wait(ctx, attempt); err != nil {
                lastErr = err
                break
            }
        }

        status, body, headers, err := f.attempt(ctx, method, rawURL)
        if err != nil {
            lastErr = err
            logger.Log.Warn("Fetch attempt failed",
                zap.String("url", rawURL),
                zap.Int("attempt", attempt),
                zap.Error(err))
            if !isIdempotent(method) {
                break
            }
            continue
        }

        lastStatus = status
        if retryableStatus[status] && isIdempotent(method) {
            lastErr = fmt.Errorf("transient status %d", status)
            logger.Log.Warn("Fetch attempt returned transient status",
                zap.String("url", rawURL),
                zap.Int("attempt", attempt),
                zap.Int("status_code", status))
            continue
        }

        loadTime := time.Since(start).Seconds()
        if status >= 400 {
            logger.Log.Error("Fetch failed",
                zap.String("url", rawURL),
                zap.Int("status_code", status),
                zap.Float64("load_time", loadTime))
            metrics.FetchFailures.Inc()
            return models.FetchResult{
                URL:        rawURL,
                StatusCode: status,
                Headers:    headers,
                Err:        fmt.Errorf("unexpected status %d for %s", status, rawURL),
            }
        }

        logger.Log.Info("Fetched page",
            zap.String("url", rawURL),
            zap.Int("status_code", status),
            zap.Float64("load_time", loadTime))
        metrics.PagesFetched.Inc()
        metrics.FetchLatency.Observe(loadTime)
        return models.FetchResult{
            URL:        rawURL,
            HTML:       body,
            StatusCode: status,
            Headers:    headers,
            LoadTime:   loadTime,
        }
    }

    if lastErr == nil {
        lastErr = fmt.Errorf("fetch failed for %s", rawURL)
    }
    logger.Log.Error("Fetch failed after all attempts",
        zap.String("url", rawURL),
        zap.Int("attempts", f.maxAttempts),
        zap.Int("status_code", lastStatus),
        zap.Error(lastErr))
    metrics.FetchFailures.Inc()
    return models.FetchResult{
        URL:        rawURL,
        StatusCode: lastStatus,
        Headers:    http.Header{},
        Err:        lastErr,
    }
}

// Issues a single request attempt and reads the full body.
func (f *Fetcher) attempt(ctx context.Context, method, rawURL string) (int, string, http.Header, error) {
    request, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
    if err != nil {
        return 0, "", nil, fmt.Errorf("creating request: %w", err)
    }
    request.Header.Set("User-Agent", f.userAgent)

    response, err := f.client.Do(request)
    if err != nil {
        return 0, "", nil, err
    }
    defer response.Body.Close()

    body, err := io.ReadAll(response.Body)
    if err != nil {
        return 0, "", nil, fmt.Errorf("reading response body: %w", err)
    }
    return response.StatusCode, string(body), response.Header, nil
}

// Sleeps for the exponential backoff delay before the given attempt,
// honoring context cancellation.
func (f *Fetcher) wait(ctx context.Context, attempt int) error {
    delay := f.baseDelay * time.Duration(1<<(attempt-2))
    timer := time.NewTimer(delay)
    defer timer.Stop()
    select {
    case <-ctx.Done():
        return ctx.Err()
    case <-timer.C:
        return nil
    }
}

// The retry policy only applies to idempotent methods. Only GET is issued
// today, but the gate is kept in case other verbs show up.
func isIdempotent(method string) bool {
    switch method {
    case http.MethodGet, http.MethodHead, http.MethodOptions:
        return true
    }
    return false
}
