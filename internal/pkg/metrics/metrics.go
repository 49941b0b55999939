package metrics

import (
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

// Counts how many pages were fetched successfully.
var PagesFetched = promauto.NewCounter(prometheus.CounterOpts{
    Name: "sitewatch_pages_fetched_total",
    Help: "Total number of pages fetched successfully",
})

// Counts how many fetches failed after exhausting retries.
var FetchFailures = promauto.NewCounter(prometheus.CounterOpts{
    Name: "sitewatch_fetch_failures_total",
    Help: "Total number of fetches that failed after all retry attempts",
})

// Counts individual retry attempts beyond the first request.
var FetchRetries = promauto.NewCounter(prometheus.CounterOpts{
    Name: "sitewatch_fetch_retries_total",
    Help: "Total number of retry attempts issued by the fetcher",
})

// Measures wall-clock fetch duration.
var FetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
    Name:    "sitewatch_fetch_latency_seconds",
    Help:    "Time taken to fetch a page, including retries",
    Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // From 100ms to ~100s
})

// Counts reports delivered to the webhook.
var ReportsDelivered = promauto.NewCounter(prometheus.CounterOpts{
    Name: "sitewatch_reports_delivered_total",
    Help: "Total number of reports delivered to the webhook endpoint",
})

// Counts webhook deliveries that failed.
var DeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
    Name: "sitewatch_delivery_failures_total",
    Help: "Total number of webhook deliveries that failed",
})

// Counts URLs rejected by validation.
var InvalidURLs = promauto.NewCounter(prometheus.CounterOpts{
    Name: "sitewatch_invalid_urls_total",
    Help: "Total number of input URLs skipped as invalid",
})

// Counts pages whose content changed since the previous run.
var PagesChanged = promauto.NewCounter(prometheus.CounterOpts{
    Name: "sitewatch_pages_changed_total",
    Help: "Total number of pages flagged as changed by the change tracker",
})

// Current state of circuit breakers (0=closed, 1=half-open, 2=open).
var CircuitBreakerState = promauto.NewGaugeVec(
    prometheus.GaugeOpts{
        Name: "sitewatch_circuit_breaker_state",
        Help: "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
    },
    []string{"service"},
)
