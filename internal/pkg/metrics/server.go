package metrics

import (
    "encoding/json"
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus/promhttp"
    "go.uber.org/zap"

    "sitewatch/internal/pkg/logger"
)

// Starts the monitoring endpoint in a background goroutine: /metrics for
// Prometheus and /health for liveness checks. Intended for long-running or
// scheduler-driven deployments; disabled unless a port is configured.
func StartServer(port string) {
    startTime := time.Now()

    mux := http.NewServeMux()
    mux.Handle("/metrics", promhttp.Handler())
    mux.HandleFunc("/health", func(writer http.ResponseWriter, request *http.Request) {
        health := struct {
            Status    string    `json:"status"`
            Uptime    string    `json:"uptime"`
            StartTime time.Time `json:"start_time"`
        }{
            Status:    "OK",
            Uptime:    time.Since(startTime).String(),
            StartTime: startTime,
        }

        writer.Header().Set("Content-Type", "application/json")
        json.NewEncoder(writer).Encode(health)
    })

    logger.Log.Info("Monitoring endpoint listening", zap.String("address", ":"+port))

    go func() {
        if err := http.ListenAndServe(":"+port, mux); err != nil {
            logger.Log.Error("Monitoring endpoint failed", zap.Error(err))
        }
    }()
}
