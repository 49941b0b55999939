package pipeline

import (
    "context"
    "net/url"
    "strings"
    "time"

    "go.uber.org/zap"

    "sitewatch/internal/pkg/changetracker"
    "sitewatch/internal/pkg/config"
    "sitewatch/internal/pkg/contentcheck"
    "sitewatch/internal/pkg/extractor"
    "sitewatch/internal/pkg/fetcher"
    "sitewatch/internal/pkg/logger"
    "sitewatch/internal/pkg/metrics"
    "sitewatch/internal/pkg/models"
    "sitewatch/internal/pkg/queue"
    "sitewatch/internal/pkg/report"
    "sitewatch/internal/pkg/webhook"
    "sitewatch/internal/pkg/worker"
)

// Drives each URL through fetch, extract, format, and deliver. URLs are
// fully independent of each other: no failure in one may affect another.
type Pipeline struct {
    fetcher       *fetcher.Fetcher
    extractor     *extractor.Extractor
    checker       *contentcheck.Checker
    tracker       changetracker.Tracker
    sender        *webhook.Sender
    numWorkers    int
    queueCapacity int
}

// Creates a new Pipeline and wires in the sub-components from config.
// Optional collaborators (watch phrases, change tracking) stay nil when
// disabled.
func New(cfg *config.Config) (*Pipeline, error) {
    pipeline := &Pipeline{
        fetcher: fetcher.New(
            time.Duration(cfg.RequestTimeoutSeconds)*time.Second,
            cfg.UserAgent,
            cfg.MaxAttempts,
            time.Duration(cfg.RetryBaseDelaySeconds)*time.Second,
        ),
        extractor:     extractor.New(cfg.DetectLanguage),
        sender:        webhook.New(cfg.WebhookURL),
        numWorkers:    cfg.NumWorkers,
        queueCapacity: cfg.QueueCapacity,
    }

    if cfg.WatchPhrases != "" {
        pipeline.checker = contentcheck.New(strings.Split(cfg.WatchPhrases, ","))
    }

    if cfg.TrackChanges {
        tracker, err := changetracker.NewRedisTracker(cfg)
        if err != nil {
            return nil, err
        }
        pipeline.tracker = tracker
    }

    return pipeline, nil
}

// Validates the batch, enqueues the valid URLs in input order, and runs
// the worker pool until the queue is drained.
func (p *Pipeline) Run(ctx context.Context, urls []string) error {
    capacity := p.queueCapacity
    if len(urls) > capacity {
        capacity = len(urls)
    }
    batch, err := queue.CreateQueue(capacity)
    if err != nil {
        return err
    }

    for _, rawURL := range urls {
        if !IsValidURL(rawURL) {
            metrics.InvalidURLs.Inc()
            logger.Log.Warn("Invalid URL skipped", zap.String("url", rawURL))
            continue
        }
        if err := batch.Insert(rawURL); err != nil {
            logger.Log.Warn("Failed to enqueue URL", zap.String("url", rawURL), zap.Error(err))
        }
    }

    if batch.Length() == 0 {
        logger.Log.Warn("No valid URLs to process")
        return nil
    }

    pool := worker.NewWorkerPool(p.numWorkers, batch, p)
    pool.Start(ctx)
    pool.Wait()
    return nil
}

// Processes one URL to completion. Every outcome, including a failed
// fetch, ends in a delivered report.
func (p *Pipeline) ProcessURL(ctx context.Context, rawURL string) {
    logger.Log.Info("Starting check", zap.String("url", rawURL))

    result := p.fetcher.Fetch(ctx, rawURL)

    var record models.PageRecord
    if result.Success() {
        record = p.extractor.Extract(result.HTML, rawURL, result.Headers, result.LoadTime)
        p.enrich(&record)
    } else {
        record = models.NewFailureRecord(rawURL)
    }

    domain := hostOf(rawURL)
    payload := report.Format(record, domain, rawURL, result.StatusCode)

    // Delivery failures are logged by the sender; processing continues.
    _ = p.sender.Deliver(ctx, payload, domain)
}

// Applies the optional enrichment steps to a successfully extracted record.
func (p *Pipeline) enrich(record *models.PageRecord) {
    if p.tracker != nil {
        record.ContentChanged = p.tracker.Check(record.URL, changetracker.GenerateSignature(*record))
    }
    if p.checker != nil {
        scan := p.checker.Scan(watchText(*record))
        record.WatchScore = scan.Score
        record.WatchMatches = scan.Matches
    }
}

// The text surface the watch-phrase checker scans.
func watchText(record models.PageRecord) string {
    parts := []string{record.Title}
    parts = append(parts, record.Headlines...)
    parts = append(parts, record.Subheadlines...)
    parts = append(parts, record.Summaries...)
    return strings.Join(parts, "\n")
}

// Reports whether the URL has an http or https scheme and a non-empty host.
func IsValidURL(rawURL string) bool {
    parsed, err := url.Parse(rawURL)
    if err != nil {
        return false
    }
    return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func hostOf(rawURL string) string {
    if parsed, err := url.Parse(rawURL); err == nil {
        return parsed.Host
    }
    return rawURL
}
