package changetracker

import (
    "context"
    "crypto/sha256"
    "encoding/hex"
    "fmt"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "sitewatch/internal/pkg/config"
    "sitewatch/internal/pkg/logger"
    "sitewatch/internal/pkg/metrics"
    "sitewatch/internal/pkg/models"
)

// Defines the interface for content change checking between runs.
type Tracker interface {
    // Check compares the page signature with the one stored for this URL,
    // stores the new signature, and reports whether the content changed.
    Check(url, signature string) models.ChangeState
}

// Implements the Tracker interface with Redis as the backing store.
type redisTracker struct {
    client    *redis.Client
    keyPrefix string
}

// Creates a new instance of redisTracker. Signatures are stored per URL
// under a common key prefix.
func NewRedisTracker(config *config.Config) (Tracker, error) {
    rdb := redis.NewClient(&redis.Options{
        Addr:     fmt.Sprintf("%s:%s", config.RedisHost, config.RedisPort),
        Password: config.RedisPassword, // "" if no auth
        DB:       config.RedisDB,
    })

    // Test connection
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := rdb.Ping(ctx).Err(); err != nil {
        logger.Log.Error("Failed to connect to Redis", zap.Error(err))
        return nil, err
    }

    logger.Log.Info("Connected to Redis successfully",
        zap.String("host", config.RedisHost),
        zap.String("port", config.RedisPort),
    )

    return &redisTracker{
        client:    rdb,
        keyPrefix: "sitewatch_signatures",
    }, nil
}

func (tracker *redisTracker) Check(url, signature string) models.ChangeState {
    ctx, cancel := context.WithTimeout(context.Background(), time.Second)
    defer cancel()

    key := tracker.keyPrefix + ":" + url
    previous, err := tracker.client.Get(ctx, key).Result()

    if storeErr := tracker.client.Set(ctx, key, signature, 0).Err(); storeErr != nil {
        logger.Log.Error("Failed to store page signature in Redis", zap.Error(storeErr))
    }

    switch {
    case err == redis.Nil:
        // First time we see this URL.
        return models.ChangeUnknown
    case err != nil:
        logger.Log.Error("Redis signature lookup failed", zap.Error(err))
        return models.ChangeUnknown
    case previous == signature:
        return models.ChangeUnchanged
    default:
        metrics.PagesChanged.Inc()
        return models.ChangeChanged
    }
}

// Creates a SHA-256 hash over the fields that describe the page content,
// so header-only differences do not count as a content change.
func GenerateSignature(record models.PageRecord) string {
    parts := []string{
        record.Title,
        record.MetaDescription,
        strings.Join(record.Headlines, "\n"),
        strings.Join(record.Subheadlines, "\n"),
        strings.Join(record.Summaries, "\n"),
        record.CanonicalURL,
    }
    sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
    return hex.EncodeToString(sum[:])
}
