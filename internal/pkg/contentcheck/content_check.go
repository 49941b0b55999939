package contentcheck

import (
    "strings"

    "github.com/cloudflare/ahocorasick" // Efficient Aho-Corasick implementation
    "go.uber.org/zap"

    "sitewatch/internal/pkg/logger"
)

// Matches operator-configured watch phrases against page text using the
// Aho-Corasick algorithm, so a large phrase list stays a single pass.
type Checker struct {
    matcher *ahocorasick.Matcher
    phrases []string
}

// Contains the result of scanning one page.
type Result struct {
    Score   int      // Number of distinct phrases that matched
    Matches []string // The phrases that matched
}

// Creates a new checker for the given phrases. Matching is
// case-insensitive. Returns nil when no phrases are configured.
func New(phrases []string) *Checker {
    var cleaned []string
    for _, phrase := range phrases {
        if trimmed := strings.TrimSpace(phrase); trimmed != "" {
            cleaned = append(cleaned, strings.ToLower(trimmed))
        }
    }
    if len(cleaned) == 0 {
        return nil
    }

    patterns := make([][]byte, len(cleaned))
    for i, phrase := range cleaned {
        patterns[i] = []byte(phrase)
    }

    logger.Log.Info("Initializing content checker",
        zap.Int("phrase_count", len(cleaned)))

    return &Checker{
        matcher: ahocorasick.NewMatcher(patterns),
        phrases: cleaned,
    }
}

// Scans the text for watch phrases.
func (c *Checker) Scan(text string) Result {
    if text == "" {
        return Result{}
    }

    hits := c.matcher.Match([]byte(strings.ToLower(text)))

    result := Result{Score: len(hits)}
    for _, hit := range hits {
        result.Matches = append(result.Matches, c.phrases[hit])
    }
    return result
}
