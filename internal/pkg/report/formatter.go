package report

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"sitewatch/internal/pkg/models"
)

const (
	maxFieldLength   = 700
	maxJSONLDBlocks  = 2
	colorSuccess     = 0x2ecc71
	colorFailure     = 0xe74c3c
	botName          = "Sitewatch Bot"
	botAvatarURL     = "https://go.dev/favicon.ico"
	truncationMarker = "…"
)

// Characters that carry meaning in Discord's markdown rendering.
const markdownSpecials = "\\*_`~|>"

// Converts a PageRecord plus fetch status into a webhook payload. Formatting
// is total: malformed structured data degrades to a placeholder, never an
// error.
func Format(record models.PageRecord, domain, sourceURL string, statusCode int) Payload {
	now := time.Now().UTC()

	fields := []Field{
		{Name: "Status", Value: statusText(statusCode), Inline: true},
		{Name: "Load Time (s)", Value: fmt.Sprintf("%.2f", record.LoadTime), Inline: true},
		{Name: "Server", Value: record.Server, Inline: true},
		{Name: "Content Length (bytes)", Value: record.ContentLength, Inline: true},
		{Name: "Last-Modified", Value: record.LastModified},

		{Name: "Title", Value: Truncate(EscapeMarkdown(record.Title))},
		{Name: "Meta Description", Value: Truncate(EscapeMarkdown(record.MetaDescription))},
		{Name: "Meta Keywords", Value: Truncate(EscapeMarkdown(record.MetaKeywords))},

		{Name: "Charset", Value: record.Charset, Inline: true},
		{Name: "Language", Value: record.Language, Inline: true},
		{Name: "Canonical URL", Value: record.CanonicalURL},

		{Name: "Robots Meta", Value: record.RobotsMeta},

		{Name: fmt.Sprintf("Top %d H1 Headlines", len(record.Headlines)),
			Value: Truncate(bulletList(record.Headlines))},
		{Name: fmt.Sprintf("Top %d H2 Subheadlines", len(record.Subheadlines)),
			Value: Truncate(bulletList(record.Subheadlines))},
		{Name: "Summary Paragraphs", Value: Truncate(bulletList(record.Summaries))},

		{Name: fmt.Sprintf("Favicons (%d)", len(record.Favicons)),
			Value: Truncate(strings.Join(record.Favicons, "\n"))},
		{Name: fmt.Sprintf("Main Images (%d)", len(record.MainImages)),
			Value: Truncate(strings.Join(record.MainImages, "\n"))},

		{Name: "Open Graph & Twitter Cards", Value: Truncate(socialTagList(record.SocialTags))},

		{Name: "Internal Links Count", Value: strconv.Itoa(record.InternalLinksCount), Inline: true},
		{Name: "Internal Links Sample", Value: Truncate(strings.Join(record.InternalLinksSample, "\n"))},
		{Name: "External Links Count", Value: strconv.Itoa(record.ExternalLinksCount), Inline: true},
		{Name: "External Links Sample", Value: Truncate(strings.Join(record.ExternalLinksSample, "\n"))},

		{Name: "JSON-LD Structured Data (first 2 blocks)", Value: formatStructuredData(record.StructuredData)},
	}

	if record.ContentChanged != "" && record.ContentChanged != models.ChangeUnknown {
		fields = append(fields, Field{
			Name: "Content Changed", Value: string(record.ContentChanged), Inline: true,
		})
	}
	if len(record.WatchMatches) > 0 {
		fields = append(fields, Field{
			Name:  fmt.Sprintf("Watch Phrases Hit (%d)", record.WatchScore),
			Value: Truncate(bulletList(record.WatchMatches)),
		})
	}

	embed := Embed{
		Title:     "Sitewatch: " + domain,
		URL:       sourceURL,
		Color:     embedColor(statusCode),
		Fields:    fields,
		Timestamp: now.Format(time.RFC3339),
		Footer: Footer{
			Text: fmt.Sprintf("Checked by Sitewatch • %s UTC", now.Format("2006-01-02 15:04:05")),
		},
	}

	return Payload{
		Username:  botName,
		AvatarURL: botAvatarURL,
		Embeds:    []Embed{embed},
	}
}

// Backslash-escapes the characters Discord treats as markdown.
func EscapeMarkdown(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(markdownSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Caps a field value at 700 characters, appending an ellipsis when cut.
func Truncate(text string) string {
	if utf8.RuneCountInString(text) <= maxFieldLength {
		return text
	}
	return string([]rune(text)[:maxFieldLength]) + truncationMarker
}

func statusText(statusCode int) string {
	if statusCode == http.StatusOK {
		return "200 OK"
	}
	if statusCode == 0 {
		return "Error: " + models.Unavailable
	}
	return fmt.Sprintf("Error: %d", statusCode)
}

func embedColor(statusCode int) int {
	if statusCode == http.StatusOK {
		return colorSuccess
	}
	return colorFailure
}

func bulletList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + EscapeMarkdown(item)
	}
	return strings.Join(lines, "\n")
}

func socialTagList(tags map[string]string) string {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	// Map iteration order is random; sort so reports are stable.
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, EscapeMarkdown(key)+": "+EscapeMarkdown(tags[key]))
	}
	return strings.Join(lines, "\n")
}

// Pretty-prints up to the first two structured data blocks. Falls back to a
// placeholder rather than failing on content that cannot be marshaled.
func formatStructuredData(blocks []any) string {
	var lines []string
	for i, block := range blocks {
		if i >= maxJSONLDBlocks {
			break
		}
		if text, ok := block.(string); ok {
			lines = append(lines, text)
			continue
		}
		pretty, err := json.MarshalIndent(block, "", "  ")
		if err != nil {
			return "Error formatting JSON-LD"
		}
		lines = append(lines, string(pretty))
	}
	return Truncate(strings.Join(lines, "\n"))
}
