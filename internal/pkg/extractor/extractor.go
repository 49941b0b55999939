package extractor

import (
    "encoding/json"
    "net/http"
    "net/url"
    "strings"
    "unicode/utf8"

    "github.com/PuerkitoBio/goquery"

    "sitewatch/internal/pkg/extractor/languagedetector"
    "sitewatch/internal/pkg/models"
)

const (
    maxHeadlines  = 5
    maxSummaries  = 5
    maxImages     = 5
    maxSamples    = 5
    minSummaryLen = 50
)

// Turns raw HTML plus response metadata into a PageRecord. Extraction is a
// pure function of its inputs: no field failure ever aborts another field,
// anything missing gets its sentinel value.
type Extractor struct {
    langDetector *languagedetector.Detector
}

// Creates a new Extractor. When detectLanguage is set, pages without a lang
// attribute on the root element get a detected language instead of the
// unknown sentinel.
func New(detectLanguage bool) *Extractor {
    e := &Extractor{}
    if detectLanguage {
        e.langDetector = languagedetector.New()
    }
    return e
}

// Extracts every metadata field from the page. Always returns a fully
// populated record, even for empty or malformed HTML.
func (e *Extractor) Extract(html, baseURL string, headers http.Header, loadTime float64) models.PageRecord {
    record := models.NewFailureRecord(baseURL)
    record.LoadTime = loadTime

    doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
    if err != nil {
        // The html parser is lenient enough that this only happens on
        // reader failures; fall back to the sentinel record.
        return record
    }

    base, baseErr := url.Parse(baseURL)
    if baseErr != nil {
        base = nil
    }

    record.Title = textOrDefault(doc.Find("title").First().Text(), models.TitleNotFound)
    record.MetaDescription = attrOrDefault(doc.Find("meta[name='description']").First(), "content", models.DescriptionNotFound)
    record.MetaKeywords = attrOrDefault(doc.Find("meta[name='keywords']").First(), "content", models.KeywordsNotFound)

    record.Headlines = headingTexts(doc, "h1", models.NoHeadlines)
    record.Subheadlines = headingTexts(doc, "h2", models.NoSubheadlines)
    record.Summaries = summaryParagraphs(doc)

    record.Charset = extractCharset(doc)
    record.Language = e.extractLanguage(doc, record.Summaries)

    record.StructuredData = extractStructuredData(doc)
    record.SocialTags = extractSocialTags(doc)
    record.Favicons = extractFavicons(doc, base)
    record.MainImages = extractMainImages(doc, base)
    record.CanonicalURL = extractCanonical(doc, base)
    record.RobotsMeta = attrOrDefault(doc.Find("meta[name='robots']").First(), "content", models.NotFound)

    internal, external := classifyLinks(doc, base)
    record.InternalLinksCount = len(internal)
    record.ExternalLinksCount = len(external)
    record.InternalLinksSample = sample(internal, maxSamples)
    record.ExternalLinksSample = sample(external, maxSamples)

    record.LastModified = headerOrDefault(headers, "Last-Modified", models.NotFound)
    record.ContentLength = headerOrDefault(headers, "Content-Length", models.Unknown)
    record.Server = headerOrDefault(headers, "Server", models.Unknown)

    return record
}

// Returns the trimmed text, or the fallback when empty.
func textOrDefault(text, fallback string) string {
    if trimmed := strings.TrimSpace(text); trimmed != "" {
        return trimmed
    }
    return fallback
}

// Returns the trimmed attribute value of the selection, or the fallback.
func attrOrDefault(sel *goquery.Selection, attr, fallback string) string {
    if value, exists := sel.Attr(attr); exists {
        if trimmed := strings.TrimSpace(value); trimmed != "" {
            return trimmed
        }
    }
    return fallback
}

func headerOrDefault(headers http.Header, key, fallback string) string {
    if headers == nil {
        return fallback
    }
    if value := headers.Get(key); value != "" {
        return value
    }
    return fallback
}

// Collects non-empty heading texts in document order, capped at five.
func headingTexts(doc *goquery.Document, tag, fallback string) []string {
    var texts []string
    doc.Find(tag).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
        if text := strings.TrimSpace(sel.Text()); text != "" {
            texts = append(texts, text)
        }
        return len(texts) < maxHeadlines
    })
    if len(texts) == 0 {
        return []string{fallback}
    }
    return texts
}

// Collects paragraphs longer than the minimum length, capped at five.
func summaryParagraphs(doc *goquery.Document) []string {
    var texts []string
    doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
        text := strings.TrimSpace(sel.Text())
        if text != "" && utf8.RuneCountInString(text) > minSummaryLen {
            texts = append(texts, text)
        }
        return len(texts) < maxSummaries
    })
    if len(texts) == 0 {
        return []string{models.NoSummaries}
    }
    return texts
}

// Reads the charset from a <meta charset> attribute, falling back to the
// charset= suffix of a Content-Type meta tag.
func extractCharset(doc *goquery.Document) string {
    if charset, exists := doc.Find("meta[charset]").First().Attr("charset"); exists && charset != "" {
        return charset
    }
    if content, exists := doc.Find("meta[http-equiv='Content-Type']").First().Attr("content"); exists {
        if idx := strings.LastIndex(content, "charset="); idx >= 0 {
            return content[idx+len("charset="):]
        }
    }
    return models.Unknown
}

// Reads the lang attribute of the root element. When a detector is
// configured and the attribute is absent, language is detected from the
// summary text instead.
func (e *Extractor) extractLanguage(doc *goquery.Document, summaries []string) string {
    if lang, exists := doc.Find("html").First().Attr("lang"); exists && lang != "" {
        return lang
    }
    if e.langDetector != nil {
        if lang, err := e.langDetector.Detect(strings.Join(summaries, " ")); err == nil {
            return lang
        }
    }
    return models.Unknown
}

// Parses every ld+json block independently. Blocks that fail to parse are
// skipped, never treated as an extraction failure.
func extractStructuredData(doc *goquery.Document) []any {
    var blocks []any
    doc.Find("script[type='application/ld+json']").Each(func(_ int, sel *goquery.Selection) {
        var parsed any
        if err := json.Unmarshal([]byte(sel.Text()), &parsed); err == nil {
            blocks = append(blocks, parsed)
        }
    })
    if len(blocks) == 0 {
        return []any{models.NotFound}
    }
    return blocks
}

// Picks up Open Graph and Twitter Card meta tags by property or name.
func extractSocialTags(doc *goquery.Document) map[string]string {
    tags := make(map[string]string)
    doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
        prop, exists := sel.Attr("property")
        if !exists || prop == "" {
            prop, _ = sel.Attr("name")
        }
        if !strings.HasPrefix(prop, "og:") && !strings.HasPrefix(prop, "twitter:") {
            return
        }
        if content, ok := sel.Attr("content"); ok {
            tags[prop] = content
        } else {
            tags[prop] = models.NotFound
        }
    })
    if len(tags) == 0 {
        return map[string]string{"None": models.NotFound}
    }
    return tags
}

// Collects the href of every link tag whose rel value mentions an icon.
func extractFavicons(doc *goquery.Document, base *url.URL) []string {
    var icons []string
    doc.Find("link[rel]").Each(func(_ int, sel *goquery.Selection) {
        rel, _ := sel.Attr("rel")
        if !strings.Contains(strings.ToLower(rel), "icon") {
            return
        }
        if href, ok := sel.Attr("href"); ok && href != "" {
            if resolved, ok := resolveURL(base, href); ok {
                icons = append(icons, resolved)
            }
        }
    })
    if len(icons) == 0 {
        return []string{models.NotFound}
    }
    return icons
}

// Collects the first five image sources, resolved to absolute form.
func extractMainImages(doc *goquery.Document, base *url.URL) []string {
    var images []string
    doc.Find("img[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
        if src, ok := sel.Attr("src"); ok && src != "" {
            if resolved, ok := resolveURL(base, src); ok {
                images = append(images, resolved)
            }
        }
        return len(images) < maxImages
    })
    if len(images) == 0 {
        return []string{models.NotFound}
    }
    return images
}

func extractCanonical(doc *goquery.Document, base *url.URL) string {
    if href, ok := doc.Find("link[rel='canonical']").First().Attr("href"); ok && href != "" {
        if resolved, ok := resolveURL(base, href); ok {
            return resolved
        }
    }
    return models.NotFound
}

// Partitions anchor hrefs into internal and external sets by comparing the
// resolved host against the base host, case-insensitively. Fragment-only and
// javascript: pseudo-links are excluded from both sets. The returned slices
// are deduplicated and keep document order.
func classifyLinks(doc *goquery.Document, base *url.URL) (internal, external []string) {
    baseHost := ""
    if base != nil {
        baseHost = strings.ToLower(base.Host)
    }
    seen := make(map[string]bool)

    doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
        href, _ := sel.Attr("href")
        href = strings.TrimSpace(href)
        if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
            return
        }
        resolved, ok := resolveURL(base, href)
        if !ok {
            return
        }
        if seen[resolved] {
            return
        }
        seen[resolved] = true

        parsed, err := url.Parse(resolved)
        if err != nil {
            return
        }
        if strings.ToLower(parsed.Host) == baseHost {
            internal = append(internal, resolved)
        } else {
            external = append(external, resolved)
        }
    })
    return internal, external
}

// Resolves a possibly relative reference against the page's own URL.
func resolveURL(base *url.URL, href string) (string, bool) {
    if base == nil {
        parsed, err := url.Parse(href)
        if err != nil || !parsed.IsAbs() {
            return "", false
        }
        return parsed.String(), true
    }
    resolved, err := base.Parse(href)
    if err != nil {
        return "", false
    }
    return resolved.String(), true
}

// Takes the first max links, substituting a placeholder when the page has
// none so the sample fields never render empty.
func sample(links []string, max int) []string {
    if len(links) == 0 {
        return []string{"None"}
    }
    if len(links) > max {
        return links[:max]
    }
    return links
}
