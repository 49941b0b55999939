package models

// Sentinel values substituted when an extraction comes up empty. Keeping the
// record fully populated means the report formatter never has to branch on
// missing fields.
const (
	TitleNotFound       = "Title not found"
	DescriptionNotFound = "Meta description not found"
	KeywordsNotFound    = "Meta keywords not found"
	NoHeadlines         = "No H1 tags found"
	NoSubheadlines      = "No H2 tags found"
	NoSummaries         = "No meaningful paragraphs found"
	NotFound            = "Not found"
	Unknown             = "Unknown"
	Unavailable         = "N/A"
)

// ChangeState reports whether the page content differs from the previous run.
type ChangeState string

const (
	ChangeUnknown   ChangeState = "unknown"
	ChangeChanged   ChangeState = "changed"
	ChangeUnchanged ChangeState = "unchanged"
)

// Data structure to organize and store relevant information from the page.
type PageRecord struct {
	URL                 string            `json:"url"`
	Title               string            `json:"title"`
	MetaDescription     string            `json:"meta_description"`
	MetaKeywords        string            `json:"meta_keywords"`
	Headlines           []string          `json:"headlines"`
	Subheadlines        []string          `json:"subheadlines"`
	Summaries           []string          `json:"summaries"`
	Charset             string            `json:"charset"`
	Language            string            `json:"language"`
	StructuredData      []any             `json:"structured_data"`
	SocialTags          map[string]string `json:"social_tags"`
	Favicons            []string          `json:"favicons"`
	MainImages          []string          `json:"main_images"`
	CanonicalURL        string            `json:"canonical_url"`
	RobotsMeta          string            `json:"robots_meta"`
	InternalLinksCount  int               `json:"internal_links_count"`
	ExternalLinksCount  int               `json:"external_links_count"`
	InternalLinksSample []string          `json:"internal_links_sample"`
	ExternalLinksSample []string          `json:"external_links_sample"`
	LastModified        string            `json:"last_modified"`
	ContentLength       string            `json:"content_length"`
	Server              string            `json:"server"`
	LoadTime            float64           `json:"load_time"`

	// Optional enrichment, filled in only when the corresponding
	// feature is enabled.
	ContentChanged ChangeState `json:"content_changed,omitempty"`
	WatchScore     int         `json:"watch_score,omitempty"`
	WatchMatches   []string    `json:"watch_matches,omitempty"`
}

// Creates the all-sentinel record used when a fetch fails. The report
// pipeline stays total: every URL produces a notification either way.
func NewFailureRecord(url string) PageRecord {
	return PageRecord{
		URL:                 url,
		Title:               Unavailable,
		MetaDescription:     Unavailable,
		MetaKeywords:        Unavailable,
		Headlines:           []string{"Failed to retrieve content."},
		Subheadlines:        []string{"Failed to retrieve content."},
		Summaries:           []string{"Failed to retrieve content."},
		Charset:             Unavailable,
		Language:            Unavailable,
		StructuredData:      []any{Unavailable},
		SocialTags:          map[string]string{Unavailable: Unavailable},
		Favicons:            []string{Unavailable},
		MainImages:          []string{Unavailable},
		CanonicalURL:        Unavailable,
		RobotsMeta:          Unavailable,
		InternalLinksSample: []string{},
		ExternalLinksSample: []string{},
		LastModified:        Unavailable,
		ContentLength:       Unavailable,
		Server:              Unavailable,
		LoadTime:            0,
		ContentChanged:      ChangeUnknown,
	}
}
