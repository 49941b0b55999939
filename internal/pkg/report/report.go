package report

// Discord-flavored webhook payload types. The sink posts one Payload per
// page; other chat webhook formats can be swapped in behind the same shape.

// A single name/value entry inside an embed.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type Footer struct {
	Text string `json:"text"`
}

// One report card for a single page.
type Embed struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Color     int     `json:"color"`
	Fields    []Field `json:"fields"`
	Timestamp string  `json:"timestamp"`
	Footer    Footer  `json:"footer"`
}

// The complete webhook payload.
type Payload struct {
	Username  string  `json:"username"`
	AvatarURL string  `json:"avatar_url"`
	Embeds    []Embed `json:"embeds"`
}
