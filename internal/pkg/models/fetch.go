package models

import "net/http"

// Outcome of fetching a single URL. Success iff Err is nil. A StatusCode of
// zero means no HTTP response was ever received (DNS failure, timeout, ...).
type FetchResult struct {
	URL        string
	HTML       string
	StatusCode int
	Headers    http.Header
	LoadTime   float64
	Err        error
}

// Reports whether the fetch produced usable page content.
func (r FetchResult) Success() bool {
	return r.Err == nil
}
