package model

import "time"

// DateTimeFormat is the canonical timestamp layout used across the shared
// store, matching what human operators see in the spreadsheet.
const DateTimeFormat = "2006-01-02 15:04:05"

// DateFormat is the day-granularity prefix of DateTimeFormat.
const DateFormat = "2006-01-02"

// Source types of a RawNewsItem.
const (
	SourceTypeRSS   = "rss"
	SourceTypeSonar = "sonar"
)

// RawNewsItem is one collected news record. Append-only: once written to the
// shared store it is never mutated.
type RawNewsItem struct {
	Date        string
	SourceType  string
	Source      string
	Title       string
	Summary     string
	Link        string
	Brand       string
	PublishedAt string
}

// DedupKey identifies a raw item for best-effort write-time deduplication.
func (r RawNewsItem) DedupKey() string {
	return r.Link + "|" + r.Title
}

// Trend is a selected topic cluster chosen for the day's posts. Trends live in
// memory and in a markdown artifact; only the name travels into Drafts.
type Trend struct {
	Name        string
	Description string
	Score       float64
	Items       []RawNewsItem
}

// FormatDateTime renders t in the shared store layout.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeFormat)
}
