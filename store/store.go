// Package store defines the repository interfaces backing the pipeline's
// shared system of record: two logical tables, raw collected news and post
// drafts. Agents receive these as injected collaborators and never share
// in-memory state with each other.
package store

import (
	"context"

	"github.com/russo2100/bob-2/model"
)

// Column names of the two tables. These double as the header row written to
// an empty sheet and as the keys of a DraftUpdate.
const (
	ColDate           = "date"
	ColSourceType     = "source_type"
	ColSource         = "source"
	ColTitle          = "title"
	ColSummary        = "summary"
	ColLink           = "link"
	ColBrand          = "brand"
	ColPublishedAt    = "published_at"
	ColTrend          = "trend"
	ColPostText       = "post_text"
	ColStatus         = "status"
	ColApproved       = "approved"
	ColPosted         = "posted"
	ColCoverImagePath = "cover_image_path"
	ColPostedAt       = "posted_at"
	ColMessageID      = "message_id"
)

var (
	NewsHeaders = []string{
		ColDate, ColSourceType, ColSource, ColTitle, ColSummary, ColLink, ColBrand, ColPublishedAt,
	}
	DraftHeaders = []string{
		ColDate, ColTrend, ColPostText, ColStatus, ColApproved, ColPosted,
		ColCoverImagePath, ColPostedAt, ColMessageID,
	}
)

// DraftUpdate is a partial update of a Draft row, keyed by column name.
// Unknown columns are ignored by implementations.
type DraftUpdate map[string]string

// NewsStore is the append-only raw news table.
type NewsStore interface {
	// AppendNews appends items, deduplicating best-effort by link+title
	// against rows already present. Returns the number actually written.
	AppendNews(ctx context.Context, items []model.RawNewsItem) (int, error)
	// TodayNews returns items whose date starts with the given day prefix
	// (model.DateFormat).
	TodayNews(ctx context.Context, day string) ([]model.RawNewsItem, error)
}

// DraftStore is the post drafts table. Drafts are keyed by trend name.
type DraftStore interface {
	AppendDraft(ctx context.Context, d model.Draft) error
	Drafts(ctx context.Context) ([]model.Draft, error)
	// UpdateDraft applies updates to the first draft whose trend matches.
	UpdateDraft(ctx context.Context, trend string, updates DraftUpdate) error
}

// Store is the full shared store handed to the orchestrator.
type Store interface {
	NewsStore
	DraftStore
}

// NewsToRow maps a news item to a row in header order.
func NewsToRow(r model.RawNewsItem) []string {
	return []string{r.Date, r.SourceType, r.Source, r.Title, r.Summary, r.Link, r.Brand, r.PublishedAt}
}

// NewsFromRow is the inverse of NewsToRow; short rows are padded.
func NewsFromRow(row []string) model.RawNewsItem {
	row = pad(row, len(NewsHeaders))
	return model.RawNewsItem{
		Date:        row[0],
		SourceType:  row[1],
		Source:      row[2],
		Title:       row[3],
		Summary:     row[4],
		Link:        row[5],
		Brand:       row[6],
		PublishedAt: row[7],
	}
}

// DraftToRow maps a draft to a row in header order.
func DraftToRow(d model.Draft) []string {
	return []string{
		d.Date, d.Trend, d.PostText, d.Status, d.Approved, d.Posted,
		d.CoverImagePath, d.PostedAt, d.MessageID,
	}
}

// DraftFromRow is the inverse of DraftToRow; short rows are padded.
func DraftFromRow(row []string) model.Draft {
	row = pad(row, len(DraftHeaders))
	return model.Draft{
		Date:           row[0],
		Trend:          row[1],
		PostText:       row[2],
		Status:         row[3],
		Approved:       row[4],
		Posted:         row[5],
		CoverImagePath: row[6],
		PostedAt:       row[7],
		MessageID:      row[8],
	}
}

// ApplyDraftUpdate merges a partial update into a draft.
func ApplyDraftUpdate(d model.Draft, updates DraftUpdate) model.Draft {
	for col, val := range updates {
		switch col {
		case ColDate:
			d.Date = val
		case ColTrend:
			d.Trend = val
		case ColPostText:
			d.PostText = val
		case ColStatus:
			d.Status = val
		case ColApproved:
			d.Approved = val
		case ColPosted:
			d.Posted = val
		case ColCoverImagePath:
			d.CoverImagePath = val
		case ColPostedAt:
			d.PostedAt = val
		case ColMessageID:
			d.MessageID = val
		}
	}
	return d
}

func pad(row []string, n int) []string {
	for len(row) < n {
		row = append(row, "")
	}
	return row
}
