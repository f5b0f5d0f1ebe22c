package model

// Draft statuses and Y/N markers as stored in the Texts sheet.
const (
	StatusDraft    = "draft"
	StatusApproved = "approved"

	MarkYes = "Y"
	MarkNo  = "N"
)

// Draft is a post record tracked through drafting, approval, cover creation
// and publishing. Identified by Trend in the shared store and mutated in place
// as it moves through the pipeline.
type Draft struct {
	Date           string
	Trend          string
	PostText       string
	Status         string
	Approved       string
	Posted         string
	CoverImagePath string
	PostedAt       string
	MessageID      string
}

// IsPublishable reports whether the draft satisfies the publishing invariant:
// approved, not yet posted, has text and has a cover image.
func (d Draft) IsPublishable() bool {
	return d.IsApproved() && !d.IsPosted() && d.PostText != "" && d.CoverImagePath != ""
}

func (d Draft) IsApproved() bool {
	return equalsYes(d.Approved)
}

func (d Draft) IsPosted() bool {
	return equalsYes(d.Posted)
}

func equalsYes(mark string) bool {
	return mark == MarkYes || mark == "y" || mark == "yes" || mark == "Yes" || mark == "YES"
}
