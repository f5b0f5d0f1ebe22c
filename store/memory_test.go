package store

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/russo2100/bob-2/model"
)

func TestAppendNewsDeduplicates(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a := model.RawNewsItem{Date: "2026-08-29 10:00:00", Title: "GPT-6 released", Link: "https://a"}
	b := model.RawNewsItem{Date: "2026-08-29 10:00:00", Title: "New GPU", Link: "https://b"}

	n, err := m.AppendNews(ctx, []model.RawNewsItem{a, b, a})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// a second batch containing an already stored item writes only the new one
	c := model.RawNewsItem{Date: "2026-08-29 11:00:00", Title: "Funding round", Link: "https://c"}
	n, err = m.AppendNews(ctx, []model.RawNewsItem{a, c})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTodayNewsFiltersByDayPrefix(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.AppendNews(ctx, []model.RawNewsItem{
		{Date: "2026-08-29 10:00:00", Title: "today", Link: "https://a"},
		{Date: "2026-08-28 23:59:59", Title: "yesterday", Link: "https://b"},
	})
	require.NoError(t, err)

	items, err := m.TodayNews(ctx, "2026-08-29")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "today", items[0].Title)
}

func TestUpdateDraftByTrend(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.AppendDraft(ctx, model.Draft{Trend: "AI Models", Status: model.StatusDraft}))
	require.NoError(t, m.AppendDraft(ctx, model.Draft{Trend: "AI Hardware", Status: model.StatusDraft}))

	err := m.UpdateDraft(ctx, "AI Hardware", DraftUpdate{
		ColPostText: "generated text",
		ColStatus:   model.StatusApproved,
	})
	require.NoError(t, err)

	drafts, err := m.Drafts(ctx)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Empty(t, drafts[0].PostText)
	assert.Equal(t, "generated text", drafts[1].PostText)
	assert.Equal(t, model.StatusApproved, drafts[1].Status)

	assert.Error(t, m.UpdateDraft(ctx, "No Such Trend", DraftUpdate{ColPostText: "x"}))
}

func TestDraftRowMapping(t *testing.T) {
	d := model.Draft{
		Date:           "2026-08-29 09:30:00",
		Trend:          "AI Agents",
		PostText:       "text",
		Status:         model.StatusApproved,
		Approved:       model.MarkYes,
		Posted:         model.MarkNo,
		CoverImagePath: "data/x.png",
	}
	got := DraftFromRow(DraftToRow(d))
	if diff := cmp.Diff(d, got); diff != "" {
		t.Errorf("draft row mapping mismatch (-want +got):\n%s", diff)
	}

	// rows read from a sheet can be shorter than the header
	short := DraftFromRow([]string{"2026-08-29 09:30:00", "AI Agents"})
	assert.Equal(t, "AI Agents", short.Trend)
	assert.Empty(t, short.MessageID)
}
