package selector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/russo2100/bob-2/model"
	"github.com/russo2100/bob-2/store"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 29, 9, 30, 0, 0, time.UTC)
}

func TestClassifyTopic(t *testing.T) {
	assert.Equal(t, "AI Models", ClassifyTopic("OpenAI releases new GPT model"))
	assert.Equal(t, "AI Hardware", ClassifyTopic("New GPU generation announced"))
	assert.Equal(t, "AI Regulation", ClassifyTopic("EU AI Act enters into force"))
	assert.Equal(t, "AI General", ClassifyTopic("something entirely unrelated"))
	// first matching topic wins: "model" hits AI Models before "agent" is reached
	assert.Equal(t, "AI Models", ClassifyTopic("a model powering an agent"))
}

func TestScoreCluster(t *testing.T) {
	now := fixedNow()
	fresh := model.FormatDateTime(now.Add(-1 * time.Hour))
	stale := model.FormatDateTime(now.Add(-48 * time.Hour))

	// single fresh item: 1 + freshness just under 0.5
	score := ScoreCluster([]model.RawNewsItem{{PublishedAt: fresh}}, now)
	assert.InDelta(t, 1.479, score, 0.01)

	// high-priority brand adds 2
	withBrand := ScoreCluster([]model.RawNewsItem{{PublishedAt: fresh, Brand: "OpenAI"}}, now)
	assert.InDelta(t, score+2, withBrand, 0.001)

	// stale items get no freshness bonus, unparseable dates get 0.25
	assert.InDelta(t, 1.0, ScoreCluster([]model.RawNewsItem{{PublishedAt: stale}}, now), 0.001)
	assert.InDelta(t, 1.25, ScoreCluster([]model.RawNewsItem{{PublishedAt: "garbage"}}, now), 0.001)

	// unknown brands do not add the brand bonus
	unknown := ScoreCluster([]model.RawNewsItem{{PublishedAt: stale, Brand: "SomeStartup"}}, now)
	assert.InDelta(t, 1.0, unknown, 0.001)
}

func TestSelectTrendsOrdersByScore(t *testing.T) {
	now := fixedNow()
	items := []model.RawNewsItem{
		{Title: "GPT model update", PublishedAt: "garbage"},
		{Title: "another model release", PublishedAt: "garbage"},
		{Title: "new GPU chip", PublishedAt: "garbage"},
	}
	trends := SelectTrends(items, 4, now)
	require.Len(t, trends, 2)
	assert.Equal(t, "AI Models", trends[0].Name)
	assert.Equal(t, "AI Hardware", trends[1].Name)
	assert.Greater(t, trends[0].Score, trends[1].Score)
	assert.Len(t, trends[0].Items, 2)
}

// Three news items and a selector capped at one trend: exactly one pending
// draft is created.
func TestSelectorCreatesBoundedPendingDrafts(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	now := fixedNow()

	_, err := mem.AppendNews(ctx, []model.RawNewsItem{
		{Date: model.FormatDateTime(now), Title: "GPT model news", Link: "https://a"},
		{Date: model.FormatDateTime(now), Title: "LLM benchmark results", Link: "https://b"},
		{Date: model.FormatDateTime(now), Title: "GPU shortage", Link: "https://c"},
	})
	require.NoError(t, err)

	s := NewTrendSelector(mem, 1, 1, "")
	s.Now = fixedNow

	trends, err := s.Run(ctx)
	require.NoError(t, err)
	require.Len(t, trends, 1)

	drafts, err := mem.Drafts(ctx)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, trends[0].Name, drafts[0].Trend)
	assert.Equal(t, model.StatusDraft, drafts[0].Status)
	assert.Equal(t, model.MarkNo, drafts[0].Approved)
	assert.Equal(t, model.MarkNo, drafts[0].Posted)
	assert.Empty(t, drafts[0].PostText)
}

func TestSelectorWithNoNewsDoesNothing(t *testing.T) {
	mem := store.NewMemory()
	s := NewTrendSelector(mem, 5, 4, "")
	s.Now = fixedNow

	trends, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, trends)

	drafts, err := mem.Drafts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestTrendArtifactWritten(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	now := fixedNow()

	_, err := mem.AppendNews(ctx, []model.RawNewsItem{
		{Date: model.FormatDateTime(now), Title: "GPT model news", Link: "https://a"},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "trends.md")
	s := NewTrendSelector(mem, 5, 4, path)
	s.Now = fixedNow

	_, err = s.Run(ctx)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "AI Models")
	assert.Contains(t, string(content), "**Score:**")
}
