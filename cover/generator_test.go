package cover

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/russo2100/bob-2/model"
	"github.com/russo2100/bob-2/store"
)

type fakeImages struct {
	failFor string
	calls   int
}

func (f *fakeImages) Generate(_ context.Context, prompt, size string) ([]byte, error) {
	f.calls++
	if f.failFor != "" && strings.Contains(prompt, f.failFor) {
		return nil, errors.New("content policy violation")
	}
	return []byte("png-bytes"), nil
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 29, 9, 30, 0, 0, time.UTC)
}

func TestExtractKeywords(t *testing.T) {
	kws := ExtractKeywords("🔥 The NEW autonomous agents are changing the software industry, agents everywhere")
	assert.Equal(t, []string{"autonomous", "agents", "changing", "software", "industry"}, kws)

	assert.Empty(t, ExtractKeywords("а и но же ли"))
	assert.Empty(t, ExtractKeywords(""))
}

func TestBuildVisualPrompt(t *testing.T) {
	prompt := BuildVisualPrompt("autonomous agents everywhere", "AI Agents")
	assert.Contains(t, prompt, "about AI Agents")
	assert.Contains(t, prompt, "autonomous, agents, everywhere")
	assert.Contains(t, prompt, "futuristic technology style")

	// empty text falls back to generic concepts
	empty := BuildVisualPrompt("", "AI Agents")
	assert.Contains(t, empty, "AI, technology, future")
}

func TestSlug(t *testing.T) {
	now := fixedNow()
	slug := Slug("Autonomous Agents: the next big thing!", now)
	assert.True(t, strings.HasPrefix(slug, "autonomous-agents-the-next-bi"), slug)
	assert.Contains(t, slug, "-20260829-")
	assert.Regexp(t, `-[0-9a-f]{8}$`, slug)

	// identical text yields identical slugs, different text differs
	assert.Equal(t, slug, Slug("Autonomous Agents: the next big thing!", now))
	assert.NotEqual(t, slug, Slug("Something else entirely here", now))

	assert.True(t, strings.HasPrefix(Slug("!!!", now), "cover-"))
}

func TestNeedsCover(t *testing.T) {
	assert.True(t, NeedsCover(model.Draft{Status: model.StatusDraft, PostText: "text"}))
	assert.True(t, NeedsCover(model.Draft{Status: model.StatusApproved, PostText: "text"}))
	assert.False(t, NeedsCover(model.Draft{Status: model.StatusDraft}))
	assert.False(t, NeedsCover(model.Draft{Status: model.StatusDraft, PostText: "text", CoverImagePath: "x.png"}))
}

// A failed image generation leaves the affected draft without a cover while
// the others still get theirs.
func TestGeneratorIsolatesFailures(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.AppendDraft(ctx, model.Draft{
		Trend: "AI Models", Status: model.StatusDraft, PostText: "forbidden concept post",
	}))
	require.NoError(t, mem.AppendDraft(ctx, model.Draft{
		Trend: "AI Hardware", Status: model.StatusDraft, PostText: "safe hardware post",
	}))

	g := NewGenerator(&fakeImages{failFor: "forbidden"}, mem, "1024x1024", t.TempDir())
	g.Now = fixedNow

	n, err := g.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	drafts, err := mem.Drafts(ctx)
	require.NoError(t, err)
	assert.Empty(t, drafts[0].CoverImagePath)
	require.NotEmpty(t, drafts[1].CoverImagePath)

	img, err := os.ReadFile(drafts[1].CoverImagePath)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(img))
}

func TestGeneratorSkipsIneligibleDrafts(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.AppendDraft(ctx, model.Draft{Trend: "no text", Status: model.StatusDraft}))
	require.NoError(t, mem.AppendDraft(ctx, model.Draft{
		Trend: "has cover", Status: model.StatusDraft, PostText: "text", CoverImagePath: "existing.png",
	}))

	images := &fakeImages{}
	g := NewGenerator(images, mem, "1024x1024", t.TempDir())
	g.Now = fixedNow

	n, err := g.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, images.calls)
}
