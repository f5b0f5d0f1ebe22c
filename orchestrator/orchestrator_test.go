package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/russo2100/bob-2/clients/openrouter"
	"github.com/russo2100/bob-2/clients/telegram"
	"github.com/russo2100/bob-2/collector"
	"github.com/russo2100/bob-2/copywriter"
	"github.com/russo2100/bob-2/cover"
	"github.com/russo2100/bob-2/model"
	"github.com/russo2100/bob-2/publisher"
	"github.com/russo2100/bob-2/selector"
	"github.com/russo2100/bob-2/store"
)

const testFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title>
<item><title>OpenAI ships a new AI model today</title><description>model news</description><link>https://a</link></item>
</channel></rss>`

type feedFromString struct{}

func (feedFromString) Fetch(_ context.Context, _ string) (*gofeed.Feed, error) {
	return gofeed.NewParser().ParseString(testFeed)
}

type stubCompleter struct{}

func (stubCompleter) Generate(_ context.Context, req openrouter.Request) (string, error) {
	if strings.Contains(req.Prompt, "Latest AI updates") {
		return "- Google rolled out a substantial Gemini update for developers", nil
	}
	return "🔥 generated post body", nil
}

type stubImages struct{}

func (stubImages) Generate(context.Context, string, string) ([]byte, error) {
	return []byte("png"), nil
}

type stubMessenger struct{ sent int }

func (*stubMessenger) GetMe(context.Context) error { return nil }
func (m *stubMessenger) SendPhoto(context.Context, string, string) (*telegram.SentMessage, error) {
	m.sent++
	return &telegram.SentMessage{MessageID: int64(m.sent)}, nil
}

type recordingMailer struct {
	subject string
	body    string
}

func (m *recordingMailer) Send(_ context.Context, _, _, subject, body string) error {
	m.subject = subject
	m.body = body
	return nil
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 29, 9, 30, 0, 0, time.UTC)
}

func testOrchestrator(t *testing.T, mem *store.Memory, messenger publisher.Messenger, mailer ReportMailer) *Orchestrator {
	t.Helper()

	sel := selector.NewTrendSelector(mem, 5, 4, "")
	sel.Now = fixedNow
	cw := copywriter.NewCopywriter(stubCompleter{}, mem, "m", "", 600, 800)
	cg := cover.NewGenerator(stubImages{}, mem, "1024x1024", t.TempDir())
	cg.Now = fixedNow

	rss := collector.NewRSSCollector(feedFromString{}, mem, []string{"https://feed"}, []string{"ai"})
	rss.Now = fixedNow
	sonar := collector.NewSonarScanner(stubCompleter{}, mem, []string{"Google"}, "perplexity/sonar")
	sonar.Now = fixedNow

	pub := publisher.NewPublisher(messenger, mem)
	pub.Now = fixedNow

	return &Orchestrator{
		RSS:        rss,
		Sonar:      sonar,
		Selector:   sel,
		Copywriter: cw,
		Cover:      cg,
		Publisher:  pub,
		Mailer:     mailer,
		MailFrom:   "bot@example.org",
		MailTo:     "owner@example.org",
		Now:        fixedNow,
	}
}

// Full pipeline over in-memory collaborators: news flows through selection,
// drafting and covers; nothing publishes because no draft was approved.
func TestRunEndToEnd(t *testing.T) {
	mem := store.NewMemory()
	messenger := &stubMessenger{}
	mailer := &recordingMailer{}
	orch := testOrchestrator(t, mem, messenger, mailer)

	report := orch.Run(context.Background())
	require.Len(t, report.Results, 6)
	for _, res := range report.Results {
		assert.Equal(t, StatusOK, res.Status, res.Name)
	}
	assert.False(t, report.Failed())
	assert.NotEmpty(t, report.RunID)

	drafts, err := mem.Drafts(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, drafts)
	for _, d := range drafts {
		assert.NotEmpty(t, d.PostText)
		assert.NotEmpty(t, d.CoverImagePath)
		assert.Equal(t, model.MarkNo, d.Posted, "unapproved drafts must not publish")
	}
	assert.Zero(t, messenger.sent)

	// report email went out
	assert.Contains(t, mailer.subject, "2026-08-29")
	assert.NotContains(t, mailer.subject, "failures")
	assert.Contains(t, mailer.body, "rss_collector")
}

// An approved draft from a previous run gets published in the next run.
func TestRunPublishesApprovedDrafts(t *testing.T) {
	mem := store.NewMemory()
	messenger := &stubMessenger{}
	orch := testOrchestrator(t, mem, messenger, nil)

	orch.Run(context.Background())

	drafts, err := mem.Drafts(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, drafts)
	require.NoError(t, mem.UpdateDraft(context.Background(), drafts[0].Trend, store.DraftUpdate{
		store.ColApproved: model.MarkYes,
		store.ColStatus:   model.StatusApproved,
	}))

	orch.Run(context.Background())

	assert.Equal(t, 1, messenger.sent)
	drafts, err = mem.Drafts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.MarkYes, drafts[0].Posted)

	// a third run must not re-post
	orch.Run(context.Background())
	assert.Equal(t, 1, messenger.sent)
}

type failingAgent struct{}

func (failingAgent) Run(context.Context) (int, error) {
	return 0, errors.New("auth failure")
}

// A failing stage is recorded but the run continues to later stages.
func TestRunDegradesGracefully(t *testing.T) {
	mem := store.NewMemory()
	mailer := &recordingMailer{}
	orch := testOrchestrator(t, mem, &stubMessenger{}, mailer)
	orch.Sonar = failingAgent{}

	report := orch.Run(context.Background())
	require.Len(t, report.Results, 6)
	assert.Equal(t, StatusFailed, report.Results[1].Status)
	assert.Equal(t, StatusOK, report.Results[0].Status)
	assert.Equal(t, StatusOK, report.Results[5].Status)
	assert.True(t, report.Failed())
	assert.Contains(t, mailer.subject, "failures")
	assert.Contains(t, mailer.body, "auth failure")
}

func TestRunHonorsCancelledContext(t *testing.T) {
	mem := store.NewMemory()
	orch := testOrchestrator(t, mem, &stubMessenger{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := orch.Run(ctx)
	for _, res := range report.Results {
		assert.Equal(t, StatusSkipped, res.Status)
	}
}

func TestSelfCheck(t *testing.T) {
	orch := &Orchestrator{Checks: []Check{
		{Name: "good", Fn: func(context.Context) error { return nil }},
		{Name: "bad", Fn: func(context.Context) error { return errors.New("down") }},
	}}
	err := orch.SelfCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")

	orch.Checks = orch.Checks[:1]
	assert.NoError(t, orch.SelfCheck(context.Background()))
}
