// The pipeline binary runs the daily content pipeline: collect news, select
// trends, draft posts, generate covers, publish to Telegram.
//
// Modes:
//
//	pipeline            run the whole pipeline once and exit
//	pipeline -schedule  keep running, triggering daily at the configured time
//	pipeline -test      connectivity self-check of the external services
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/russo2100/bob-2/clients/google"
	"github.com/russo2100/bob-2/clients/openai"
	"github.com/russo2100/bob-2/clients/openrouter"
	"github.com/russo2100/bob-2/clients/telegram"
	"github.com/russo2100/bob-2/collector"
	"github.com/russo2100/bob-2/config"
	"github.com/russo2100/bob-2/copywriter"
	"github.com/russo2100/bob-2/cover"
	"github.com/russo2100/bob-2/orchestrator"
	"github.com/russo2100/bob-2/publisher"
	"github.com/russo2100/bob-2/selector"
	"github.com/russo2100/bob-2/store/sheets"
	"github.com/russo2100/bob-2/utils/dotenv"
	Logger "github.com/russo2100/bob-2/utils/log"
)

var (
	schedule = flag.Bool("schedule", false, "run as a daily scheduler instead of once")
	selfTest = flag.Bool("test", false, "run the connectivity self-check and exit")
)

func main() {
	flag.Parse()

	if err := dotenv.LoadDotEnvs(); err != nil {
		Logger.Log.Fatal("fail to load env: ", err)
	}
	cfg := config.Load()

	key, err := google.LoadKey(cfg.GoogleCredentialsPath)
	if err != nil {
		Logger.Log.Fatal("fail to load Google credentials: ", err)
	}
	sheetsTokens := google.NewTokenSource(key, nil, google.ScopeSpreadsheets)
	st := sheets.NewStore(cfg.SpreadsheetID, sheetsTokens)

	completions := openrouter.NewClient(cfg.OpenRouterAPIKey)
	images := openai.NewImageClient(cfg.OpenAIAPIKey, cfg.ImageModel)
	tg := telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramChannel)

	var mailer orchestrator.ReportMailer
	if cfg.ReportEmailTo != "" {
		mailTokens := google.NewTokenSource(key, nil, google.ScopeGmailSend)
		mailer = google.NewMailer(mailTokens)
	}

	orch := &orchestrator.Orchestrator{
		RSS:        collector.NewRSSCollector(collector.NewGofeedFetcher(), st, cfg.RSSFeedURLs, cfg.Keywords),
		Sonar:      collector.NewSonarScanner(completions, st, cfg.SonarBrands, cfg.SonarModel),
		Selector:   selector.NewTrendSelector(st, cfg.TopTrendsCount, cfg.PostsCount, filepath.Join(cfg.DataDir, "trends.md")),
		Copywriter: copywriter.NewCopywriter(completions, st, cfg.TextModel, cfg.PromptPath, cfg.MinPostLength, cfg.MaxPostLength),
		Cover:      cover.NewGenerator(images, st, cfg.ImageSize, cfg.DataDir),
		Publisher:  publisher.NewPublisher(tg, st),
		Mailer:     mailer,
		MailFrom:   cfg.ReportEmailFrom,
		MailTo:     cfg.ReportEmailTo,
		Checks: []orchestrator.Check{
			{Name: "google_sheets", Fn: st.Ping},
			{Name: "telegram", Fn: tg.GetMe},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *selfTest:
		if err := orch.SelfCheck(ctx); err != nil {
			Logger.Log.Fatal(err)
		}
	case *schedule:
		loc, err := time.LoadLocation(cfg.SchedulerTimezone)
		if err != nil {
			Logger.Log.Fatalf("bad scheduler timezone %q: %v", cfg.SchedulerTimezone, err)
		}
		sched := orchestrator.NewScheduler(cfg.SchedulerHour, cfg.SchedulerMinute, loc)
		if err := sched.RunForever(ctx, func(ctx context.Context) { orch.Run(ctx) }); err != nil && ctx.Err() == nil {
			Logger.Log.Fatal(err)
		}
	default:
		orch.Run(ctx)
	}
}
