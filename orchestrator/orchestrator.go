// Package orchestrator runs the six pipeline agents in fixed order, collects
// per-agent outcomes and sends the run report.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/russo2100/bob-2/copywriter"
	"github.com/russo2100/bob-2/cover"
	"github.com/russo2100/bob-2/model"
	"github.com/russo2100/bob-2/publisher"
	"github.com/russo2100/bob-2/selector"
	Logger "github.com/russo2100/bob-2/utils/log"
)

// Agent outcome statuses.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// AgentResult is the outcome of one pipeline stage.
type AgentResult struct {
	Name     string
	Status   string
	Detail   string
	Duration time.Duration
	Err      error
}

// RunReport summarizes one full pipeline run.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []AgentResult
}

// Failed reports whether any stage failed.
func (r RunReport) Failed() bool {
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			return true
		}
	}
	return false
}

// NewsAgent is the shape shared by the RSS collector and the Sonar scanner.
type NewsAgent interface {
	Run(ctx context.Context) (int, error)
}

// ReportMailer delivers the run summary. Nil disables reporting.
type ReportMailer interface {
	Send(ctx context.Context, from, to, subject, htmlBody string) error
}

// Check is one connectivity probe of the self-check mode.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Orchestrator wires the agents together. Every field except the mailer and
// checks is required.
type Orchestrator struct {
	RSS        NewsAgent
	Sonar      NewsAgent
	Selector   *selector.TrendSelector
	Copywriter *copywriter.Copywriter
	Cover      *cover.Generator
	Publisher  *publisher.Publisher

	Mailer   ReportMailer
	MailFrom string
	MailTo   string
	Checks   []Check
	Now      func() time.Time
}

// Run executes the pipeline once. Stage failures degrade gracefully: the
// failing stage is recorded and the run continues, so failures reduce the
// number of published posts rather than aborting the run. No stage result
// feeds back into an earlier stage.
func (o *Orchestrator) Run(ctx context.Context) RunReport {
	now := o.now()
	report := RunReport{
		RunID:     uuid.NewString(),
		StartedAt: now(),
	}
	log := Logger.Log.WithFields(logrus.Fields{"run_id": report.RunID})
	log.Info("pipeline run started")

	var trends []model.Trend

	stages := []struct {
		name string
		run  func(ctx context.Context) (string, error)
	}{
		{"rss_collector", func(ctx context.Context) (string, error) {
			n, err := o.RSS.Run(ctx)
			return fmt.Sprintf("%d items collected", n), err
		}},
		{"sonar_scanner", func(ctx context.Context) (string, error) {
			n, err := o.Sonar.Run(ctx)
			return fmt.Sprintf("%d events collected", n), err
		}},
		{"trend_selector", func(ctx context.Context) (string, error) {
			var err error
			trends, err = o.Selector.Run(ctx)
			return fmt.Sprintf("%d trends selected", len(trends)), err
		}},
		{"copywriter", func(ctx context.Context) (string, error) {
			n, err := o.Copywriter.Run(ctx, trends)
			return fmt.Sprintf("%d posts generated", n), err
		}},
		{"cover_generator", func(ctx context.Context) (string, error) {
			n, err := o.Cover.Run(ctx)
			return fmt.Sprintf("%d covers generated", n), err
		}},
		{"publisher", func(ctx context.Context) (string, error) {
			stats, err := o.Publisher.Run(ctx)
			return fmt.Sprintf("%d published, %d failed", stats.Published, stats.Failed), err
		}},
	}

	for _, stage := range stages {
		if ctx.Err() != nil {
			report.Results = append(report.Results, AgentResult{
				Name: stage.name, Status: StatusSkipped, Detail: "run cancelled",
			})
			continue
		}

		started := now()
		detail, err := stage.run(ctx)
		res := AgentResult{
			Name:     stage.name,
			Status:   StatusOK,
			Detail:   detail,
			Duration: now().Sub(started),
			Err:      err,
		}
		if err != nil {
			res.Status = StatusFailed
			log.WithFields(logrus.Fields{"agent": stage.name}).Errorf("stage failed: %v", err)
		} else {
			log.WithFields(logrus.Fields{"agent": stage.name}).Infof("stage done: %s (%s)", detail, res.Duration.Round(time.Millisecond))
		}
		report.Results = append(report.Results, res)
	}

	report.FinishedAt = now()
	o.logSummary(log, report)
	o.sendReport(ctx, report)
	return report
}

// SelfCheck exercises each configured external client without running the
// pipeline.
func (o *Orchestrator) SelfCheck(ctx context.Context) error {
	var failed int
	for _, check := range o.Checks {
		if err := check.Fn(ctx); err != nil {
			Logger.Log.Errorf("check %s: FAIL: %v", check.Name, err)
			failed++
			continue
		}
		Logger.Log.Infof("check %s: OK", check.Name)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d connectivity checks failed", failed, len(o.Checks))
	}
	return nil
}

func (o *Orchestrator) logSummary(log *logrus.Entry, report RunReport) {
	log.Info("==== pipeline run summary ====")
	for _, res := range report.Results {
		line := fmt.Sprintf("%-16s %-8s %s", res.Name, res.Status, res.Detail)
		if res.Err != nil {
			line += " — " + res.Err.Error()
		}
		log.Info(line)
	}
	log.Infof("total duration: %s", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
}

func (o *Orchestrator) sendReport(ctx context.Context, report RunReport) {
	if o.Mailer == nil || o.MailTo == "" {
		return
	}
	subject := fmt.Sprintf("Content pipeline report %s", report.StartedAt.Format(model.DateFormat))
	if report.Failed() {
		subject += " — with failures"
	}
	if err := o.Mailer.Send(ctx, o.MailFrom, o.MailTo, subject, RenderReportHTML(report)); err != nil {
		Logger.Log.Errorf("report email not sent: %v", err)
	}
}

func (o *Orchestrator) now() func() time.Time {
	if o.Now != nil {
		return o.Now
	}
	return time.Now
}
