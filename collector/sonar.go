package collector

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/russo2100/bob-2/clients/openrouter"
	"github.com/russo2100/bob-2/model"
	"github.com/russo2100/bob-2/store"
	"github.com/russo2100/bob-2/utils"
	Logger "github.com/russo2100/bob-2/utils/log"
)

const (
	sonarSourceName   = "Perplexity Sonar"
	maxEventsPerBrand = 5
	minEventLineLen   = 20
	maxEventTitleLen  = 150

	sonarSystemPrompt = "You are a news research assistant with live web search. " +
		"Answer with a plain list of concrete, dated events, one per line. No preamble."
)

// Completer is the search-augmented completion dependency of the scanner.
type Completer interface {
	Generate(ctx context.Context, req openrouter.Request) (string, error)
}

// SonarScanner queries a search-augmented model for recent brand mentions.
type SonarScanner struct {
	Completer Completer
	News      store.NewsStore
	Brands    []string
	Model     string
	Now       func() time.Time
}

func NewSonarScanner(completer Completer, news store.NewsStore, brands []string, modelName string) *SonarScanner {
	return &SonarScanner{
		Completer: completer,
		News:      news,
		Brands:    brands,
		Model:     modelName,
		Now:       time.Now,
	}
}

// Run issues one query per brand and appends the parsed events. A failed
// query is logged and skipped.
func (s *SonarScanner) Run(ctx context.Context) (int, error) {
	var collected []model.RawNewsItem
	for _, brand := range s.Brands {
		items, err := s.scanBrand(ctx, brand)
		if err != nil {
			Logger.WithAgent("sonar_scanner").WithFields(logrus.Fields{"brand": brand}).
				Errorf("query skipped: %v", err)
			continue
		}
		collected = append(collected, items...)
	}

	if len(collected) == 0 {
		Logger.WithAgent("sonar_scanner").Info("no sonar events collected")
		return 0, nil
	}

	written, err := s.News.AppendNews(ctx, collected)
	if err != nil {
		return 0, errors.Wrap(err, "persist sonar events")
	}
	Logger.WithAgent("sonar_scanner").Infof("collected %d events, wrote %d after dedup", len(collected), written)
	return written, nil
}

func (s *SonarScanner) scanBrand(ctx context.Context, brand string) ([]model.RawNewsItem, error) {
	answer, err := s.Completer.Generate(ctx, openrouter.Request{
		Model:       s.Model,
		System:      sonarSystemPrompt,
		Prompt:      "Latest AI updates from " + brand + " today. List 3-5 key events with dates and short descriptions.",
		Temperature: 0.2,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, err
	}

	now := model.FormatDateTime(s.Now())
	var out []model.RawNewsItem
	for _, event := range ParseSonarEvents(answer) {
		out = append(out, model.RawNewsItem{
			Date:        now,
			SourceType:  model.SourceTypeSonar,
			Source:      sonarSourceName,
			Title:       utils.TruncateRunes(event, maxEventTitleLen),
			Summary:     event,
			Brand:       brand,
			PublishedAt: now,
		})
	}
	return out, nil
}

var bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•]+|\d+[.)])\s*`)

// ParseSonarEvents splits a free-text answer into event lines: bullets and
// numbering stripped, short fragments dropped, at most maxEventsPerBrand kept.
func ParseSonarEvents(answer string) []string {
	var events []string
	for _, line := range strings.Split(answer, "\n") {
		line = bulletPrefix.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if len([]rune(line)) <= minEventLineLen {
			continue
		}
		events = append(events, line)
		if len(events) == maxEventsPerBrand {
			break
		}
	}
	return events
}
