// Package collector implements the two news-gathering agents: the RSS
// collector and the Perplexity Sonar scanner. Both emit RawNewsItems into the
// shared store and never mutate anything written before.
package collector

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/russo2100/bob-2/model"
	"github.com/russo2100/bob-2/store"
	"github.com/russo2100/bob-2/utils"
	Logger "github.com/russo2100/bob-2/utils/log"
)

const (
	maxTitleLen   = 200
	maxSummaryLen = 500
)

// FeedFetcher fetches and parses one RSS/Atom feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (*gofeed.Feed, error)
}

// GofeedFetcher is the production FeedFetcher.
type GofeedFetcher struct {
	parser *gofeed.Parser
}

func NewGofeedFetcher() *GofeedFetcher {
	p := gofeed.NewParser()
	p.UserAgent = "bob-2-content-pipeline/1.0"
	return &GofeedFetcher{parser: p}
}

func (f *GofeedFetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	return f.parser.ParseURLWithContext(url, ctx)
}

// RSSCollector polls configured feeds and keeps entries matching any keyword.
type RSSCollector struct {
	Fetcher  FeedFetcher
	News     store.NewsStore
	FeedURLs []string
	Keywords []string
	Now      func() time.Time
}

func NewRSSCollector(fetcher FeedFetcher, news store.NewsStore, feedURLs, keywords []string) *RSSCollector {
	return &RSSCollector{
		Fetcher:  fetcher,
		News:     news,
		FeedURLs: feedURLs,
		Keywords: keywords,
		Now:      time.Now,
	}
}

// Run fetches every feed, filters entries and appends the survivors to the
// store. A broken feed is logged and skipped, the batch continues.
func (c *RSSCollector) Run(ctx context.Context) (int, error) {
	var collected []model.RawNewsItem
	for _, url := range c.FeedURLs {
		items, err := c.collectFeed(ctx, url)
		if err != nil {
			Logger.WithAgent("rss_collector").WithFields(logrus.Fields{"feed": url}).
				Errorf("feed skipped: %v", err)
			continue
		}
		collected = append(collected, items...)
	}

	if len(collected) == 0 {
		Logger.WithAgent("rss_collector").Info("no matching entries collected")
		return 0, nil
	}

	written, err := c.News.AppendNews(ctx, collected)
	if err != nil {
		return 0, errors.Wrap(err, "persist collected news")
	}
	Logger.WithAgent("rss_collector").Infof("collected %d entries, wrote %d after dedup", len(collected), written)
	return written, nil
}

func (c *RSSCollector) collectFeed(ctx context.Context, url string) ([]model.RawNewsItem, error) {
	feed, err := c.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "fetch feed")
	}
	return c.FilterEntries(url, feed), nil
}

// FilterEntries converts matching feed entries into raw news items.
func (c *RSSCollector) FilterEntries(feedURL string, feed *gofeed.Feed) []model.RawNewsItem {
	source := utils.HostFromURL(feedURL)
	now := c.Now()

	var out []model.RawNewsItem
	for _, entry := range feed.Items {
		title := strings.TrimSpace(entry.Title)
		summary := StripHTML(entry.Description)
		if summary == "" {
			summary = StripHTML(entry.Content)
		}

		if !utils.ContainsAnyKeyword(title+" "+summary, c.Keywords) {
			continue
		}

		published := NormalizeDate(entry, now)
		out = append(out, model.RawNewsItem{
			Date:        model.FormatDateTime(now),
			SourceType:  model.SourceTypeRSS,
			Source:      source,
			Title:       utils.TruncateRunes(title, maxTitleLen),
			Summary:     utils.TruncateRunes(summary, maxSummaryLen),
			Link:        entry.Link,
			PublishedAt: published,
		})
	}
	return out
}

// NormalizeDate picks the best publish timestamp for a feed entry: the parsed
// feed time, else a lenient parse of the raw string, else the collection time.
func NormalizeDate(entry *gofeed.Item, fallback time.Time) string {
	if entry.PublishedParsed != nil {
		return model.FormatDateTime(entry.PublishedParsed.Local())
	}
	if entry.Published != "" {
		if t, err := dateparse.ParseAny(entry.Published); err == nil {
			return model.FormatDateTime(t.Local())
		}
	}
	return model.FormatDateTime(fallback)
}

// StripHTML reduces an HTML fragment to its text content. Feed summaries
// routinely embed markup we don't want in the spreadsheet.
func StripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
