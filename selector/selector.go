// Package selector implements the trend selection agent: it buckets the
// day's raw news into topic clusters, scores them by frequency, brand weight
// and freshness, and turns the winners into pending drafts.
package selector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/russo2100/bob-2/model"
	"github.com/russo2100/bob-2/store"
	"github.com/russo2100/bob-2/utils"
	Logger "github.com/russo2100/bob-2/utils/log"
)

// topicKeywords drives the clustering: first matching topic wins, items with
// no match land in the fallback topic.
var topicKeywords = []struct {
	Topic    string
	Keywords []string
}{
	{"AI Models", []string{"gpt", "model", "llm", "transformer", "diffusion", "claude", "gemini", "llama"}},
	{"AI Agents", []string{"agent", "autonomous", "workflow", "automation", "copilot", "assistant"}},
	{"AI Regulation", []string{"regulation", "policy", "law", "eu ai act", "safety", "governance"}},
	{"AI Business", []string{"investment", "funding", "acquisition", "valuation", "revenue", "market"}},
	{"AI Research", []string{"paper", "research", "benchmark", "accuracy", "performance", "state-of-the-art"}},
	{"AI Hardware", []string{"gpu", "tpu", "chip", "nvidia", "amd", "intel", "hardware", "compute"}},
	{"AI Open Source", []string{"open source", "github", "hugging face", "release", "library", "framework"}},
	{"AI Ethics", []string{"bias", "ethics", "fairness", "privacy", "misuse", "dangerous"}},
}

const fallbackTopic = "AI General"

var highPriorityBrands = []string{"OpenAI", "Google", "Anthropic", "Meta", "Microsoft", "NVIDIA"}

const maxDescriptionLen = 300

// TrendSelector reads today's news and emits pending drafts for the best
// trends.
type TrendSelector struct {
	Store store.Store
	// TopTrends bounds how many clusters are ranked into trends, PostsCount
	// how many of those become drafts.
	TopTrends  int
	PostsCount int
	// ArtifactPath is where the markdown trend report is written. Empty
	// disables the artifact.
	ArtifactPath string
	Now          func() time.Time
}

func NewTrendSelector(st store.Store, topTrends, postsCount int, artifactPath string) *TrendSelector {
	return &TrendSelector{
		Store:        st,
		TopTrends:    topTrends,
		PostsCount:   postsCount,
		ArtifactPath: artifactPath,
		Now:          time.Now,
	}
}

// Run selects trends from today's news and appends one pending draft per
// selected trend. Returns the selected trends for downstream agents.
func (s *TrendSelector) Run(ctx context.Context) ([]model.Trend, error) {
	now := s.Now()
	items, err := s.Store.TodayNews(ctx, now.Format(model.DateFormat))
	if err != nil {
		return nil, errors.Wrap(err, "read today's news")
	}
	if len(items) == 0 {
		Logger.WithAgent("trend_selector").Info("no news for today, nothing to select")
		return nil, nil
	}

	trends := SelectTrends(items, s.TopTrends, now)
	Logger.WithAgent("trend_selector").Infof("selected %d trends from %d items", len(trends), len(items))

	if s.ArtifactPath != "" {
		if err := s.writeArtifact(trends, now); err != nil {
			Logger.WithAgent("trend_selector").Errorf("trends artifact not written: %v", err)
		}
	}

	drafted := trends
	if len(drafted) > s.PostsCount {
		drafted = drafted[:s.PostsCount]
	}
	for _, trend := range drafted {
		draft := model.Draft{
			Date:     model.FormatDateTime(now),
			Trend:    trend.Name,
			Status:   model.StatusDraft,
			Approved: model.MarkNo,
			Posted:   model.MarkNo,
		}
		if err := s.Store.AppendDraft(ctx, draft); err != nil {
			return nil, errors.Wrapf(err, "append draft for trend %q", trend.Name)
		}
	}
	return drafted, nil
}

// SelectTrends clusters items by topic, scores each cluster and returns the
// top n trends ordered by descending score.
func SelectTrends(items []model.RawNewsItem, n int, now time.Time) []model.Trend {
	clusters := ClusterByTopic(items)

	var trends []model.Trend
	for topic, cluster := range clusters {
		trends = append(trends, model.Trend{
			Name:        topic,
			Description: describeCluster(topic, cluster),
			Score:       ScoreCluster(cluster, now),
			Items:       cluster,
		})
	}

	sort.Slice(trends, func(i, j int) bool {
		if trends[i].Score != trends[j].Score {
			return trends[i].Score > trends[j].Score
		}
		return trends[i].Name < trends[j].Name
	})

	if n > 0 && len(trends) > n {
		trends = trends[:n]
	}
	return trends
}

// ClusterByTopic groups items by the first topic whose keyword appears in
// title or summary.
func ClusterByTopic(items []model.RawNewsItem) map[string][]model.RawNewsItem {
	clusters := make(map[string][]model.RawNewsItem)
	for _, item := range items {
		topic := ClassifyTopic(item.Title + " " + item.Summary)
		clusters[topic] = append(clusters[topic], item)
	}
	return clusters
}

// ClassifyTopic returns the first topic with a keyword hit, else the
// fallback.
func ClassifyTopic(text string) string {
	lower := strings.ToLower(text)
	for _, tk := range topicKeywords {
		for _, kw := range tk.Keywords {
			if strings.Contains(lower, kw) {
				return tk.Topic
			}
		}
	}
	return fallbackTopic
}

// ScoreCluster ranks a cluster: one point per item, two per high-priority
// brand mention, and a freshness bonus decaying linearly over 24 hours.
func ScoreCluster(cluster []model.RawNewsItem, now time.Time) float64 {
	score := float64(len(cluster))

	for _, item := range cluster {
		if item.Brand != "" && utils.ContainsString(highPriorityBrands, item.Brand) {
			score += 2
		}

		pub, err := time.ParseInLocation(model.DateTimeFormat, item.PublishedAt, now.Location())
		if err != nil {
			// unparseable date counts as middling freshness
			score += 0.25
			continue
		}
		hours := now.Sub(pub).Hours()
		if bonus := (1 - hours/24) * 0.5; bonus > 0 {
			score += bonus
		}
	}
	return score
}

func describeCluster(topic string, cluster []model.RawNewsItem) string {
	brandSet := make(map[string]bool)
	var brands []string
	for _, item := range cluster {
		if item.Brand != "" && !brandSet[item.Brand] {
			brandSet[item.Brand] = true
			brands = append(brands, item.Brand)
		}
	}
	brandsStr := "Various companies"
	if len(brands) > 0 {
		brandsStr = strings.Join(brands, ", ")
	}

	var titles []string
	for _, item := range cluster {
		titles = append(titles, item.Title)
		if len(titles) == 2 {
			break
		}
	}

	desc := fmt.Sprintf("%s: %d новостей от %s. Ключевые события: %s",
		topic, len(cluster), brandsStr, strings.Join(titles, "; "))
	return utils.TruncateRunes(desc, maxDescriptionLen)
}

func (s *TrendSelector) writeArtifact(trends []model.Trend, now time.Time) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# 🔥 TOP-%d AI Trends\n\n", len(trends))
	fmt.Fprintf(&b, "Generated: %s\n\n---\n\n", model.FormatDateTime(now))
	for i, trend := range trends {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, trend.Name)
		fmt.Fprintf(&b, "**Score:** %.1f | **News:** %d\n\n", trend.Score, len(trend.Items))
		fmt.Fprintf(&b, "%s\n\n---\n\n", trend.Description)
	}

	if err := os.MkdirAll(filepath.Dir(s.ArtifactPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.ArtifactPath, []byte(b.String()), 0o644)
}
