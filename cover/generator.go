// Package cover generates post cover images: builds a visual prompt from the
// draft text, calls the image model and stores the PNG locally.
package cover

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/russo2100/bob-2/model"
	"github.com/russo2100/bob-2/store"
	"github.com/russo2100/bob-2/utils"
	Logger "github.com/russo2100/bob-2/utils/log"
)

const (
	maxKeywords = 5
	minWordLen  = 4

	techStyle = "futuristic technology style, neon blue and purple, digital art"
)

// stopWords filters filler words, both English and Russian, out of the
// visual prompt keywords.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true,
	"в": true, "на": true, "по": true, "с": true, "со": true,
	"за": true, "под": true, "над": true, "для": true, "от": true,
	"и": true, "или": true, "но": true, "а": true, "же": true,
	"ли": true, "бы": true, "что": true, "кто": true, "где": true,
}

// ImageGenerator is the image model dependency.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt, size string) ([]byte, error)
}

// Generator creates covers for drafts that have text but no image yet.
type Generator struct {
	Images    ImageGenerator
	Drafts    store.DraftStore
	ImageSize string
	DataDir   string
	Now       func() time.Time
}

func NewGenerator(images ImageGenerator, drafts store.DraftStore, imageSize, dataDir string) *Generator {
	return &Generator{
		Images:    images,
		Drafts:    drafts,
		ImageSize: imageSize,
		DataDir:   dataDir,
		Now:       time.Now,
	}
}

// Run generates a cover for every eligible draft. A failed generation leaves
// CoverImagePath empty, which excludes the draft from publishing.
func (g *Generator) Run(ctx context.Context) (int, error) {
	drafts, err := g.Drafts.Drafts(ctx)
	if err != nil {
		return 0, err
	}

	generated := 0
	for _, d := range drafts {
		if !NeedsCover(d) {
			continue
		}
		log := Logger.WithAgent("cover_generator").WithFields(logrus.Fields{"trend": d.Trend})

		path, err := g.generateCover(ctx, d)
		if err != nil {
			log.Errorf("cover skipped: %v", err)
			continue
		}
		if err := g.Drafts.UpdateDraft(ctx, d.Trend, store.DraftUpdate{
			store.ColCoverImagePath: path,
		}); err != nil {
			log.Errorf("draft update failed: %v", err)
			continue
		}
		log.Infof("cover saved to %s", path)
		generated++
	}
	return generated, nil
}

// NeedsCover reports whether a draft is in scope for cover generation:
// drafted or approved, has text, has no image yet.
func NeedsCover(d model.Draft) bool {
	if d.CoverImagePath != "" || d.PostText == "" {
		return false
	}
	return d.Status == model.StatusDraft || d.Status == model.StatusApproved
}

func (g *Generator) generateCover(ctx context.Context, d model.Draft) (string, error) {
	prompt := BuildVisualPrompt(d.PostText, d.Trend)
	img, err := g.Images.Generate(ctx, prompt, g.ImageSize)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.DataDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(g.DataDir, Slug(d.PostText, g.Now())+".png")
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// BuildVisualPrompt derives the image prompt from the post's top keywords and
// a fixed style.
func BuildVisualPrompt(postText, trend string) string {
	keywords := ExtractKeywords(postText)
	keywordsStr := "AI, technology, future"
	if len(keywords) > 0 {
		keywordsStr = strings.Join(keywords, ", ")
	}
	return fmt.Sprintf(
		"Cover image for social media post about %s. Key concepts: %s. Style: %s. "+
			"Square format, bold composition, eye-catching design, professional quality, 4k resolution",
		trend, keywordsStr, techStyle)
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// ExtractKeywords returns the first maxKeywords unique words of the text that
// are long enough and not stop words. Emoji and punctuation are dropped
// first.
func ExtractKeywords(text string) []string {
	clean := nonWord.ReplaceAllString(text, " ")

	seen := make(map[string]bool)
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(clean)) {
		if len([]rune(word)) < minWordLen || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

var nonSlug = regexp.MustCompile(`[^\p{L}\p{N}\s-]`)

// Slug builds a unique file name stem from the text prefix, the date and a
// short content hash.
func Slug(text string, now time.Time) string {
	clean := nonSlug.ReplaceAllString(utils.TruncateRunes(text, 30), "")
	clean = strings.Join(strings.Fields(strings.ToLower(clean)), "-")
	if clean == "" {
		clean = "cover"
	}
	return fmt.Sprintf("%s-%s-%s", clean, now.Format("20060102"), utils.TextToMd5Hash(text)[:8])
}
