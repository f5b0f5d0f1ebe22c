// Package copywriter drafts the Telegram post text for each selected trend
// using a chat completion model and a fixed style profile.
package copywriter

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/russo2100/bob-2/clients/openrouter"
	"github.com/russo2100/bob-2/model"
	"github.com/russo2100/bob-2/store"
	Logger "github.com/russo2100/bob-2/utils/log"
)

const (
	maxPromptNewsItems = 5
	generateMaxTokens  = 800
	generateTemp       = 0.8
)

// fallbackSystemPrompt is used when the style profile file is missing.
const fallbackSystemPrompt = `Ты — Bob 2.0, провокационный IT-блогер.
Структура поста: ХУК → БОЛЬ → ИНТРИГА → CTA → ПЕТЛЯ
Длина: 600-800 символов. Используй эмодзи 🔥💀🚀`

// Completer is the text generation dependency.
type Completer interface {
	Generate(ctx context.Context, req openrouter.Request) (string, error)
}

// Copywriter fills pending drafts with generated post text.
type Copywriter struct {
	Completer Completer
	Drafts    store.DraftStore
	Model     string
	// MinLength/MaxLength bound the desired post size; violations only warn.
	MinLength    int
	MaxLength    int
	SystemPrompt string
	Now          func() time.Time
}

func NewCopywriter(completer Completer, drafts store.DraftStore, modelName, promptPath string, minLen, maxLen int) *Copywriter {
	return &Copywriter{
		Completer:    completer,
		Drafts:       drafts,
		Model:        modelName,
		MinLength:    minLen,
		MaxLength:    maxLen,
		SystemPrompt: loadSystemPrompt(promptPath),
		Now:          time.Now,
	}
}

// loadSystemPrompt reads the style profile, falling back to the built-in one.
func loadSystemPrompt(path string) string {
	if path != "" {
		if b, err := os.ReadFile(path); err == nil {
			return string(b)
		}
		Logger.WithAgent("copywriter").Warnf("style profile %s not found, using built-in prompt", path)
	}
	return fallbackSystemPrompt
}

// Run generates text for every trend's pending draft. A failed generation
// leaves the draft without text and the remaining trends continue.
func (c *Copywriter) Run(ctx context.Context, trends []model.Trend) (int, error) {
	generated := 0
	for _, trend := range trends {
		log := Logger.WithAgent("copywriter").WithFields(logrus.Fields{"trend": trend.Name})

		post, err := c.Completer.Generate(ctx, openrouter.Request{
			Model:       c.Model,
			System:      c.SystemPrompt,
			Prompt:      BuildUserPrompt(trend),
			Temperature: generateTemp,
			MaxTokens:   generateMaxTokens,
		})
		if err != nil {
			log.Errorf("generation failed, draft left without text: %v", err)
			continue
		}
		post = strings.TrimSpace(post)
		if post == "" {
			log.Error("empty generation, draft left without text")
			continue
		}

		if n := len([]rune(post)); n < c.MinLength {
			log.Warnf("post too short (%d chars)", n)
		} else if n > c.MaxLength {
			log.Warnf("post too long (%d chars)", n)
		}

		if err := c.Drafts.UpdateDraft(ctx, trend.Name, store.DraftUpdate{
			store.ColPostText: post,
		}); err != nil {
			log.Errorf("draft update failed: %v", err)
			continue
		}
		generated++
	}
	Logger.WithAgent("copywriter").Infof("generated %d/%d posts", generated, len(trends))
	return generated, nil
}

// BuildUserPrompt renders the per-trend generation prompt: topic, trend
// description and up to five supporting headlines.
func BuildUserPrompt(trend model.Trend) string {
	var titles []string
	for _, item := range trend.Items {
		if item.Title == "" {
			continue
		}
		titles = append(titles, "- "+item.Title)
		if len(titles) == maxPromptNewsItems {
			break
		}
	}

	return fmt.Sprintf(`Тренд: %s

Описание: %s

Новости по теме:
%s

Задача: Напиши провокационный пост для Telegram (600-800 символов) по этому тренду.
Используй структуру: ХУК → БОЛЬ → ИНТРИГА → CTA → ПЕТЛЯ
Добавь агрессивные эмодзи и FOMO-триггеры.`,
		trend.Name, trend.Description, strings.Join(titles, "\n"))
}
