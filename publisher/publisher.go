// Package publisher posts approved drafts to the Telegram channel and records
// the delivery results in the shared store.
package publisher

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/russo2100/bob-2/clients/telegram"
	"github.com/russo2100/bob-2/model"
	"github.com/russo2100/bob-2/store"
	Logger "github.com/russo2100/bob-2/utils/log"
)

// Messenger is the channel delivery dependency.
type Messenger interface {
	GetMe(ctx context.Context) error
	SendPhoto(ctx context.Context, photoPath, caption string) (*telegram.SentMessage, error)
}

// Stats summarizes one publishing pass.
type Stats struct {
	Published int
	Failed    int
	Total     int
}

// Publisher delivers publishable drafts to the channel.
type Publisher struct {
	Messenger Messenger
	Drafts    store.DraftStore
	Now       func() time.Time
}

func NewPublisher(messenger Messenger, drafts store.DraftStore) *Publisher {
	return &Publisher{
		Messenger: messenger,
		Drafts:    drafts,
		Now:       time.Now,
	}
}

// Run posts every publishable draft. The channel connection is verified
// first: a dead bot aborts the stage before any draft is touched. A failed
// post for one draft does not block the others. Posted drafts act as their
// own publish guard, so re-running over the same store never re-posts.
func (p *Publisher) Run(ctx context.Context) (Stats, error) {
	if err := p.Messenger.GetMe(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "telegram connectivity check")
	}

	drafts, err := p.Drafts.Drafts(ctx)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, d := range drafts {
		if !d.IsPublishable() {
			continue
		}
		stats.Total++
		log := Logger.WithAgent("publisher").WithFields(logrus.Fields{"trend": d.Trend})

		msg, err := p.Messenger.SendPhoto(ctx, d.CoverImagePath, d.PostText)
		if err != nil {
			log.Errorf("post failed: %v", err)
			stats.Failed++
			continue
		}

		if err := p.Drafts.UpdateDraft(ctx, d.Trend, store.DraftUpdate{
			store.ColPosted:    model.MarkYes,
			store.ColPostedAt:  model.FormatDateTime(p.Now()),
			store.ColMessageID: formatMessageID(msg.MessageID),
		}); err != nil {
			// The post went out but the store was not updated: surface loudly,
			// a re-run would double-post this draft.
			log.Errorf("post delivered but draft not marked as posted: %v", err)
			stats.Failed++
			continue
		}
		log.Infof("published, message id %d", msg.MessageID)
		stats.Published++
	}

	Logger.WithAgent("publisher").Infof("published %d, failed %d, total %d", stats.Published, stats.Failed, stats.Total)
	return stats, nil
}

func formatMessageID(id int64) string {
	return strconv.FormatInt(id, 10)
}
