package store

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/russo2100/bob-2/model"
)

// Memory is an in-memory Store used in tests and in the dry-run connectivity
// mode. It mirrors the sheet semantics including write-time dedup and
// update-by-trend.
type Memory struct {
	mu     sync.Mutex
	news   []model.RawNewsItem
	drafts []model.Draft
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) AppendNews(_ context.Context, items []model.RawNewsItem) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool, len(m.news))
	for _, r := range m.news {
		seen[r.DedupKey()] = true
	}

	written := 0
	for _, item := range items {
		if seen[item.DedupKey()] {
			continue
		}
		seen[item.DedupKey()] = true
		m.news = append(m.news, item)
		written++
	}
	return written, nil
}

func (m *Memory) TodayNews(_ context.Context, day string) ([]model.RawNewsItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.RawNewsItem
	for _, r := range m.news {
		if strings.HasPrefix(r.Date, day) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) AppendDraft(_ context.Context, d model.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts = append(m.drafts, d)
	return nil
}

func (m *Memory) Drafts(_ context.Context) ([]model.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Draft, len(m.drafts))
	copy(out, m.drafts)
	return out, nil
}

func (m *Memory) UpdateDraft(_ context.Context, trend string, updates DraftUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, d := range m.drafts {
		if d.Trend == trend {
			m.drafts[i] = ApplyDraftUpdate(d, updates)
			return nil
		}
	}
	return errors.Errorf("no draft found for trend %q", trend)
}
