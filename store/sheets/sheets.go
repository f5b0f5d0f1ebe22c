// Package sheets implements the shared store on top of the Google Sheets
// values REST API. Two logical tables live in one spreadsheet: NewsRaw for
// collected items and Texts for post drafts.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/russo2100/bob-2/clients/google"
	"github.com/russo2100/bob-2/model"
	"github.com/russo2100/bob-2/store"
	Logger "github.com/russo2100/bob-2/utils/log"
)

const (
	baseURL = "https://sheets.googleapis.com/v4/spreadsheets"

	NewsSheet  = "NewsRaw"
	TextsSheet = "Texts"
)

// TokenSource provides OAuth2 access tokens for the Sheets API.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Store talks to one spreadsheet. Implements store.Store.
type Store struct {
	SpreadsheetID string
	Tokens        TokenSource
	Client        *http.Client
	// BaseURL is overridable in tests.
	BaseURL string
}

var _ store.Store = (*Store)(nil)

func NewStore(spreadsheetID string, tokens *google.TokenSource) *Store {
	return &Store{
		SpreadsheetID: spreadsheetID,
		Tokens:        tokens,
		Client:        &http.Client{Timeout: 30 * time.Second},
		BaseURL:       baseURL,
	}
}

func (s *Store) AppendNews(ctx context.Context, items []model.RawNewsItem) (int, error) {
	existing, err := s.readRows(ctx, NewsSheet)
	if err != nil {
		return 0, err
	}
	if err := s.ensureHeaders(ctx, NewsSheet, store.NewsHeaders, existing); err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(existing))
	for _, row := range dataRows(existing) {
		seen[store.NewsFromRow(row).DedupKey()] = true
	}

	var rows [][]string
	for _, item := range items {
		if seen[item.DedupKey()] {
			Logger.Log.Debugf("skipping duplicate news item %q", item.Title)
			continue
		}
		seen[item.DedupKey()] = true
		rows = append(rows, store.NewsToRow(item))
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := s.appendRows(ctx, NewsSheet, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *Store) TodayNews(ctx context.Context, day string) ([]model.RawNewsItem, error) {
	rows, err := s.readRows(ctx, NewsSheet)
	if err != nil {
		return nil, err
	}
	var out []model.RawNewsItem
	for _, row := range dataRows(rows) {
		item := store.NewsFromRow(row)
		if strings.HasPrefix(item.Date, day) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *Store) AppendDraft(ctx context.Context, d model.Draft) error {
	existing, err := s.readRows(ctx, TextsSheet)
	if err != nil {
		return err
	}
	if err := s.ensureHeaders(ctx, TextsSheet, store.DraftHeaders, existing); err != nil {
		return err
	}
	return s.appendRows(ctx, TextsSheet, [][]string{store.DraftToRow(d)})
}

func (s *Store) Drafts(ctx context.Context) ([]model.Draft, error) {
	rows, err := s.readRows(ctx, TextsSheet)
	if err != nil {
		return nil, err
	}
	var out []model.Draft
	for _, row := range dataRows(rows) {
		out = append(out, store.DraftFromRow(row))
	}
	return out, nil
}

// UpdateDraft rewrites the first row whose trend column matches. The sheet row
// index is the draft's identity, per the shared store design.
func (s *Store) UpdateDraft(ctx context.Context, trend string, updates store.DraftUpdate) error {
	rows, err := s.readRows(ctx, TextsSheet)
	if err != nil {
		return err
	}
	for i, row := range dataRows(rows) {
		d := store.DraftFromRow(row)
		if d.Trend != trend {
			continue
		}
		updated := store.ApplyDraftUpdate(d, updates)
		// +2: sheets are 1-based and row 1 is the header.
		rng := fmt.Sprintf("%s!A%d", TextsSheet, i+2)
		return s.updateRange(ctx, rng, [][]string{store.DraftToRow(updated)})
	}
	return errors.Errorf("no draft found for trend %q", trend)
}

// Ping verifies connectivity and authorization by reading spreadsheet
// metadata. Used by the orchestrator's self-check mode.
func (s *Store) Ping(ctx context.Context) error {
	var resp struct {
		SpreadsheetID string `json:"spreadsheetId"`
	}
	u := fmt.Sprintf("%s/%s?fields=spreadsheetId", s.BaseURL, s.SpreadsheetID)
	return s.doJSON(ctx, http.MethodGet, u, nil, &resp)
}

func (s *Store) readRows(ctx context.Context, sheet string) ([][]string, error) {
	var resp struct {
		Values [][]string `json:"values"`
	}
	u := fmt.Sprintf("%s/%s/values/%s", s.BaseURL, s.SpreadsheetID, url.PathEscape(sheet))
	if err := s.doJSON(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheet)
	}
	return resp.Values, nil
}

// ensureHeaders writes the header row when the sheet is empty.
func (s *Store) ensureHeaders(ctx context.Context, sheet string, headers []string, existing [][]string) error {
	if len(existing) > 0 {
		return nil
	}
	if err := s.updateRange(ctx, sheet+"!A1", [][]string{headers}); err != nil {
		return errors.Wrapf(err, "write headers to %s", sheet)
	}
	return nil
}

func (s *Store) appendRows(ctx context.Context, sheet string, rows [][]string) error {
	u := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=RAW&insertDataOption=INSERT_ROWS",
		s.BaseURL, s.SpreadsheetID, url.PathEscape(sheet))
	body := map[string]any{"values": rows}
	if err := s.doJSON(ctx, http.MethodPost, u, body, nil); err != nil {
		return errors.Wrapf(err, "append to sheet %s", sheet)
	}
	return nil
}

func (s *Store) updateRange(ctx context.Context, rng string, rows [][]string) error {
	u := fmt.Sprintf("%s/%s/values/%s?valueInputOption=RAW",
		s.BaseURL, s.SpreadsheetID, url.PathEscape(rng))
	body := map[string]any{"values": rows}
	return s.doJSON(ctx, http.MethodPut, u, body, nil)
}

func (s *Store) doJSON(ctx context.Context, method, u string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	tok, err := s.Tokens.Token(ctx)
	if err != nil {
		return errors.Wrap(err, "obtain access token")
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("sheets API: %s: %s", resp.Status, respBody)
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errors.Wrap(err, "decode sheets response")
		}
	}
	return nil
}

// dataRows strips the header row.
func dataRows(rows [][]string) [][]string {
	if len(rows) <= 1 {
		return nil
	}
	return rows[1:]
}
