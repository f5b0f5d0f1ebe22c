// Package telegram is a minimal Bot API client: the pipeline only needs
// sendMessage, sendPhoto and getMe.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	apiBase = "https://api.telegram.org"

	// Bot API hard limits.
	MaxCaptionLength = 1024
	MaxTextLength    = 4096
)

// SentMessage is the delivery confirmation the publisher records.
type SentMessage struct {
	MessageID int64 `json:"message_id"`
	Date      int64 `json:"date"`
}

// Client posts to one chat or channel on behalf of a bot.
type Client struct {
	Token  string
	ChatID string
	HTTP   *http.Client
	// BaseURL is overridable in tests.
	BaseURL string
}

func NewClient(token, chatID string) *Client {
	return &Client{
		Token:   token,
		ChatID:  chatID,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		BaseURL: apiBase,
	}
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.BaseURL, c.Token, method)
}

// GetMe verifies the bot token is live. Used as a pre-publish connectivity
// check so a dead bot aborts the stage before any draft is touched.
func (c *Client) GetMe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.methodURL("getMe"), nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return errors.Wrap(err, "telegram getMe")
	}
	defer resp.Body.Close()

	return decodeResponse(resp, nil)
}

// SendMessage posts an HTML-formatted text message, truncated to the API
// limit.
func (c *Client) SendMessage(ctx context.Context, text string) (*SentMessage, error) {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    c.ChatID,
		"text":       truncate(text, MaxTextLength),
		"parse_mode": "HTML",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendMessage"), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "telegram sendMessage")
	}
	defer resp.Body.Close()

	var msg SentMessage
	if err := decodeResponse(resp, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendPhoto uploads a local image with an HTML caption, truncated to the
// caption limit.
func (c *Client) SendPhoto(ctx context.Context, photoPath, caption string) (*SentMessage, error) {
	file, err := os.Open(photoPath)
	if err != nil {
		return nil, errors.Wrap(err, "open cover image")
	}
	defer file.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("chat_id", c.ChatID); err != nil {
		return nil, err
	}
	if err := w.WriteField("caption", truncate(caption, MaxCaptionLength)); err != nil {
		return nil, err
	}
	if err := w.WriteField("parse_mode", "HTML"); err != nil {
		return nil, err
	}
	part, err := w.CreateFormFile("photo", filepath.Base(photoPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendPhoto"), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "telegram sendPhoto")
	}
	defer resp.Body.Close()

	var msg SentMessage
	if err := decodeResponse(resp, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// decodeResponse unwraps the Bot API envelope {ok, result, description}.
func decodeResponse(resp *http.Response, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var envelope struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description"`
		Result      json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return errors.Wrapf(err, "decode telegram response: %s", body)
	}
	if !envelope.OK {
		return errors.Errorf("telegram API error: %s", envelope.Description)
	}
	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return errors.Wrap(err, "decode telegram result")
		}
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
