// Package openrouter is a thin client for the OpenRouter chat completions
// API, which fronts both the copywriting models and the search-augmented
// Perplexity Sonar models used by the scanner.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"

	Logger "github.com/russo2100/bob-2/utils/log"
)

const (
	completionsURL = "https://openrouter.ai/api/v1/chat/completions"

	maxRetries = 3
	retryDelay = 2 * time.Second
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one chat completion call. Model is required; zero Temperature
// and MaxTokens fall back to server defaults.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Client issues chat completions against OpenRouter.
type Client struct {
	APIKey string
	// Referer and Title are forwarded as HTTP-Referer / X-Title attribution
	// headers, which OpenRouter uses for app ranking.
	Referer string
	Title   string
	HTTP    *http.Client
	// BaseURL and RetryDelay are overridable in tests.
	BaseURL    string
	RetryDelay time.Duration
}

func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:     apiKey,
		Referer:    "https://github.com/russo2100/bob-2",
		Title:      "bob-2 content pipeline",
		HTTP:       &http.Client{Timeout: 60 * time.Second},
		BaseURL:    completionsURL,
		RetryDelay: retryDelay,
	}
}

// Generate performs one completion with bounded retries. HTTP 429 responses
// honor the Retry-After header, everything else waits a fixed delay.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("openrouter: missing API key")
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		text, retryAfter, err := c.generateOnce(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if attempt == maxRetries {
			break
		}

		delay := c.RetryDelay
		if retryAfter > 0 {
			delay = retryAfter
		}
		Logger.Log.Warnf("openrouter attempt %d/%d failed, retrying in %s: %v", attempt, maxRetries, delay, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", errors.Wrapf(lastErr, "openrouter: %d attempts failed", maxRetries)
}

func (c *Client) generateOnce(ctx context.Context, req Request) (string, time.Duration, error) {
	msgs := []Message{}
	if req.System != "" {
		msgs = append(msgs, Message{Role: "system", Content: req.System})
	}
	msgs = append(msgs, Message{Role: "user", Content: req.Prompt})

	body := map[string]any{
		"model":    req.Model,
		"messages": msgs,
	}
	if req.Temperature != 0 {
		body["temperature"] = req.Temperature
	}
	if req.MaxTokens != 0 {
		body["max_tokens"] = req.MaxTokens
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", 0, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", 0, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("HTTP-Referer", c.Referer)
	httpReq.Header.Set("X-Title", c.Title)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		var retryAfter time.Duration
		if sec, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			retryAfter = time.Duration(sec) * time.Second
		}
		return "", retryAfter, errors.Errorf("rate limited: %s", respBody)
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, errors.Errorf("completion failed: %s: %s", resp.Status, respBody)
	}

	var parsed struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", 0, errors.Wrap(err, "decode completion response")
	}
	if len(parsed.Choices) == 0 {
		return "", 0, errors.New("completion returned no choices")
	}
	return parsed.Choices[0].Message.Content, 0, nil
}
