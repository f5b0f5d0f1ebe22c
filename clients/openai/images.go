// Package openai wraps the image generation endpoint used for post covers.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const generationsURL = "https://api.openai.com/v1/images/generations"

// ImageClient issues DALL-E style image generation requests and fetches the
// resulting bytes.
type ImageClient struct {
	APIKey string
	Model  string
	HTTP   *http.Client
}

func NewImageClient(apiKey, model string) *ImageClient {
	return &ImageClient{
		APIKey: apiKey,
		Model:  model,
		// Image generation is slow, allow well above the default.
		HTTP: &http.Client{Timeout: 120 * time.Second},
	}
}

// Generate requests one image of the given size and returns its raw bytes.
// The API may answer with a URL or inline base64, both are handled.
func (c *ImageClient) Generate(ctx context.Context, prompt, size string) ([]byte, error) {
	if c.APIKey == "" {
		return nil, errors.New("openai: missing API key")
	}

	payload, err := json.Marshal(map[string]any{
		"model":  c.Model,
		"prompt": prompt,
		"n":      1,
		"size":   size,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, generationsURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "image generation request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("image generation failed: %s: %s", resp.Status, body)
	}

	var parsed struct {
		Data []struct {
			URL     string `json:"url"`
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(err, "decode image response")
	}
	if len(parsed.Data) == 0 {
		return nil, errors.New("image generation returned no data")
	}

	if b64 := parsed.Data[0].B64JSON; b64 != "" {
		return base64.StdEncoding.DecodeString(b64)
	}
	return c.download(ctx, parsed.Data[0].URL)
}

func (c *ImageClient) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "download generated image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("download generated image: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
