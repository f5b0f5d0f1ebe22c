// Package google holds thin clients for the Google REST APIs the pipeline
// depends on: OAuth2 service-account token minting, Sheets values and Gmail
// send. See https://developers.google.com/identity/protocols/oauth2/service-account.
package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// OAuth scopes used by the pipeline.
const (
	ScopeSpreadsheets = "https://www.googleapis.com/auth/spreadsheets"
	ScopeGmailSend    = "https://www.googleapis.com/auth/gmail.send"
)

// Key is a Google service account key as downloaded from the cloud console.
type Key struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	ClientID     string `json:"client_id"`
	TokenURI     string `json:"token_uri"`
}

// LoadKey loads a service account key from a JSON file.
func LoadKey(path string) (*Key, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read service account key")
	}
	var key Key
	if err := json.Unmarshal(b, &key); err != nil {
		return nil, errors.Wrap(err, "parse service account key")
	}
	if key.Type != "service_account" {
		return nil, errors.Errorf("unsupported credentials type %q, want service_account", key.Type)
	}
	return &key, nil
}

// accessToken signs a JWT assertion with the key and exchanges it for an
// access token valid for one hour.
func (k *Key) accessToken(ctx context.Context, client *http.Client, scopes ...string) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(k.PrivateKey))
	if err != nil {
		return "", errors.Wrap(err, "parse private key")
	}

	now := time.Now()
	sig, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":   k.ClientEmail,
		"aud":   k.TokenURI,
		"scope": strings.Join(scopes, " "),
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}).SignedString(key)
	if err != nil {
		return "", errors.Wrap(err, "sign assertion")
	}

	params := url.Values{}
	params.Add("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	params.Add("assertion", sig)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.TokenURI, strings.NewReader(params.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "token exchange")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("token exchange failed: %s: %s", resp.Status, body)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", errors.Wrap(err, "parse token response")
	}
	return tok.AccessToken, nil
}

// TokenSource mints and caches access tokens for a fixed scope set. Safe for
// concurrent use.
type TokenSource struct {
	key    *Key
	client *http.Client
	scopes []string

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewTokenSource(key *Key, client *http.Client, scopes ...string) *TokenSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &TokenSource{key: key, client: client, scopes: scopes}
}

// Token returns a cached token, minting a fresh one when less than a minute
// of validity remains.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Until(ts.expires) > time.Minute {
		return ts.token, nil
	}

	tok, err := ts.key.accessToken(ctx, ts.client, ts.scopes...)
	if err != nil {
		return "", err
	}
	ts.token = tok
	ts.expires = time.Now().Add(55 * time.Minute)
	return tok, nil
}
