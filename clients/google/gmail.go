package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const gmailSendURL = "https://gmail.googleapis.com/gmail/v1/users/me/messages/send"

// Mailer sends the pipeline run report through the Gmail API. The token
// source must carry the gmail.send scope and, for service accounts, the key
// must be delegated to the sending mailbox.
type Mailer struct {
	Tokens *TokenSource
	Client *http.Client
}

func NewMailer(tokens *TokenSource) *Mailer {
	return &Mailer{
		Tokens: tokens,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Send delivers an HTML email. The raw RFC 822 message is assembled inline
// and base64url-encoded as the Gmail API requires.
func (m *Mailer) Send(ctx context.Context, from, to, subject, htmlBody string) error {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	payload, err := json.Marshal(map[string]string{
		"raw": base64.URLEncoding.EncodeToString(msg.Bytes()),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gmailSendURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	tok, err := m.Tokens.Token(ctx)
	if err != nil {
		return errors.Wrap(err, "obtain access token")
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return errors.Wrap(err, "gmail send")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return errors.Errorf("gmail send: %s: %s", resp.Status, body)
	}
	return nil
}
