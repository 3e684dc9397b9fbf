package email

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// BrevoTransport delivers through the Brevo transactional email API.
type BrevoTransport struct {
	apiKey    string
	fromName  string
	fromEmail string
	endpoint  string
	client    *http.Client
}

type brevoAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoEmailRequest struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

// NewBrevoTransport creates a Brevo transport.
func NewBrevoTransport(apiKey, fromName, fromEmail string) *BrevoTransport {
	return &BrevoTransport{
		apiKey:    apiKey,
		fromName:  fromName,
		fromEmail: fromEmail,
		endpoint:  brevoEndpoint,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *BrevoTransport) send(ctx context.Context, to []string, subject, htmlContent string) error {
	to = Recipients(to...)
	if len(to) == 0 {
		return fmt.Errorf("brevo send: no recipients")
	}

	payload := brevoEmailRequest{
		Sender:      brevoAddress{Name: b.fromName, Email: b.fromEmail},
		Subject:     subject,
		HTMLContent: htmlContent,
	}
	for _, addr := range to {
		payload.To = append(payload.To, brevoAddress{Email: addr})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", b.apiKey)
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("brevo send failed: status %d: %s", resp.StatusCode, string(data))
	}

	return nil
}
