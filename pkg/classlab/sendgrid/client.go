// Package sendgrid wraps the transactional mail API used for password
// reset messages.
package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.sendgrid.com"

// Client sends mail through the Sendgrid v3 API
type Client struct {
	HTTP    *http.Client
	BaseURL string
	key     string
	from    string
}

// New creates a mail client sending from the given address
func New(key, from string) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		BaseURL: defaultBaseURL,
		key:     key,
		from:    from,
	}
}

type address struct {
	Email string `json:"email"`
}

type mailRequest struct {
	Personalizations []struct {
		To []address `json:"to"`
	} `json:"personalizations"`
	From    address `json:"from"`
	Subject string  `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

// Send delivers one HTML mail
func (c *Client) Send(ctx context.Context, to, subject, html string) error {
	payload := mailRequest{
		From:    address{Email: c.from},
		Subject: subject,
	}
	payload.Personalizations = make([]struct {
		To []address `json:"to"`
	}, 1)
	payload.Personalizations[0].To = []address{{Email: to}}
	payload.Content = append(payload.Content, struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{Type: "text/html", Value: html})

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.key)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mail API returned status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}
