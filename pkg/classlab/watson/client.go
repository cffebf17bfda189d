// Package watson wraps the natural-language-understanding keyword
// extraction API.
package watson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const apiVersion = "2022-04-07"

// Client calls the keyword extraction service
type Client struct {
	HTTP    *http.Client
	BaseURL string
	key     string
}

// New creates a keyword extraction client
func New(baseURL, key string) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		BaseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
	}
}

type analyzeRequest struct {
	Text     string `json:"text"`
	Features struct {
		Keywords struct {
			Limit int `json:"limit"`
		} `json:"keywords"`
	} `json:"features"`
}

type analyzeResponse struct {
	Keywords []struct {
		Text string `json:"text"`
	} `json:"keywords"`
}

// Extract returns the keywords of a text. Any transport or API failure
// propagates: callers treat a failed extraction as a failed save.
func (c *Client) Extract(ctx context.Context, text string) ([]string, error) {
	payload := analyzeRequest{Text: text}
	payload.Features.Keywords.Limit = 10

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding analyze request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/analyze?version=%s", c.BaseURL, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("apikey", c.key)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling keyword extraction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("keyword extraction returned status %d: %s", resp.StatusCode, respBody)
	}

	var result analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding analyze response: %w", err)
	}

	keywords := make([]string, 0, len(result.Keywords))
	for _, kw := range result.Keywords {
		keywords = append(keywords, strings.ToLower(kw.Text))
	}
	return keywords, nil
}
