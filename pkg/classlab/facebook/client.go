// Package facebook wraps the Facebook Graph API profile endpoint.
package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://graph.facebook.com"

// Profile is the signed-in user as the Graph API reports them
type Profile struct {
	ID      string
	Name    string
	Email   string
	Picture string
}

type meResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

// Client calls the Facebook Graph API
type Client struct {
	HTTP    *http.Client
	BaseURL string
}

// New creates a Graph API client. No server-side key: the user's
// access token carries the authorization.
func New() *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		BaseURL: defaultBaseURL,
	}
}

// Me fetches the profile behind an OAuth access token
func (c *Client) Me(ctx context.Context, accessToken string) (*Profile, error) {
	params := url.Values{}
	params.Set("access_token", accessToken)
	params.Set("fields", "id,name,email,picture")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/me?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building facebook request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling facebook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("facebook returned status %d: %s", resp.StatusCode, body)
	}

	var result meResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding facebook response: %w", err)
	}
	if result.Email == "" {
		return nil, fmt.Errorf("facebook profile has no email")
	}

	return &Profile{
		ID:      result.ID,
		Name:    result.Name,
		Email:   result.Email,
		Picture: result.Picture.Data.URL,
	}, nil
}
