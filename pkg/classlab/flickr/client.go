// Package flickr wraps the Flickr photo search REST API.
package flickr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.flickr.com/services/rest/"

// Photo is one search result as Flickr returns it: the four size
// variants come back as url_/width_/height_ triples keyed by the first
// letter of the size name.
type Photo struct {
	ID        string `json:"id"`
	Owner     string `json:"owner"`
	OwnerName string `json:"ownername"`
	Title     string `json:"title"`

	URLT    string `json:"url_t"`
	WidthT  int    `json:"width_t"`
	HeightT int    `json:"height_t"`
	URLS    string `json:"url_s"`
	WidthS  int    `json:"width_s"`
	HeightS int    `json:"height_s"`
	URLM    string `json:"url_m"`
	WidthM  int    `json:"width_m"`
	HeightM int    `json:"height_m"`
	URLL    string `json:"url_l"`
	WidthL  int    `json:"width_l"`
	HeightL int    `json:"height_l"`
}

// Size returns the rendition for a size letter (t, s, m, l). ok is
// false when Flickr did not include that rendition.
func (p Photo) Size(letter byte) (src string, width, height int, ok bool) {
	switch letter {
	case 't':
		return p.URLT, p.WidthT, p.HeightT, p.URLT != ""
	case 's':
		return p.URLS, p.WidthS, p.HeightS, p.URLS != ""
	case 'm':
		return p.URLM, p.WidthM, p.HeightM, p.URLM != ""
	case 'l':
		return p.URLL, p.WidthL, p.HeightL, p.URLL != ""
	}
	return "", 0, 0, false
}

type searchResponse struct {
	Stat   string `json:"stat"`
	Photos struct {
		Photo []Photo `json:"photo"`
	} `json:"photos"`
}

// Client calls the Flickr REST API
type Client struct {
	HTTP    *http.Client
	BaseURL string
	key     string
}

// New creates a Flickr client with the given API key
func New(key string) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		BaseURL: defaultBaseURL,
		key:     key,
	}
}

// Search runs a relevance-sorted photo search. Results without a large
// rendition are filtered out, matching what the platform can display.
func (c *Client) Search(ctx context.Context, text string, limit, page int) ([]Photo, error) {
	params := url.Values{}
	params.Set("method", "flickr.photos.search")
	params.Set("api_key", c.key)
	params.Set("sort", "relevance")
	params.Set("license", "1,2,3,4,5,6")
	params.Set("content_type", "6")
	params.Set("media", "photos")
	params.Set("extras", "owner_name,url_t,url_s,url_m,url_l")
	params.Set("format", "json")
	params.Set("nojsoncallback", "1")
	params.Set("per_page", strconv.Itoa(limit))
	params.Set("page", strconv.Itoa(page))
	params.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building flickr request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling flickr: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("flickr returned status %d: %s", resp.StatusCode, body)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding flickr response: %w", err)
	}
	if result.Stat != "ok" {
		return nil, fmt.Errorf("flickr returned stat %q", result.Stat)
	}

	photos := make([]Photo, 0, len(result.Photos.Photo))
	for _, photo := range result.Photos.Photo {
		if photo.URLL == "" {
			continue
		}
		photos = append(photos, photo)
	}
	return photos, nil
}
