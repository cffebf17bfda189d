package meta

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Page holds the metadata scraped from a URL
type Page struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	MediaType   string `json:"media_type"`
}

// Scraper fetches a page and extracts its Open Graph metadata, falling
// back to plain title/description tags.
type Scraper struct {
	http *http.Client
}

// NewScraper creates a metadata scraper
func NewScraper() *Scraper {
	return &Scraper{http: &http.Client{Timeout: 10 * time.Second}}
}

// Fetch downloads url and returns its metadata
func (s *Scraper) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building metadata request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}

	page := &Page{URL: url}
	var plainTitle, plainDescription string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && plainTitle == "" {
					plainTitle = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				var property, name, content string
				for _, attr := range n.Attr {
					switch attr.Key {
					case "property":
						property = attr.Val
					case "name":
						name = attr.Val
					case "content":
						content = attr.Val
					}
				}
				switch property {
				case "og:title":
					page.Title = content
				case "og:description":
					page.Description = content
				case "og:image":
					page.Image = content
				case "og:type":
					page.MediaType = content
				}
				if name == "description" && plainDescription == "" {
					plainDescription = content
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if page.Title == "" {
		page.Title = plainTitle
	}
	if page.Description == "" {
		page.Description = plainDescription
	}
	return page, nil
}
