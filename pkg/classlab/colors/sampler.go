// Package colors derives a single representative color from an image
// by scaling it down to one pixel.
package colors

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// Sampler fetches an image and picks its dominant color
type Sampler struct {
	http *http.Client
}

// NewSampler creates a color sampler
func NewSampler() *Sampler {
	return &Sampler{http: &http.Client{Timeout: 10 * time.Second}}
}

// Sample downloads imageURL and returns the hex color of the image
// scaled to a single pixel.
func (s *Sampler) Sample(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("building image request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching image: status %d", resp.StatusCode)
	}

	src, _, err := image.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}

	pixel := image.NewRGBA(image.Rect(0, 0, 1, 1))
	draw.ApproxBiLinear.Scale(pixel, pixel.Bounds(), src, src.Bounds(), draw.Src, nil)

	r, g, b, _ := pixel.At(0, 0).RGBA()
	return fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(b>>8)), nil
}
