// Package preview builds the composed social-preview image for an
// attachment: the photo plus a small rendered map of its position.
package preview

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/disintegration/imaging"

	"farmap/api/internal/config"
)

// MapFetcher produces a rendered square map image centered on a
// coordinate. Rendering itself is the tile provider's job; we only
// fetch the result.
type MapFetcher interface {
	FetchMapImage(ctx context.Context, lat, long float64, size, zoom int) (image.Image, error)
}

// MapboxFetcher fetches pre-rendered map images from the Mapbox
// Static Images API, with a marker pinned on the position.
type MapboxFetcher struct {
	baseURL string
	style   string
	token   string
	http    *http.Client
}

func NewMapboxFetcher(cfg config.PreviewConfig) *MapboxFetcher {
	return &MapboxFetcher{
		baseURL: cfg.MapboxBaseURL,
		style:   cfg.MapStyle,
		token:   cfg.MapboxToken,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (f *MapboxFetcher) FetchMapImage(ctx context.Context, lat, long float64, size, zoom int) (image.Image, error) {
	endpoint := fmt.Sprintf(
		"%s/styles/v1/%s/static/pin-s+4caf50(%f,%f)/%f,%f,%d,0/%dx%d?access_token=%s",
		f.baseURL, f.style, long, lat, long, lat, zoom, size, size, url.QueryEscape(f.token),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build map request: %w", err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch map image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("map provider returned %d: %s", resp.StatusCode, body)
	}

	img, err := imaging.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode map image: %w", err)
	}
	return img, nil
}
