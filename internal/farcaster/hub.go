// Package farcaster holds the HTTP clients for the two third-party
// identity services: the hub (profile data) and the SIWF verifier.
package farcaster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"farmap/api/internal/config"
)

// ErrHub covers any failure talking to the hub. Profile enrichment is
// best-effort, so callers degrade instead of propagating it.
var ErrHub = errors.New("hub error")

// Farcaster user_data_type values, per the hub protocol.
const (
	userDataTypePfp     = 1
	userDataTypeDisplay = 2
)

type Profile struct {
	DisplayName  *string
	DisplayImage *string
}

type HubClient struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func NewHubClient(cfg config.FarcasterConfig, log zerolog.Logger) *HubClient {
	return &HubClient{
		baseURL: cfg.HubBaseURL,
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		log:     log,
	}
}

type userDataResponse struct {
	Data struct {
		UserDataBody struct {
			Type  any    `json:"type"`
			Value string `json:"value"`
		} `json:"userDataBody"`
	} `json:"data"`
}

// GetProfile fetches display name and avatar for a fid. Either field
// may come back nil when the hub has no record for it.
func (c *HubClient) GetProfile(ctx context.Context, fid int64) (Profile, error) {
	displayName, err := c.getUserData(ctx, fid, userDataTypeDisplay)
	if err != nil {
		return Profile{}, err
	}

	displayImage, err := c.getUserData(ctx, fid, userDataTypePfp)
	if err != nil {
		return Profile{}, err
	}

	return Profile{DisplayName: displayName, DisplayImage: displayImage}, nil
}

func (c *HubClient) getUserData(ctx context.Context, fid int64, dataType int) (*string, error) {
	url := fmt.Sprintf("%s/v1/userDataByFid?fid=%d&user_data_type=%d", c.baseURL, fid, dataType)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHub, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHub, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: hub returned %d", ErrHub, resp.StatusCode)
	}

	var body userDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrHub, err)
	}

	if body.Data.UserDataBody.Value == "" {
		return nil, nil
	}
	value := body.Data.UserDataBody.Value
	return &value, nil
}
