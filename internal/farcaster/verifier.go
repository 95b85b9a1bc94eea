package farcaster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"farmap/api/internal/config"
)

var ErrVerificationFailed = errors.New("verification failed")

// Credential is a signed Sign-In-With-Farcaster assertion as received
// from the client.
type Credential struct {
	Nonce     string
	Message   string
	Signature string
	Domain    string
}

// Verifier checks a SIWF credential and returns the asserted fid. The
// fid is opaque to the rest of the system: it only binds the session
// to that external identity.
type Verifier interface {
	Verify(ctx context.Context, credential Credential) (int64, error)
}

// HTTPVerifier delegates signature verification to an external
// verification service.
type HTTPVerifier struct {
	url  string
	http *http.Client
}

func NewHTTPVerifier(cfg config.FarcasterConfig) *HTTPVerifier {
	return &HTTPVerifier{
		url:  cfg.VerifierURL,
		http: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

type verifyRequest struct {
	Domain    string `json:"domain"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
	Nonce     string `json:"nonce"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Fid     int64  `json:"fid"`
	Error   string `json:"error"`
}

func (v *HTTPVerifier) Verify(ctx context.Context, credential Credential) (int64, error) {
	payload, err := json.Marshal(verifyRequest{
		Domain:    credential.Domain,
		Message:   credential.Message,
		Signature: credential.Signature,
		Nonce:     credential.Nonce,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call verifier: %w", err)
	}
	defer resp.Body.Close()

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode verifier response: %w", err)
	}

	if resp.StatusCode >= 400 || !body.Success {
		reason := body.Error
		if reason == "" {
			reason = fmt.Sprintf("verifier returned %d", resp.StatusCode)
		}
		return 0, fmt.Errorf("%w: %s", ErrVerificationFailed, reason)
	}

	return body.Fid, nil
}
