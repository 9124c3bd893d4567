// Package cap verifies tokens against a locally-operated Cap.js
// standalone server. The server burns each redeem token on use, so
// single-use enforcement happens on its side as well as ours.
package cap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caracol-studio/formgate/core"
	"github.com/caracol-studio/formgate/ports"
)

const defaultTimeout = 10 * time.Second

// Cap delegates verification to a Cap standalone server.
type Cap struct {
	baseURL   string
	siteKey   string
	secretKey string
	client    *http.Client
}

var _ ports.Verifier = (*Cap)(nil)

func New(baseURL, siteKey, secretKey string) *Cap {
	return &Cap{
		baseURL:   strings.TrimRight(baseURL, "/"),
		siteKey:   siteKey,
		secretKey: secretKey,
		client:    &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Cap) Name() string { return "cap" }

func (c *Cap) TokenField() string { return "capToken" }

type verifyRequest struct {
	Secret   string `json:"secret"`
	Response string `json:"response"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Verify posts the token to the server's siteverify endpoint. Only an
// explicit success counts; transport-level trouble is an availability
// error, a deliberate rejection by the server is an invalid token.
func (c *Cap) Verify(ctx context.Context, token string) error {
	if c.siteKey == "" || c.secretKey == "" {
		return fmt.Errorf("cap: site key or secret key missing: %w", core.ErrNotConfigured)
	}

	body, err := json.Marshal(verifyRequest{Secret: c.secretKey, Response: token})
	if err != nil {
		return fmt.Errorf("cap: failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/siteverify", c.baseURL, c.siteKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("cap: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("cap: siteverify call failed: %w", core.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("cap: siteverify answered %d: %w", resp.StatusCode, core.ErrUpstreamUnavailable)
	}

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("cap: siteverify answered garbage: %w", core.ErrUpstreamUnavailable)
	}

	if !result.Success {
		if result.Error != "" {
			return fmt.Errorf("cap: %s: %w", result.Error, core.ErrTokenInvalid)
		}
		return fmt.Errorf("cap: server rejected token: %w", core.ErrTokenInvalid)
	}

	return nil
}
