// Package recaptcha verifies tokens against Google's siteverify API.
// Unlike the other providers, upstream error codes are passed through
// to the client: Google is the trust boundary here, not this gateway.
package recaptcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/caracol-studio/formgate/core"
	"github.com/caracol-studio/formgate/ports"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is Google's verification endpoint prefix.
const DefaultBaseURL = "https://www.google.com/recaptcha/api"

const defaultTimeout = 10 * time.Second

// Recaptcha delegates verification to the Google siteverify API.
type Recaptcha struct {
	baseURL   string
	secretKey string
	minScore  decimal.Decimal // zero disables the v3 score check
	client    *http.Client
}

var _ ports.Verifier = (*Recaptcha)(nil)

// New creates the provider. minScore is the v3 threshold as a decimal
// string ("0.5"); empty disables score checking for v2 deployments.
func New(baseURL, secretKey, minScore string) (*Recaptcha, error) {
	r := &Recaptcha{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: defaultTimeout},
	}
	if r.baseURL == "" {
		r.baseURL = DefaultBaseURL
	}
	if minScore != "" {
		threshold, err := decimal.NewFromString(minScore)
		if err != nil {
			return nil, fmt.Errorf("recaptcha: invalid minimum score %q: %w", minScore, err)
		}
		r.minScore = threshold
	}
	return r, nil
}

func (r *Recaptcha) Name() string { return "recaptcha" }

func (r *Recaptcha) TokenField() string { return "recaptchaToken" }

type verifyResponse struct {
	Success    bool            `json:"success"`
	Score      json.RawMessage `json:"score,omitempty"`
	ErrorCodes []string        `json:"error-codes,omitempty"`
}

func (r *Recaptcha) Verify(ctx context.Context, token string) error {
	if r.secretKey == "" {
		return fmt.Errorf("recaptcha: secret key missing: %w", core.ErrNotConfigured)
	}

	params := url.Values{}
	params.Set("secret", r.secretKey)
	params.Set("response", token)

	verifyURL := r.baseURL + "/siteverify?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, verifyURL, nil)
	if err != nil {
		return fmt.Errorf("recaptcha: failed to build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("recaptcha: siteverify call failed: %w", core.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("recaptcha: siteverify answered garbage: %w", core.ErrUpstreamUnavailable)
	}

	if !result.Success {
		return &core.DetailedError{Err: core.ErrTokenInvalid, Details: result.ErrorCodes}
	}

	if !r.minScore.IsZero() && len(result.Score) > 0 {
		score, err := decimal.NewFromString(string(result.Score))
		if err != nil {
			return fmt.Errorf("recaptcha: unreadable score %q: %w", result.Score, core.ErrTokenInvalid)
		}
		if score.LessThan(r.minScore) {
			return &core.DetailedError{
				Err:     core.ErrTokenInvalid,
				Details: fmt.Sprintf("score %s below threshold %s", score, r.minScore),
			}
		}
	}

	return nil
}
