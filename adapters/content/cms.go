package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/caracol-studio/formgate/core"
	"github.com/caracol-studio/formgate/ports"
)

const (
	serviceAudience = "cms:service"
	serviceTokenTTL = time.Minute
	requestTimeout  = 10 * time.Second
)

// CMS forwards sanitized submissions to the headless CMS messages
// collection. Each request carries a short-lived HS256 service token so
// a captured credential ages out in a minute.
type CMS struct {
	baseURL   string
	apiSecret []byte
	client    *http.Client
	now       func() time.Time
}

var _ ports.ContentStore = (*CMS)(nil)

func NewCMS(baseURL, apiSecret string) *CMS {
	return &CMS{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiSecret: []byte(apiSecret),
		client:    &http.Client{Timeout: requestTimeout},
		now:       time.Now,
	}
}

type createRequest struct {
	Data map[string]any `json:"data"`
}

type createResponse struct {
	Data struct {
		ID         json.Number    `json:"id"`
		Attributes map[string]any `json:"attributes"`
	} `json:"data"`
}

func (c *CMS) CreateMessage(ctx context.Context, fields map[string]any) (*core.CreatedMessage, error) {
	body, err := json.Marshal(createRequest{Data: fields})
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	token, err := c.serviceToken()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cms create failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("cms answered %d", resp.StatusCode)
	}

	var result createResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode cms response: %w", err)
	}

	return &core.CreatedMessage{
		ID:         result.Data.ID.String(),
		Attributes: result.Data.Attributes,
	}, nil
}

func (c *CMS) serviceToken() (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   "formgate",
		Audience:  jwt.ClaimStrings{serviceAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(serviceTokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.apiSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign service token: %w", err)
	}

	return signed, nil
}
