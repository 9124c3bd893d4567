package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caracol-studio/formgate/core"
	"github.com/caracol-studio/formgate/internal/metrics"
	"github.com/caracol-studio/formgate/ports"
	"github.com/caracol-studio/formgate/service"
)

// Handlers contains the HTTP handlers for the gateway endpoints.
type Handlers struct {
	pipeline *service.Pipeline
	issuer   ports.ChallengeIssuer
	log      *slog.Logger
}

func NewHandlers(pipeline *service.Pipeline, issuer ports.ChallengeIssuer, log *slog.Logger) *Handlers {
	return &Handlers{
		pipeline: pipeline,
		issuer:   issuer,
		log:      log,
	}
}

// Client-facing error messages. Honeypot trips reuse the generic
// verification message on purpose: the response must not reveal that a
// honeypot exists.
const (
	msgVerificationFailed = "Verification failed"
	msgChallengeUsed      = "Challenge already used"
	msgInternalError      = "Internal server error"
)

// tokenMissingMessage names the field the active provider expected.
func tokenMissingMessage(v ports.Verifier) string {
	switch v.Name() {
	case "altcha":
		return "ALTCHA token is missing"
	case "cap":
		return "Cap token is missing"
	case "recaptcha":
		return "Recaptcha token is missing"
	default:
		return "Verification token is missing"
	}
}

type errorBody struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func fail(c *gin.Context, status int, message string, details any) {
	c.JSON(status, gin.H{"error": errorBody{Message: message, Details: details}})
}

// GetChallenge hands out a fresh proof-of-work challenge. Public and
// unauthenticated: the challenge carries no secret.
func (h *Handlers) GetChallenge(c *gin.Context) {
	challenge, err := h.issuer.Issue()
	if err != nil {
		if errors.Is(err, core.ErrNotConfigured) {
			h.log.Error("challenge issuer is not configured", "error", err)
		} else {
			h.log.Error("failed to issue challenge", "error", err)
		}
		fail(c, http.StatusInternalServerError, msgInternalError, nil)
		return
	}

	metrics.ChallengesIssued.Inc()
	c.JSON(http.StatusOK, challenge)
}

// CreateMessage runs a contact-form submission through the pipeline
// and, on success, returns the stored record.
func (h *Handlers) CreateMessage(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	sub := submissionFrom(body)

	created, err := h.pipeline.Submit(c.Request.Context(), sub)
	if err != nil {
		h.reject(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": created})
}

// reject maps pipeline errors onto the status-code contract: 400 for
// anything the client did wrong, 500 for configuration and upstream
// availability problems. Unknown errors are 500 without detail.
func (h *Handlers) reject(c *gin.Context, err error) {
	var detailed *core.DetailedError
	var details any
	if errors.As(err, &detailed) {
		details = detailed.Details
	}

	switch {
	case errors.Is(err, core.ErrHoneypotTripped):
		// Same body as an ordinary invalid token.
		fail(c, http.StatusBadRequest, msgVerificationFailed, nil)
	case errors.Is(err, core.ErrTokenMissing):
		fail(c, http.StatusBadRequest, tokenMissingMessage(h.pipeline.Verifier()), nil)
	case errors.Is(err, core.ErrReplayDetected):
		fail(c, http.StatusBadRequest, msgChallengeUsed, nil)
	case errors.Is(err, core.ErrTokenInvalid):
		fail(c, http.StatusBadRequest, msgVerificationFailed, details)
	case errors.Is(err, core.ErrNotConfigured), errors.Is(err, core.ErrUpstreamUnavailable):
		fail(c, http.StatusInternalServerError, msgInternalError, nil)
	default:
		fail(c, http.StatusInternalServerError, msgInternalError, nil)
	}
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// submissionFrom splits a raw JSON body into business fields and
// top-level extras, tolerating an absent or malformed data envelope.
func submissionFrom(body map[string]any) *core.Submission {
	data, _ := body["data"].(map[string]any)
	if data == nil {
		data = map[string]any{}
	}

	extra := make(map[string]any, len(body))
	for k, v := range body {
		if k != "data" {
			extra[k] = v
		}
	}

	return &core.Submission{Data: data, Extra: extra}
}
