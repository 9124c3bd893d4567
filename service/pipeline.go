// Package service composes the verification pipeline that guards the
// public contact-form endpoint.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caracol-studio/formgate/core"
	"github.com/caracol-studio/formgate/internal/metrics"
	"github.com/caracol-studio/formgate/ports"
)

// Pipeline runs each submission through a fixed sequence of checks:
// honeypot, token extraction, provider verification, replay guard,
// sanitization, then forwarding to the content store. The first failing
// check rejects the request; there are no retries and no permissive
// fallbacks.
type Pipeline struct {
	verifier ports.Verifier
	replay   ports.ReplayGuard
	content  ports.ContentStore
	events   ports.EventPublisher
	log      *slog.Logger
}

// NewPipeline wires the pipeline. events may be nil when no broker is
// configured; everything else is required.
func NewPipeline(
	verifier ports.Verifier,
	replay ports.ReplayGuard,
	content ports.ContentStore,
	events ports.EventPublisher,
	log *slog.Logger,
) *Pipeline {
	return &Pipeline{
		verifier: verifier,
		replay:   replay,
		content:  content,
		events:   events,
		log:      log,
	}
}

// Verifier exposes the active provider, mainly so the transport can
// name the expected token field in error messages.
func (p *Pipeline) Verifier() ports.Verifier { return p.verifier }

// Submit processes one contact-form submission. On success the stored
// record is returned; on failure the error wraps one of the core
// sentinels and nothing reaches the content store.
func (p *Pipeline) Submit(ctx context.Context, sub *core.Submission) (*core.CreatedMessage, error) {
	provider := p.verifier.Name()

	if sub.Field(core.HoneypotField) != "" {
		p.log.Warn("honeypot field filled, likely a bot", "provider", provider)
		metrics.Verifications.WithLabelValues(provider, metrics.OutcomeHoneypot).Inc()
		p.publishAbuse(ctx, "honeypot", "honeypot field was filled")
		return nil, core.ErrHoneypotTripped
	}

	token := sub.Field(p.verifier.TokenField())
	if token == "" {
		metrics.Verifications.WithLabelValues(provider, metrics.OutcomeMissing).Inc()
		return nil, fmt.Errorf("%s: %w", provider, core.ErrTokenMissing)
	}

	if err := p.verifier.Verify(ctx, token); err != nil {
		metrics.Verifications.WithLabelValues(provider, outcomeFor(err)).Inc()
		switch {
		case errors.Is(err, core.ErrNotConfigured), errors.Is(err, core.ErrUpstreamUnavailable):
			p.log.Error("verification could not run", "provider", provider, "error", err)
		default:
			p.log.Warn("verification failed", "provider", provider, "error", err)
		}
		return nil, err
	}

	firstUse, err := p.replay.Remember(ctx, Fingerprint(token))
	if err != nil {
		// Default-deny: if the replay store cannot answer, reject.
		metrics.Verifications.WithLabelValues(provider, metrics.OutcomeConfigErr).Inc()
		p.log.Error("replay guard unavailable", "provider", provider, "error", err)
		return nil, fmt.Errorf("replay guard failed: %w", err)
	}
	if !firstUse {
		p.log.Warn("replayed token detected", "provider", provider)
		metrics.Verifications.WithLabelValues(provider, metrics.OutcomeReplay).Inc()
		p.publishAbuse(ctx, "replay", "token presented more than once")
		return nil, core.ErrReplayDetected
	}

	sub.Strip(p.verifier.TokenField())
	sub.Strip(core.HoneypotField)

	created, err := p.content.CreateMessage(ctx, sub.Data)
	if err != nil {
		p.log.Error("content store rejected message", "error", err)
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	metrics.Verifications.WithLabelValues(provider, metrics.OutcomeAccepted).Inc()

	// Notification delivery is best-effort: the message is already
	// stored, which is the part that matters.
	if p.events != nil {
		if err := p.events.PublishAccepted(ctx, created.ID, created.Attributes); err != nil {
			p.log.Warn("failed to publish accepted event", "error", err)
		}
	}

	return created, nil
}

func (p *Pipeline) publishAbuse(ctx context.Context, kind, detail string) {
	if p.events == nil {
		return
	}
	if err := p.events.PublishAbuse(ctx, kind, detail); err != nil {
		p.log.Warn("failed to publish abuse event", "kind", kind, "error", err)
	}
}

// Fingerprint is the replay identity of a token: a digest of the raw
// bytes, so the guard never stores the token itself.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, core.ErrNotConfigured):
		return metrics.OutcomeConfigErr
	case errors.Is(err, core.ErrUpstreamUnavailable):
		return metrics.OutcomeUpstreamErr
	default:
		return metrics.OutcomeInvalid
	}
}
