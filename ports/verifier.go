package ports

import (
	"context"

	"github.com/caracol-studio/formgate/core"
)

// Verifier validates a client-submitted verification token. Exactly one
// implementation is active at a time, selected by configuration.
type Verifier interface {
	// Name identifies the provider in logs and error messages.
	Name() string

	// TokenField is the submission key the provider's widget writes its
	// token into.
	TokenField() string

	// Verify checks the token. It returns nil on success and one of the
	// core sentinel errors (possibly wrapped) on failure. Implementations
	// must treat malformed input as core.ErrTokenInvalid, never panic.
	Verify(ctx context.Context, token string) error
}

// ChallengeIssuer produces signed proof-of-work challenges for verifiers
// of the local PoW family. Remote providers issue their own challenges
// and do not implement this.
type ChallengeIssuer interface {
	Issue() (*core.Challenge, error)
}
