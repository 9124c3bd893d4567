// Package altcha implements the local proof-of-work provider. It issues
// HMAC-signed challenges in the ALTCHA widget wire format and verifies
// the solutions clients submit, entirely in-process.
package altcha

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caracol-studio/formgate/core"
	"github.com/caracol-studio/formgate/ports"
)

const (
	// Algorithm is the only hash the widget and this verifier speak.
	Algorithm = "SHA-256"

	// DefaultMaxNumber bounds the client's search space.
	DefaultMaxNumber = 100000

	saltBytes = 12
)

// Altcha issues and verifies ALTCHA proof-of-work payloads.
type Altcha struct {
	hmacKey   string
	maxNumber int64
	expiry    time.Duration
	now       func() time.Time
}

var _ ports.Verifier = (*Altcha)(nil)
var _ ports.ChallengeIssuer = (*Altcha)(nil)

// New creates the provider. An empty hmacKey is tolerated here so the
// transport can still answer with a configuration error; every
// operation on a keyless instance fails with core.ErrNotConfigured.
func New(hmacKey string) *Altcha {
	return &Altcha{
		hmacKey:   hmacKey,
		maxNumber: DefaultMaxNumber,
		expiry:    core.ChallengeExpiry,
		now:       time.Now,
	}
}

func (a *Altcha) Name() string { return "altcha" }

func (a *Altcha) TokenField() string { return "altcha" }

// Issue generates a fresh signed challenge. The expiry rides inside the
// salt as a query parameter, so the signature over the challenge digest
// covers it transitively.
func (a *Altcha) Issue() (*core.Challenge, error) {
	if a.hmacKey == "" {
		return nil, fmt.Errorf("altcha: %w", core.ErrNotConfigured)
	}

	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("altcha: failed to generate salt: %w", err)
	}

	expires := a.now().Add(a.expiry).Unix()
	salt := hex.EncodeToString(raw) + "?expires=" + strconv.FormatInt(expires, 10)

	n, err := rand.Int(rand.Reader, big.NewInt(a.maxNumber+1))
	if err != nil {
		return nil, fmt.Errorf("altcha: failed to pick secret number: %w", err)
	}
	number := n.Int64()

	digest := hashHex(salt + strconv.FormatInt(number, 10))

	return &core.Challenge{
		Algorithm: Algorithm,
		Challenge: digest,
		MaxNumber: a.maxNumber,
		Salt:      salt,
		Signature: a.signHex(digest),
	}, nil
}

// Verify checks a base64-encoded solution payload: signature
// authenticity, embedded expiry, and that the claimed number actually
// reproduces the challenge digest. Malformed input is a verification
// failure, never a fault.
func (a *Altcha) Verify(_ context.Context, token string) error {
	if a.hmacKey == "" {
		return fmt.Errorf("altcha: %w", core.ErrNotConfigured)
	}

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return fmt.Errorf("altcha: payload is not base64: %w", core.ErrTokenInvalid)
	}

	var sol core.Solution
	if err := json.Unmarshal(raw, &sol); err != nil {
		return fmt.Errorf("altcha: payload is not a solution: %w", core.ErrTokenInvalid)
	}

	if sol.Algorithm != Algorithm {
		return fmt.Errorf("altcha: unsupported algorithm %q: %w", sol.Algorithm, core.ErrTokenInvalid)
	}

	expires, err := saltExpiry(sol.Salt)
	if err != nil {
		return fmt.Errorf("altcha: %w: %w", err, core.ErrTokenInvalid)
	}
	if a.now().After(expires) {
		return fmt.Errorf("altcha: challenge expired: %w", core.ErrTokenInvalid)
	}

	if sol.Number < 0 || sol.Number > a.maxNumber {
		return fmt.Errorf("altcha: number out of range: %w", core.ErrTokenInvalid)
	}

	expected := hashHex(sol.Salt + strconv.FormatInt(sol.Number, 10))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(sol.Challenge)) != 1 {
		return fmt.Errorf("altcha: puzzle not satisfied: %w", core.ErrTokenInvalid)
	}

	if subtle.ConstantTimeCompare([]byte(a.signHex(sol.Challenge)), []byte(sol.Signature)) != 1 {
		return fmt.Errorf("altcha: signature mismatch: %w", core.ErrTokenInvalid)
	}

	return nil
}

func (a *Altcha) signHex(digest string) string {
	mac := hmac.New(sha256.New, []byte(a.hmacKey))
	mac.Write([]byte(digest))
	return hex.EncodeToString(mac.Sum(nil))
}

func hashHex(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// saltExpiry extracts the expires query parameter the issuer appended
// to the salt. A salt without one never came from this issuer.
func saltExpiry(salt string) (time.Time, error) {
	_, query, ok := strings.Cut(salt, "?")
	if !ok {
		return time.Time{}, fmt.Errorf("salt has no expiry")
	}
	params, err := url.ParseQuery(query)
	if err != nil {
		return time.Time{}, fmt.Errorf("salt query is malformed")
	}
	unix, err := strconv.ParseInt(params.Get("expires"), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("salt expiry is not a timestamp")
	}
	return time.Unix(unix, 0), nil
}
