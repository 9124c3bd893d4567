package core

import "time"

// Challenge is a server-issued proof-of-work puzzle in the ALTCHA wire
// format. It is stateless: authenticity and expiry are reconstructable
// from the signed fields alone, so the server never persists one.
type Challenge struct {
	Algorithm string `json:"algorithm"` // hash algorithm, fixed to SHA-256
	Challenge string `json:"challenge"` // hex digest of salt + secret number
	MaxNumber int64  `json:"maxnumber"` // upper bound of the search space
	Salt      string `json:"salt"`      // random hex salt, carries ?expires=<unix>
	Signature string `json:"signature"` // hex HMAC of the challenge digest
}

// Solution is a client-submitted ALTCHA payload: the original signed
// challenge fields plus the number the client claims solves the puzzle.
type Solution struct {
	Algorithm string `json:"algorithm"`
	Challenge string `json:"challenge"`
	Number    int64  `json:"number"`
	Salt      string `json:"salt"`
	Signature string `json:"signature"`
}

// ChallengeExpiry is how long an issued challenge stays solvable. The
// replay window is cleared at the same cadence.
const ChallengeExpiry = 5 * time.Minute
