package ports

import "context"

// ReplayGuard records consumed token fingerprints so a verified token
// cannot be accepted twice.
type ReplayGuard interface {
	// Remember inserts the fingerprint if it is absent and reports
	// whether this was its first use. The check and the insert are a
	// single atomic operation: two concurrent calls with the same
	// fingerprint must yield exactly one true.
	Remember(ctx context.Context, fingerprint string) (firstUse bool, err error)
}
