package ports

import (
	"context"

	"github.com/caracol-studio/formgate/core"
)

// ContentStore is the content-management collaborator behind the
// pipeline. It only ever sees sanitized payloads.
type ContentStore interface {
	CreateMessage(ctx context.Context, fields map[string]any) (*core.CreatedMessage, error)
}
