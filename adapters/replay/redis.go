package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the shared replay guard for multi-instance deployments.
// Entries expire individually instead of in bulk, and replay history
// survives gateway restarts within the window.
type Redis struct {
	client *redis.Client
	prefix string
	window time.Duration
}

func NewRedis(client *redis.Client, window time.Duration) *Redis {
	return &Redis{
		client: client,
		prefix: "formgate:replay:",
		window: window,
	}
}

// Remember relies on SET NX for the atomic insert-if-absent: exactly
// one of any number of racing callers sees true.
func (r *Redis) Remember(ctx context.Context, fingerprint string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+fingerprint, "1", r.window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record fingerprint: %w", err)
	}
	return ok, nil
}
