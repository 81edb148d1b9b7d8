// internal/auth/limiter.go
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptLimiter counts secret checks per subject. Every attempt is counted
// before the secret is compared, so concurrent guesses cannot all slip under
// the limit.
type AttemptLimiter interface {
	// Acquire counts one attempt and reports whether it is within the limit.
	Acquire(ctx context.Context, subject string) (bool, error)
	// Reset forgets attempts after a successful check.
	Reset(ctx context.Context, subject string) error
}

var attemptScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisAttemptLimiter keeps attempt counters in Redis. The window is fixed:
// it starts at the first attempt and is not extended by later ones.
type RedisAttemptLimiter struct {
	client      redis.UniversalClient
	prefix      string
	maxAttempts int
	window      time.Duration
}

// NewRedisAttemptLimiter creates a limiter that refuses a subject once it has
// used maxAttempts attempts within window.
func NewRedisAttemptLimiter(client redis.UniversalClient, prefix string, maxAttempts int, window time.Duration) *RedisAttemptLimiter {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "ledger:pin_attempts"
	}
	if window < time.Second {
		window = time.Second
	}
	return &RedisAttemptLimiter{client: client, prefix: prefix, maxAttempts: maxAttempts, window: window}
}

func (l *RedisAttemptLimiter) key(subject string) string {
	return fmt.Sprintf("%s:%s", l.prefix, subject)
}

// Acquire implements AttemptLimiter.
func (l *RedisAttemptLimiter) Acquire(ctx context.Context, subject string) (bool, error) {
	count, err := attemptScript.Run(ctx, l.client, []string{l.key(subject)}, l.window.Milliseconds()).Int()
	if err != nil {
		return true, err
	}
	return count <= l.maxAttempts, nil
}

// Reset implements AttemptLimiter.
func (l *RedisAttemptLimiter) Reset(ctx context.Context, subject string) error {
	return l.client.Del(ctx, l.key(subject)).Err()
}

// NoopAttemptLimiter never locks. Used when Redis is not configured.
type NoopAttemptLimiter struct{}

func (NoopAttemptLimiter) Acquire(context.Context, string) (bool, error) { return true, nil }
func (NoopAttemptLimiter) Reset(context.Context, string) error          { return nil }
