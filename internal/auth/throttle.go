package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultMaxAttempts is the number of failures allowed per window.
	DefaultMaxAttempts = 5
	// DefaultLoginWindow is how long failures are remembered.
	DefaultLoginWindow = 15 * time.Minute

	throttleKeyPrefix = "login:fail:"
)

// Throttle limits failed logins per normalized email. Redis failures are logged and
// treated as "not throttled".
type Throttle struct {
	client      redis.UniversalClient
	maxAttempts int64
	window      time.Duration
	logger      *slog.Logger
}

// NewThrottle builds a Throttle. A nil client disables throttling.
func NewThrottle(client redis.UniversalClient, maxAttempts int, window time.Duration, logger *slog.Logger) *Throttle {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultLoginWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Throttle{client: client, maxAttempts: int64(maxAttempts), window: window, logger: logger}
}

func throttleKey(email string) string {
	return throttleKeyPrefix + email
}

// Blocked reports whether email has exhausted its attempts in the current window.
func (t *Throttle) Blocked(ctx context.Context, email string) bool {
	if t == nil || t.client == nil {
		return false
	}
	count, err := t.client.Get(ctx, throttleKey(email)).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			t.logger.Warn("login throttle read", slog.Any("error", err))
		}
		return false
	}
	return count >= t.maxAttempts
}

// Fail records one failed attempt. The window starts on the first failure; a key left
// without a TTL is given one again on the next failure.
func (t *Throttle) Fail(ctx context.Context, email string) {
	if t == nil || t.client == nil {
		return
	}
	key := throttleKey(email)
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		t.logger.Warn("login throttle record", slog.Any("error", err))
		return
	}
	if ttl.Val() < 0 {
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			t.logger.Warn("login throttle expire", slog.Any("error", err))
		}
	}
	if incr.Val() == t.maxAttempts {
		t.logger.Warn("login throttle engaged", slog.String("email", email), slog.Duration("window", t.window))
	}
}

// Reset clears the failure counter after a successful login.
func (t *Throttle) Reset(ctx context.Context, email string) {
	if t == nil || t.client == nil {
		return
	}
	if err := t.client.Del(ctx, throttleKey(email)).Err(); err != nil {
		t.logger.Warn("login throttle reset", slog.Any("error", err))
	}
}
