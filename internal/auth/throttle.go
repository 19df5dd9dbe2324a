package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginThrottle counts failed login attempts per username+IP in Redis and
// blocks further attempts once the limit is reached inside the window.
type LoginThrottle struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewLoginThrottle constructs a throttle. Limit and window fall back to
// 5 attempts per 15 minutes when unset.
func NewLoginThrottle(client *redis.Client, limit int, window time.Duration) *LoginThrottle {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginThrottle{client: client, limit: int64(limit), window: window}
}

// Allow reports whether another attempt is permitted.
func (t *LoginThrottle) Allow(ctx context.Context, username, ip string) (bool, error) {
	count, err := t.client.Get(ctx, t.key(username, ip)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return true, nil
		}
		return true, err
	}
	return count < t.limit, nil
}

// RecordFailure increments the failure counter and refreshes the window.
func (t *LoginThrottle) RecordFailure(ctx context.Context, username, ip string) error {
	key := t.key(username, ip)
	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.window)
	_, err := pipe.Exec(ctx)
	return err
}

// Reset clears the failure counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, username, ip string) error {
	err := t.client.Del(ctx, t.key(username, ip)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func (t *LoginThrottle) key(username, ip string) string {
	return "login_fail:" + username + ":" + ip
}
