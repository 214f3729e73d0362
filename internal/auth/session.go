package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pizzanet/pizza-service/internal/storage"
	"github.com/redis/go-redis/v9"
)

// SessionStore records live sessions keyed by token jti. A session exists
// from issue until revocation; revocation is atomic, so once Revoke returns
// every later UserID call on the same jti reports the session gone.
type SessionStore interface {
	Add(ctx context.Context, jti string, userID int64) error
	// UserID resolves a live session. storage.ErrNotFound means the
	// session was never issued or has been revoked.
	UserID(ctx context.Context, jti string) (int64, error)
	// Revoke removes exactly one session. storage.ErrNotFound means the
	// session was already invalid.
	Revoke(ctx context.Context, jti string) error
}

// Ensure RedisSessions satisfies SessionStore at compile time.
var _ SessionStore = (*RedisSessions)(nil)

// RedisSessions keeps the session allowlist in Redis. Sessions have no
// TTL; logout is the only way a token dies.
type RedisSessions struct {
	client *redis.Client
}

// NewRedisSessions connects a session store to Redis.
func NewRedisSessions(addr, password string, db int) *RedisSessions {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &RedisSessions{client: client}
}

// NewRedisSessionsFromClient wraps an existing client; tests hand in a
// miniredis-backed one.
func NewRedisSessionsFromClient(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client}
}

// Ping tests the Redis connection.
func (r *RedisSessions) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisSessions) Close() error {
	return r.client.Close()
}

func sessionKey(jti string) string {
	return "session:" + jti
}

// Add registers a freshly issued session.
func (r *RedisSessions) Add(ctx context.Context, jti string, userID int64) error {
	return r.client.Set(ctx, sessionKey(jti), userID, 0).Err()
}

// UserID resolves the user bound to a live session.
func (r *RedisSessions) UserID(ctx context.Context, jti string) (int64, error) {
	val, err := r.client.Get(ctx, sessionKey(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, storage.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed session record for %s: %w", jti, err)
	}
	return userID, nil
}

// Revoke deletes the session. DEL is atomic, so a concurrent UserID either
// sees the session or its absence, never a partial state.
func (r *RedisSessions) Revoke(ctx context.Context, jti string) error {
	removed, err := r.client.Del(ctx, sessionKey(jti)).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return storage.ErrNotFound
	}
	return nil
}
