package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker denylists token IDs (jti) in redis until their natural expiry.
// Logout is the only writer; verification middleware is the only reader.
type Revoker struct {
	rdb *redis.Client
}

func NewRevoker(rdb *redis.Client) *Revoker { return &Revoker{rdb: rdb} }

const revokedKeyPrefix = "auth:revoked:"

var ErrRevoked = errors.New("auth: token revoked")

// Revoke denylists jti for ttl. A non-positive ttl means the token has
// already expired and there is nothing to do.
func (r *Revoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if r == nil || r.rdb == nil {
		return errors.New("auth: revoker not configured")
	}
	if jti == "" {
		return errors.New("auth: jti required")
	}
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether jti has been denylisted.
func (r *Revoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if r == nil || r.rdb == nil {
		return false, nil
	}
	n, err := r.rdb.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
