package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "revoked:"

// RevocationStore records logged-out token ids until the token would have
// expired anyway. Key format: revoked:<jti>
type RevocationStore struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewRevocationStore(client redis.Cmdable) *RevocationStore {
	return &RevocationStore{client: client, now: time.Now}
}

// Revoke marks tokenID as revoked until the given instant. Tokens that have
// already expired need no entry.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(s.now())
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	n, err := s.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func revokedKey(tokenID string) string {
	return revokedPrefix + tokenID
}
