package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// NonceStore implements ports.NonceStore using Redis SET NX. The ledger uses
// it to accept each RPC bearer token id only once.
type NonceStore struct {
	client goredis.UniversalClient
	prefix string
}

func NewNonceStore(client goredis.UniversalClient) *NonceStore {
	return &NonceStore{
		client: client,
		prefix: keyspace + "nonce:",
	}
}

// Claim records id for ttl. Returns true if id was not seen before.
func (s *NonceStore) Claim(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	result, err := s.client.SetArgs(ctx, s.prefix+id, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			// already claimed
			return false, nil
		}
		return false, fmt.Errorf("redis nonce claim: %w", err)
	}
	return result == "OK", nil
}
