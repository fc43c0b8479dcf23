package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const tierKeyPrefix = "tier:"

// TierCacheRepo holds a short-lived copy of a user's resolved tier so feed
// reads do not hit the identity provider on every request. Entries are
// dropped after an accepted upgrade and re-read on the next resolve.
type TierCacheRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewTierCacheRepo(client *goredis.Client, ttl time.Duration) *TierCacheRepo {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &TierCacheRepo{client: client, ttl: ttl}
}

func (r *TierCacheRepo) GetTier(ctx context.Context, userID string) (string, bool, error) {
	if r.client == nil {
		return "", false, nil
	}
	if strings.TrimSpace(userID) == "" {
		return "", false, fmt.Errorf("user id is required")
	}

	value, err := r.client.Get(ctx, tierKey(userID)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get cached tier: %w", err)
	}

	return value, true, nil
}

func (r *TierCacheRepo) SetTier(ctx context.Context, userID, tier string) error {
	if r.client == nil {
		return nil
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(tier) == "" {
		return fmt.Errorf("user id and tier are required")
	}

	if err := r.client.Set(ctx, tierKey(userID), tier, r.ttl).Err(); err != nil {
		return fmt.Errorf("set cached tier: %w", err)
	}
	return nil
}

func (r *TierCacheRepo) DeleteTier(ctx context.Context, userID string) error {
	if r.client == nil {
		return nil
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}

	if err := r.client.Del(ctx, tierKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete cached tier: %w", err)
	}
	return nil
}

func tierKey(userID string) string {
	return tierKeyPrefix + userID
}
