// Package cache holds the redis-backed leaderboard. The ratings table stays
// the source of truth; redis only serves the hot top-N read path.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sportbuddy/sportbuddy-api/internal/domain"
)

const leaderboardKeyPrefix = "leaderboard:"

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		MaxRetries:  3,
		PoolTimeout: 30 * time.Second,
	})
}

type LeaderboardCache struct {
	client *redis.Client
}

func NewLeaderboardCache(client *redis.Client) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
	}
}

// UpdateScore upserts one member of the per-sport sorted set. ZADD overwrites
// the previous score, so repeated writes after each match are safe.
func (c *LeaderboardCache) UpdateScore(ctx context.Context, sport string, userID uint, score int) error {
	return c.client.ZAdd(ctx, leaderboardKeyPrefix+sport, redis.Z{
		Score:  float64(score),
		Member: strconv.FormatUint(uint64(userID), 10),
	}).Err()
}

func (c *LeaderboardCache) Top(ctx context.Context, sport string, limit int) ([]domain.LeaderboardEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, leaderboardKeyPrefix+sport, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(results))
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}

		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			continue
		}

		entries = append(entries, domain.LeaderboardEntry{
			UserID: uint(id),
			Rating: int(z.Score),
		})
	}

	return entries, nil
}
