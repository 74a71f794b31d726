// Package cache keeps recently computed leaderboards in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Romarate18/StockaDoodle-IMS/models"
)

const (
	leaderboardKeyPrefix = "stockadoodle:leaderboard:"
	scanBatch            = 100
)

// Leaderboard caches leaderboard pages keyed by sort order and limit.
// A Leaderboard without a client is a no-op, every Get misses.
// Redis failures are logged and read as misses.
type Leaderboard struct {
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

func NewLeaderboard(client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *Leaderboard {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Leaderboard{client: client, ttl: ttl, log: log}
}

// Connect dials addr and verifies it answers PING. An empty addr disables
// caching and returns a nil client.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect redis at %s: %w", addr, err)
	}
	return client, nil
}

func key(sortBy string, limit int) string {
	return fmt.Sprintf("%s%s:%d", leaderboardKeyPrefix, sortBy, limit)
}

func (l *Leaderboard) Get(ctx context.Context, sortBy string, limit int) ([]models.RetailerMetrics, bool) {
	if l.client == nil {
		return nil, false
	}

	raw, err := l.client.Get(ctx, key(sortBy, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		l.log.WithError(err).Warn("leaderboard cache read failed")
		return nil, false
	}

	var entries []models.RetailerMetrics
	if err := json.Unmarshal(raw, &entries); err != nil {
		l.log.WithError(err).Warn("discarding corrupt leaderboard cache entry")
		return nil, false
	}
	return entries, true
}

func (l *Leaderboard) Set(ctx context.Context, sortBy string, limit int, entries []models.RetailerMetrics) {
	if l.client == nil {
		return
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		l.log.WithError(err).Warn("leaderboard cache encode failed")
		return
	}
	if err := l.client.Set(ctx, key(sortBy, limit), raw, l.ttl).Err(); err != nil {
		l.log.WithError(err).Warn("leaderboard cache write failed")
	}
}

// Invalidate drops every cached page.
func (l *Leaderboard) Invalidate(ctx context.Context) {
	if l.client == nil {
		return
	}

	iter := l.client.Scan(ctx, 0, leaderboardKeyPrefix+"*", scanBatch).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		l.log.WithError(err).Warn("leaderboard cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := l.client.Del(ctx, keys...).Err(); err != nil {
		l.log.WithError(err).Warn("leaderboard cache invalidate failed")
	}
}
