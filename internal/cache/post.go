// Package cache keeps rendered post payloads in redis so the read side
// can skip the database for hot articles. Entries are invalidated by the
// ingestion pipeline after a successful update.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/emrgen/blog/internal/compress"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const postTTL = time.Hour

func postKey(synonym string) string {
	return "post:" + synonym
}

type PostCache struct {
	client  *redis.Client
	encoder compress.Compress
}

func NewPostCache(addr string) *PostCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // No password set
		DB:       0,  // Use default DB
	})

	return &PostCache{client: client, encoder: compress.NewGZip()}
}

// GetPost loads the cached payload for a synonym into v. It reports
// false on a miss.
func (c *PostCache) GetPost(ctx context.Context, synonym string, v interface{}) (bool, error) {
	res := c.client.Get(ctx, postKey(synonym))
	if res.Err() != nil {
		if errors.Is(res.Err(), redis.Nil) {
			return false, nil
		}
		return false, res.Err()
	}

	buf, err := res.Bytes()
	if err != nil {
		return false, err
	}
	buf, err = c.encoder.Decode(buf)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(buf, v); err != nil {
		return false, err
	}
	return true, nil
}

// SetPost stores the payload for a synonym.
func (c *PostCache) SetPost(ctx context.Context, synonym string, v interface{}) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf, err = c.encoder.Encode(buf)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, postKey(synonym), buf, postTTL).Err()
}

// Invalidate drops the cached payload for a synonym. Failures are logged
// only; the cache must never fail an ingestion that already committed.
func (c *PostCache) Invalidate(ctx context.Context, synonym string) {
	if err := c.client.Del(ctx, postKey(synonym)).Err(); err != nil {
		logrus.Warnf("failed to invalidate cached post %q: %v", synonym, err)
	}
}
