package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache keeps recent analyses with a TTL, plus a per-patient index.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

func analysisKey(id string) string {
	return "analysis:" + id
}

func patientKey(patient string) string {
	return "patient:" + patient + ":analyses"
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Save(ctx context.Context, r *Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, analysisKey(r.ID), data, c.ttl)
	if r.PatientCode != "" {
		pipe.ZAdd(ctx, patientKey(r.PatientCode), redis.Z{
			Score:  float64(r.CreatedAt.UnixMilli()),
			Member: r.ID,
		})
		if c.ttl > 0 {
			pipe.Expire(ctx, patientKey(r.PatientCode), c.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save analysis to Redis: %w", err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, id string) (*Record, error) {
	data, err := c.client.Get(ctx, analysisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis from Redis: %w", err)
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}
	return &r, nil
}

// ListByPatient returns the cached analyses of a patient, newest first.
// Index entries whose analysis already expired are skipped.
func (c *RedisCache) ListByPatient(ctx context.Context, patient string) ([]*Record, error) {
	ids, err := c.client.ZRevRange(ctx, patientKey(patient), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read patient index: %w", err)
	}

	var out []*Record
	for _, id := range ids {
		r, err := c.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
