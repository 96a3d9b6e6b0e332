package iocache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
	"github.com/redis/go-redis/v9"
)

// Redis operation limits.
const (
	redisDialTimeout = 3 * time.Second
	redisOpTimeout   = 2 * time.Second
	redisScanBatch   = 500

	// redisEntryTTL lets Redis evict ratings long after readers stop trusting them.
	redisEntryTTL = 180 * 24 * time.Hour
)

// Hash fields of a cache entry.
const (
	fieldValue   = "value"
	fieldVersion = "version"
	fieldTime    = "ts"
)

// RedisCacheStore keeps cache entries as Redis hashes under a key prefix.
type RedisCacheStore struct {
	client *redis.Client
	prefix string
}

var _ contract.CacheStore = &RedisCacheStore{} // Compile-time check

// NewRedisCacheStore connects to the Redis URL and fails fast when it is unreachable.
func NewRedisCacheStore(redisURL, prefix string) (*RedisCacheStore, error) {
	client, err := newRedisClient(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCacheStore{client: client, prefix: prefix + ":"}, nil
}

// newRedisClient parses a redis:// URL and pings the server.
func newRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (rs *RedisCacheStore) key(k string) string { return rs.prefix + k }

// Get implements the CacheStore interface.
func (rs *RedisCacheStore) Get(key string) ([]byte, int, int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	fields, err := rs.client.HGetAll(ctx, rs.key(key)).Result()
	if err != nil {
		return nil, 0, 0, err
	}
	if len(fields) == 0 {
		return nil, 0, 0, redis.Nil
	}
	version, err := strconv.Atoi(fields[fieldVersion])
	if err != nil {
		return nil, 0, 0, fmt.Errorf("invalid cache version for %s: %w", key, err)
	}
	ts, err := strconv.ParseInt(fields[fieldTime], 10, 64)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("invalid cache timestamp for %s: %w", key, err)
	}
	return []byte(fields[fieldValue]), version, ts, nil
}

// Set implements the CacheStore interface.
func (rs *RedisCacheStore) Set(key string, value []byte, version int, timestamp int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	k := rs.key(key)
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, fieldValue, value, fieldVersion, version, fieldTime, timestamp)
		pipe.Expire(ctx, k, redisEntryTTL)
		return nil
	})
	return err
}

// GetStatus implements the CacheStore interface.
func (rs *RedisCacheStore) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{Backend: string(schema.RedisBackend), Connected: true}

	ctx, cancel := context.WithTimeout(context.Background(), 10*redisOpTimeout)
	defer cancel()

	var oldest, latest int64
	iter := rs.client.Scan(ctx, 0, rs.prefix+"*", redisScanBatch).Iterator()
	for iter.Next(ctx) {
		status.TotalEntries++
		ts, err := rs.client.HGet(ctx, iter.Val(), fieldTime).Int64()
		if err != nil {
			continue
		}
		if oldest == 0 || ts < oldest {
			oldest = ts
		}
		latest = max(latest, ts)
		if usage, err := rs.client.MemoryUsage(ctx, iter.Val()).Result(); err == nil {
			status.TableSizeBytes += usage
		}
	}
	if err := iter.Err(); err != nil {
		return status, fmt.Errorf("failed to scan cache entries: %w", err)
	}
	if status.TotalEntries > 0 {
		status.OldestEntryTime = time.Unix(oldest, 0)
		status.LastEntryTime = time.Unix(latest, 0)
	}
	return status, nil
}

// Close implements the CacheStore interface.
func (rs *RedisCacheStore) Close() error {
	return rs.client.Close()
}

// clearRedisPrefix deletes every key under prefix.
func clearRedisPrefix(redisURL, prefix string) error {
	client, err := newRedisClient(redisURL)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	iter := client.Scan(ctx, 0, prefix+":*", redisScanBatch).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == redisScanBatch {
			if err := client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if len(batch) > 0 {
		return client.Del(ctx, batch...).Err()
	}
	return nil
}
