package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces all records of this service inside a shared Redis
const redisKeyPrefix = "eduvision:"

// RedisStore implements Store on top of Redis. Records never expire.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisStore wraps an existing Redis client
func NewRedisStore(client *redis.Client, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, logger: logger}
}

func (s *RedisStore) buildKey(id VideoIdentity, kind ArtifactKind) string {
	return redisKeyPrefix + CacheKey(id, kind)
}

// Load decodes the record for (id, kind) into dst
func (s *RedisStore) Load(ctx context.Context, id VideoIdentity, kind ArtifactKind, dst any) bool {
	key := s.buildKey(id, kind)

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheOperationsTotal.WithLabelValues(CacheBackendRedis, string(kind), CacheOpLoad, CacheStatusMiss).Inc()
			return false
		}
		s.logger.Warn("redis get failed",
			"identity", id,
			"kind", kind,
			"error", err,
		)
		CacheOperationsTotal.WithLabelValues(CacheBackendRedis, string(kind), CacheOpLoad, CacheStatusError).Inc()
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("cache record corrupted, evicting",
			"identity", id,
			"kind", kind,
			"key", key,
			"error", err,
		)
		CacheOperationsTotal.WithLabelValues(CacheBackendRedis, string(kind), CacheOpLoad, CacheStatusCorrupt).Inc()
		if delErr := s.client.Del(ctx, key).Err(); delErr != nil {
			s.logger.Warn("evicting corrupted cache record failed", "key", key, "error", delErr)
		}
		return false
	}

	CacheOperationsTotal.WithLabelValues(CacheBackendRedis, string(kind), CacheOpLoad, CacheStatusHit).Inc()
	return true
}

// Save stores payload as the record for (id, kind) without expiry
func (s *RedisStore) Save(ctx context.Context, id VideoIdentity, kind ArtifactKind, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		CacheOperationsTotal.WithLabelValues(CacheBackendRedis, string(kind), CacheOpSave, CacheStatusError).Inc()
		return fmt.Errorf("marshaling %s record: %w", kind, err)
	}

	if err := s.client.Set(ctx, s.buildKey(id, kind), data, 0).Err(); err != nil {
		CacheOperationsTotal.WithLabelValues(CacheBackendRedis, string(kind), CacheOpSave, CacheStatusError).Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheOperationsTotal.WithLabelValues(CacheBackendRedis, string(kind), CacheOpSave, CacheStatusSuccess).Inc()
	return nil
}

// Delete removes the record for (id, kind)
func (s *RedisStore) Delete(ctx context.Context, id VideoIdentity, kind ArtifactKind) error {
	if err := s.client.Del(ctx, s.buildKey(id, kind)).Err(); err != nil {
		CacheOperationsTotal.WithLabelValues(CacheBackendRedis, string(kind), CacheOpDelete, CacheStatusError).Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	CacheOperationsTotal.WithLabelValues(CacheBackendRedis, string(kind), CacheOpDelete, CacheStatusSuccess).Inc()
	return nil
}

// Clear removes every record under the service prefix
func (s *RedisStore) Clear(ctx context.Context) (int, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	n, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del: %w", err)
	}
	return int(n), nil
}

// Stats counts records per kind and the total size of their values
func (s *RedisStore) Stats(ctx context.Context) (CacheStats, error) {
	stats := CacheStats{
		Backend:  CacheBackendRedis,
		Location: s.client.Options().Addr,
		Entries:  make(map[ArtifactKind]int),
	}

	keys, err := s.keys(ctx)
	if err != nil {
		return stats, err
	}

	for _, key := range keys {
		kind, ok := kindFromKey(strings.TrimPrefix(key, redisKeyPrefix))
		if !ok {
			continue
		}
		stats.Entries[kind]++
		size, err := s.client.StrLen(ctx, key).Result()
		if err != nil {
			return stats, fmt.Errorf("redis strlen: %w", err)
		}
		stats.TotalSize += size
	}
	return stats, nil
}

func (s *RedisStore) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}
