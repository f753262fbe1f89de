package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"courtbook/internal/booking"
	"courtbook/internal/metrics"
	"courtbook/internal/models"
)

const (
	courtKeyPrefix = "courtbook:court:"
	courtListKey   = "courtbook:courts"
)

// CachedStore serves the court catalogue from Redis and delegates
// everything else to the wrapped store. Reservations are never cached so
// conflict checks always see storage.
type CachedStore struct {
	booking.Store
	redis  *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger

	isDown        atomic.Bool
	mu            sync.Mutex
	lastCheck     time.Time
	retryInterval time.Duration
}

// NewCachedStore wraps store. A nil client disables caching.
func NewCachedStore(store booking.Store, client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *CachedStore {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &CachedStore{
		Store:         store,
		redis:         client,
		ttl:           ttl,
		logger:        logger,
		retryInterval: time.Minute,
	}
}

func (s *CachedStore) FindResourceByID(ctx context.Context, id string) (*models.Court, error) {
	key := courtKeyPrefix + id

	var court models.Court
	if s.readCache(ctx, key, &court) {
		return &court, nil
	}

	c, err := s.Store.FindResourceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, c)
	return c, nil
}

func (s *CachedStore) ListResourceIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if s.readCache(ctx, courtListKey, &ids) {
		return ids, nil
	}

	ids, err := s.Store.ListResourceIDs(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, courtListKey, ids)
	return ids, nil
}

// Invalidate drops cached court entries, typically after seeding.
func (s *CachedStore) Invalidate(ctx context.Context, courtIDs ...string) error {
	if !s.enabled() {
		return nil
	}
	keys := []string{courtListKey}
	for _, id := range courtIDs {
		keys = append(keys, courtKeyPrefix+id)
	}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		s.markDown(err)
		return err
	}
	return nil
}

func (s *CachedStore) enabled() bool {
	if s.redis == nil || s.ttl <= 0 {
		return false
	}
	if !s.isDown.Load() {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.lastCheck) < s.retryInterval {
		return false
	}
	// Let one request probe Redis again.
	s.lastCheck = time.Now()
	return true
}

func (s *CachedStore) readCache(ctx context.Context, key string, out any) bool {
	if !s.enabled() {
		return false
	}

	val, err := s.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		s.markUp()
		metrics.IncCacheLookup("miss")
		return false
	}
	if err != nil {
		s.markDown(err)
		metrics.IncCacheLookup("error")
		return false
	}
	s.markUp()

	if err := json.Unmarshal([]byte(val), out); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Dropping undecodable cache entry")
		_ = s.redis.Del(ctx, key).Err()
		return false
	}
	metrics.IncCacheLookup("hit")
	return true
}

func (s *CachedStore) writeCache(ctx context.Context, key string, val any) {
	if !s.enabled() {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.markDown(err)
	}
}

func (s *CachedStore) markDown(err error) {
	if !s.isDown.Swap(true) {
		s.logger.Warn().Err(err).Msg("Redis unavailable, serving courts from storage")
	}
	s.mu.Lock()
	s.lastCheck = time.Now()
	s.mu.Unlock()
}

func (s *CachedStore) markUp() {
	if s.isDown.Swap(false) {
		s.logger.Info().Msg("Redis recovered")
	}
}
