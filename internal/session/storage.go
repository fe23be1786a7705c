package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Keys persisted for every signed-in Telegram user.
const (
	KeyUser            = "user"
	KeyAuthToken       = "authToken"
	KeyEmployeeProfile = "employeeProfile"
)

// SessionKeys lists every key removed on logout.
var SessionKeys = []string{KeyUser, KeyAuthToken, KeyEmployeeProfile}

// ErrKeyNotFound is returned by Storage.Get for a missing key.
var ErrKeyNotFound = errors.New("session key not found")

// Storage is the durable per-user key/value store behind the session.
type Storage interface {
	Get(ctx context.Context, tgID int64, key string) (string, error)
	Set(ctx context.Context, tgID int64, key, value string) error
	Delete(ctx context.Context, tgID int64, keys ...string) error
}

// MemoryStorage keeps session values in process memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[int64]map[string]string
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[int64]map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, tgID int64, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[tgID][key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

func (m *MemoryStorage) Set(_ context.Context, tgID int64, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.values[tgID] == nil {
		m.values[tgID] = make(map[string]string)
	}
	m.values[tgID][key] = value
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, tgID int64, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.values[tgID], key)
	}
	if len(m.values[tgID]) == 0 {
		delete(m.values, tgID)
	}
	return nil
}

// RedisStorage persists session values in Redis under talentfit:session:<tgID>:<key>.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStorage creates a storage whose keys expire after ttl of inactivity.
func NewRedisStorage(client *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, ttl: ttl}
}

func redisKey(tgID int64, key string) string {
	return fmt.Sprintf("talentfit:session:%d:%s", tgID, key)
}

func (r *RedisStorage) Get(ctx context.Context, tgID int64, key string) (string, error) {
	value, err := r.client.Get(ctx, redisKey(tgID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session key %s: %w", key, err)
	}
	return value, nil
}

func (r *RedisStorage) Set(ctx context.Context, tgID int64, key, value string) error {
	if err := r.client.Set(ctx, redisKey(tgID, key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session key %s: %w", key, err)
	}
	return nil
}

func (r *RedisStorage) Delete(ctx context.Context, tgID int64, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	redisKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		redisKeys = append(redisKeys, redisKey(tgID, key))
	}
	if err := r.client.Del(ctx, redisKeys...).Err(); err != nil {
		return fmt.Errorf("failed to delete session keys: %w", err)
	}
	return nil
}
