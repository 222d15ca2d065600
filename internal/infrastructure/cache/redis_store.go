package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/axgate/llmgw/pkg/safego"
)

// RedisConfig mirrors the fields a multi-instance deployment needs to
// reach a shared redis instance.
type RedisConfig struct {
	Addr                string        `yaml:"addr" mapstructure:"addr"`
	Password            string        `yaml:"password" mapstructure:"password"`
	DB                  int           `yaml:"db" mapstructure:"db"`
	MaxRetries          int           `yaml:"max_retries" mapstructure:"max_retries"`
	PoolSize            int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns        int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	HealthCheckInterval time.Duration `yaml:"health_check_interval" mapstructure:"health_check_interval"`
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:                "localhost:6379",
		MaxRetries:          3,
		PoolSize:            10,
		MinIdleConns:        2,
		HealthCheckInterval: 30 * time.Second,
	}
}

// RedisStore is the networked Store backend, used when a gateway is
// deployed behind multiple replicas that must share resolver cache
// entries and stickiness locks.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

func NewRedisStore(cfg RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	s := &RedisStore{
		client: client,
		logger: logger.With(zap.String("component", "cache")),
	}

	if cfg.HealthCheckInterval > 0 {
		safego.Go(logger, "cache-health-check", func() { s.healthCheckLoop(cfg.HealthCheckInterval) })
	}

	return s, nil
}

func (s *RedisStore) healthCheckLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		closed := s.closed
		s.mu.RUnlock()
		if closed {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.Ping(ctx); err != nil {
			s.logger.Error("cache health check failed", zap.Error(err))
		}
		cancel()
	}
}

func (s *RedisStore) currentVersion(ctx context.Context, namespace string) (int64, error) {
	v, err := s.client.Get(ctx, versionKey(namespace)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

func (s *RedisStore) GetJSON(ctx context.Context, namespace, key string, dest interface{}) (bool, error) {
	version, err := s.currentVersion(ctx, namespace)
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}
	val, err := s.client.Get(ctx, namespacedKey(namespace, key, version)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *RedisStore) SetJSON(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error {
	version, err := s.currentVersion(ctx, namespace)
	if err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	if err := s.client.Set(ctx, namespacedKey(namespace, key, version), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

func (s *RedisStore) BumpNamespace(ctx context.Context, namespace string) error {
	if err := s.client.Incr(ctx, versionKey(namespace)).Err(); err != nil {
		return fmt.Errorf("cache namespace bump failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.IncrBy(ctx, key, delta)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("cache increment failed: %w", err)
	}
	return incr.Val(), nil
}

// compareAndSwapScript implements an atomic "set only if current value
// matches" with TTL, including the absent-key case (oldVal == "").
var compareAndSwapScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current == false then current = "" end
if current ~= ARGV[1] then
  return 0
end
if ARGV[3] == "0" then
  redis.call("SET", KEYS[1], ARGV[2])
else
  redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
end
return 1
`)

func (s *RedisStore) CompareAndSwap(ctx context.Context, key, oldVal, newVal string, ttl time.Duration) (bool, error) {
	res, err := compareAndSwapScript.Run(ctx, s.client, []string{key}, oldVal, newVal, strconv.FormatInt(ttl.Milliseconds(), 10)).Int()
	if err != nil {
		return false, fmt.Errorf("cache compare-and-swap failed: %w", err)
	}
	return res == 1, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}
