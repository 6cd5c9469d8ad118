package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// MaxHealthCheckRetries is the maximum number of retries for the health check.
	MaxHealthCheckRetries = 3
)

// Config is the configuration for the Redis store.
type Config struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Store is a Redis backed key-value store.
type Store struct {
	client *redis.Client
}

// healthCheck is used to check the health of the Redis connection.
func healthCheck(ctx context.Context, client *redis.Client) error {
	var err error

	backoff := 100 * time.Millisecond
	for i := 1; i <= MaxHealthCheckRetries; i++ {
		if err = client.Ping(ctx).Err(); err == nil {
			break
		}
		if i < MaxHealthCheckRetries {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	return err
}

// New creates a new Redis store instance.
func New(ctx context.Context, cfg *Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Enable OpenTelemetry instrumentation for redis
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to instrument redis tracing: %v", err)
	}
	if err := redisotel.InstrumentMetrics(client); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to instrument redis metrics: %v", err)
	}

	if err := healthCheck(ctx, client); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to connect to redis: %v", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient wraps an existing Redis client, used by tests.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis store.
func (s *Store) Close() error {
	return s.client.Close()
}

// Set stores a JSON-encoded value with the given expiration.
func (s *Store) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to marshal value: %v", err)
	}

	if err := s.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return status.Errorf(codes.Unavailable, "failed to set value in redis: %v", err)
	}

	return nil
}

// Get retrieves a value by key into dest. A missing key yields codes.NotFound.
func (s *Store) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return status.Errorf(codes.NotFound, "key not found: %s", key)
		}
		return status.Errorf(codes.Unavailable, "failed to get value from redis: %v", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return status.Errorf(codes.Internal, "failed to unmarshal value: %v", err)
	}

	return nil
}

// Delete removes a key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return status.Errorf(codes.Unavailable, "failed to delete key: %v", err)
	}
	return nil
}
