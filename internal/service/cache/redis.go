package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection settings for the artifact store.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Redis shares fetched artifacts across service replicas.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed artifact store.
func NewRedis(cfg Config) *Redis {
	return &Redis{client: redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})}
}

func (r *Redis) Get(key string) ([]byte, bool, error) {
	b, err := r.client.Get(context.Background(), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) Set(key string, value []byte, ttl time.Duration) error {
	return r.client.Set(context.Background(), key, value, ttl).Err()
}
