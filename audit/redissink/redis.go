// Package redissink writes audit entries to a capped Redis stream so that
// decisions remain queryable across process restarts and multiple replicas
// can share one trail.
package redissink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"

	"github.com/carelane/authcore/audit"
)

// Config for the Redis-backed audit sink. Defaults can be loaded via envdecode.
type Config struct {
	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`
	// StreamKey for audit entries. ENV: AUDIT_STREAM_KEY
	StreamKey string `env:"AUDIT_STREAM_KEY,default=authcore:audit"`
	// MaxLen caps the stream length (approximate trimming). ENV: AUDIT_STREAM_MAXLEN
	MaxLen int64 `env:"AUDIT_STREAM_MAXLEN,default=100000"`
}

// Sink appends entries to a Redis stream via XADD.
type Sink struct {
	client    *redis.Client
	streamKey string
	maxLen    int64
}

// New builds a Sink from cfg, pinging the server once to fail fast on
// misconfiguration.
func New(cfg Config) (*Sink, error) {
	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	cl := redis.NewClient(&redis.Options{Addr: addr})
	if err := cl.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	key := cfg.StreamKey
	if key == "" {
		key = "authcore:audit"
	}
	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Sink{client: cl, streamKey: key, maxLen: maxLen}, nil
}

// NewFromEnv builds a Sink using envdecode to populate Config.
func NewFromEnv() (*Sink, error) {
	var cfg Config
	// Defaults are provided via struct tags.
	_ = envdecode.Decode(&cfg)
	return New(cfg)
}

// Close closes the Redis client.
func (s *Sink) Close() error { return s.client.Close() }

// Write implements audit.Sink.
func (s *Sink) Write(ctx context.Context, e audit.Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.streamKey,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]interface{}{"d": payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd audit entry: %w", err)
	}
	return nil
}

var _ audit.Sink = (*Sink)(nil)
