// Package natskv implements the cache Store port on top of a NATS JetStream
// Key-Value bucket, so a cached manifest can be shared across every process
// serving the same catalog.
package natskv

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	internalnats "github.com/wehubfusion/Daedalus/internal/nats"
	"github.com/wehubfusion/Daedalus/pkg/cache"
	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
)

// envelope wraps a cached value with its own expiry deadline. The bucket TTL
// bounds entry lifetime on the server; the envelope enforces the (possibly
// shorter) per-entry lifetime requested by the caller.
type envelope struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Config is the public connection configuration for the key-value store.
// It mirrors the internal NATS connection configuration but keeps the
// implementation private.
type Config struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
	Token         string
	Username      string
	Password      string
	Bucket        string
	BucketTTL     time.Duration
}

// DefaultConfig returns a configuration with sensible defaults for url.
func DefaultConfig(url string) *Config {
	return fromInternalConfig(internalnats.DefaultConnectionConfig(url))
}

func (c *Config) toInternalConfig() *internalnats.ConnectionConfig {
	return &internalnats.ConnectionConfig{
		URL:           c.URL,
		Name:          c.Name,
		MaxReconnects: c.MaxReconnects,
		ReconnectWait: c.ReconnectWait,
		Timeout:       c.Timeout,
		Token:         c.Token,
		Username:      c.Username,
		Password:      c.Password,
		Bucket:        c.Bucket,
		BucketTTL:     c.BucketTTL,
	}
}

func fromInternalConfig(cfg *internalnats.ConnectionConfig) *Config {
	return &Config{
		URL:           cfg.URL,
		Name:          cfg.Name,
		MaxReconnects: cfg.MaxReconnects,
		ReconnectWait: cfg.ReconnectWait,
		Timeout:       cfg.Timeout,
		Token:         cfg.Token,
		Username:      cfg.Username,
		Password:      cfg.Password,
		Bucket:        cfg.Bucket,
		BucketTTL:     cfg.BucketTTL,
	}
}

// Store is a cache.Store backed by a JetStream Key-Value bucket.
type Store struct {
	conn   *nats.Conn
	kv     nats.KeyValue
	config *Config
	logger *zap.Logger
}

// Connect establishes a NATS connection and binds the key-value bucket,
// creating it with the configured TTL if it does not exist yet.
// The logger may be nil.
func Connect(ctx context.Context, config *Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config == nil {
		return nil, fmt.Errorf("connection config cannot be nil")
	}

	conn, err := internalnats.Connect(ctx, config.toInternalConfig())
	if err != nil {
		return nil, sdkerrors.NewError("CACHE_CONNECT", "failed to connect to NATS", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		internalnats.Close(conn)
		return nil, sdkerrors.NewError("CACHE_CONNECT", "failed to get JetStream context", err)
	}

	kv, err := js.KeyValue(config.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket: config.Bucket,
			TTL:    config.BucketTTL,
		})
	}
	if err != nil {
		internalnats.Close(conn)
		return nil, sdkerrors.NewError("CACHE_BUCKET", "failed to bind key-value bucket", err)
	}

	logger.Info("Connected key-value cache store",
		zap.String("bucket", config.Bucket),
		zap.Duration("bucket_ttl", config.BucketTTL))

	return &Store{
		conn:   conn,
		kv:     kv,
		config: config,
		logger: logger,
	}, nil
}

// Get retrieves the value stored under key. Entries whose envelope has
// expired are treated as misses and removed.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, sdkerrors.ErrInvalidKey
	}
	if !internalnats.IsConnected(s.conn) {
		return nil, false, sdkerrors.ErrNotConnected
	}

	kvEntry, err := s.kv.Get(key)
	if errors.Is(err, nats.ErrKeyNotFound) || errors.Is(err, nats.ErrKeyDeleted) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, sdkerrors.NewError("CACHE_GET", fmt.Sprintf("failed to get key %q", key), err)
	}

	var env envelope
	if err := json.Unmarshal(kvEntry.Value(), &env); err != nil {
		// A corrupt entry is unusable; drop it and report a miss.
		s.logger.Warn("Dropping corrupt cache entry",
			zap.String("key", key),
			zap.Error(err))
		_ = s.kv.Delete(key)
		return nil, false, nil
	}

	if time.Now().After(env.ExpiresAt) {
		_ = s.kv.Delete(key)
		return nil, false, nil
	}

	return env.Value, true, nil
}

// Set stores value under key. The ttl must be positive and must not exceed
// the bucket TTL the store was created with.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return sdkerrors.ErrInvalidKey
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be greater than 0, got %v", ttl)
	}
	if s.config.BucketTTL > 0 && ttl > s.config.BucketTTL {
		return fmt.Errorf("ttl %v exceeds bucket TTL %v", ttl, s.config.BucketTTL)
	}
	if !internalnats.IsConnected(s.conn) {
		return sdkerrors.ErrNotConnected
	}

	data, err := json.Marshal(envelope{
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		return sdkerrors.NewError("CACHE_SET", fmt.Sprintf("failed to encode entry for key %q", key), err)
	}

	if _, err := s.kv.Put(key, data); err != nil {
		return sdkerrors.NewError("CACHE_SET", fmt.Sprintf("failed to put key %q", key), err)
	}
	return nil
}

// Delete removes the entry stored under key. Deleting an absent key is not
// an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return sdkerrors.ErrInvalidKey
	}
	if !internalnats.IsConnected(s.conn) {
		return sdkerrors.ErrNotConnected
	}

	err := s.kv.Delete(key)
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return sdkerrors.NewError("CACHE_DELETE", fmt.Sprintf("failed to delete key %q", key), err)
	}
	return nil
}

// Close drains the underlying NATS connection.
func (s *Store) Close() error {
	return internalnats.Close(s.conn)
}

// Ensure Store implements the cache port
var _ cache.Store = (*Store)(nil)
