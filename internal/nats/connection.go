package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// ConnectionConfig holds configuration for the NATS connection backing the
// key-value cache store.
type ConnectionConfig struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222")
	URL string

	// Name is the client name for identifying this connection
	Name string

	// MaxReconnects is the maximum number of reconnection attempts
	// Use -1 for unlimited reconnects
	MaxReconnects int

	// ReconnectWait is the time to wait between reconnection attempts
	ReconnectWait time.Duration

	// Timeout is the connection timeout
	Timeout time.Duration

	// Token is an optional authentication token
	Token string

	// Username is an optional username for authentication
	Username string

	// Password is an optional password for authentication
	Password string

	// Bucket is the name of the JetStream key-value bucket used for cached
	// projections. This should be environment-specific
	// (e.g., NODE_MANIFEST_UAT, NODE_MANIFEST_PROD). Default is "NODE_MANIFEST".
	Bucket string

	// BucketTTL is the time-to-live applied to the bucket when it is created.
	// Entries expire at the bucket level; per-entry lifetimes shorter than
	// this are enforced by the caller. Default is 1 hour, matching the
	// manifest cache lifetime.
	BucketTTL time.Duration
}

// DefaultConnectionConfig returns a configuration with sensible defaults
func DefaultConnectionConfig(url string) *ConnectionConfig {
	return &ConnectionConfig{
		URL:           url,
		Name:          "daedalus-cache-client",
		MaxReconnects: 10,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
		Bucket:        "NODE_MANIFEST",
		BucketTTL:     time.Hour,
	}
}

// Connect establishes a connection to NATS with the provided configuration
func Connect(ctx context.Context, config *ConnectionConfig) (*nats.Conn, error) {
	if config == nil {
		return nil, fmt.Errorf("connection config cannot be nil")
	}

	if config.URL == "" {
		return nil, fmt.Errorf("NATS URL cannot be empty")
	}

	opts := []nats.Option{
		nats.Name(config.Name),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.Timeout(config.Timeout),
	}

	// Add authentication options if provided
	if config.Token != "" {
		opts = append(opts, nats.Token(config.Token))
	} else if config.Username != "" && config.Password != "" {
		opts = append(opts, nats.UserInfo(config.Username, config.Password))
	}

	// Create a channel to handle connection result
	type result struct {
		conn *nats.Conn
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		conn, err := nats.Connect(config.URL, opts...)
		resultCh <- result{conn: conn, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("connection cancelled: %w", ctx.Err())
	case res := <-resultCh:
		if res.err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", res.err)
		}
		return res.conn, nil
	}
}

// Close safely closes a NATS connection
func Close(conn *nats.Conn) error {
	if conn == nil {
		return nil
	}

	// Drain the connection to allow in-flight operations to complete
	if err := conn.Drain(); err != nil {
		// If drain fails, force close
		conn.Close()
		return fmt.Errorf("error draining connection: %w", err)
	}

	return nil
}

// IsConnected checks if the connection is active
func IsConnected(conn *nats.Conn) bool {
	return conn != nil && conn.IsConnected()
}
