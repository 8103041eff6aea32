// Package clickhouse manages the connection pool for the analyses store.
package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
)

// ClientOption configures Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	host         string
	port         int
	database     string
	user         string
	password     string
	maxOpen      int
	maxIdle      int
	dialTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
	useHTTP      bool
	asyncInsert  bool
	waitForAsync bool
	maxExecTime  time.Duration
}

// WithHost sets the database host.
func WithHost(host string) ClientOption {
	return func(c *clientConfig) { c.host = host }
}

// WithPort sets the database port.
func WithPort(port int) ClientOption {
	return func(c *clientConfig) { c.port = port }
}

// WithDatabase sets the database name.
func WithDatabase(database string) ClientOption {
	return func(c *clientConfig) { c.database = database }
}

// WithCredentials sets user and password.
func WithCredentials(user, password string) ClientOption {
	return func(c *clientConfig) {
		c.user = user
		c.password = password
	}
}

// WithMaxConnections sets pool limits.
func WithMaxConnections(maxOpen, maxIdle int) ClientOption {
	return func(c *clientConfig) {
		c.maxOpen = maxOpen
		c.maxIdle = maxIdle
	}
}

// WithTimeouts sets dial/read/write timeouts.
func WithTimeouts(dial, read, write time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.dialTimeout = dial
		c.readTimeout = read
		c.writeTimeout = write
	}
}

// WithHTTP selects the HTTP protocol over native.
func WithHTTP(useHTTP bool) ClientOption {
	return func(c *clientConfig) { c.useHTTP = useHTTP }
}

// WithAsyncInsert enables async_insert; analyses are fire-and-forget
// writes so waiting is optional.
func WithAsyncInsert(enabled, wait bool) ClientOption {
	return func(c *clientConfig) {
		c.asyncInsert = enabled
		c.waitForAsync = wait
	}
}

// WithMaxExecutionTime bounds per-query execution time.
func WithMaxExecutionTime(d time.Duration) ClientOption {
	return func(c *clientConfig) { c.maxExecTime = d }
}

// Client wraps the database/sql pool for ClickHouse.
type Client struct {
	db *sql.DB
}

// NewClient opens the pool and verifies the server answers.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		maxOpen:     10,
		maxIdle:     5,
		dialTimeout: 5 * time.Second,
		readTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.host == "" {
		return nil, fmt.Errorf("host is required")
	}

	db, err := sql.Open("clickhouse", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(cfg.maxOpen)
	db.SetMaxIdleConns(cfg.maxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}

	return &Client{db: db}, nil
}

func (cfg *clientConfig) dsn() string {
	scheme := "clickhouse"
	if cfg.useHTTP {
		scheme = "clickhouse+http"
	}

	params := url.Values{}
	if cfg.dialTimeout > 0 {
		params.Set("dial_timeout", cfg.dialTimeout.String())
	}
	if cfg.readTimeout > 0 {
		params.Set("read_timeout", cfg.readTimeout.String())
	}
	if cfg.maxExecTime > 0 {
		params.Set("max_execution_time", fmt.Sprintf("%d", int(cfg.maxExecTime.Seconds())))
	}
	if cfg.asyncInsert {
		params.Set("async_insert", "1")
		if cfg.waitForAsync {
			params.Set("wait_for_async_insert", "1")
		}
	}

	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(cfg.user, cfg.password),
		Host:     fmt.Sprintf("%s:%d", cfg.host, cfg.port),
		Path:     "/" + cfg.database,
		RawQuery: params.Encode(),
	}
	return u.String()
}

// DB exposes the pool for the repository layer.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the pool.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// InitSchema applies idempotent DDL statements in order.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
