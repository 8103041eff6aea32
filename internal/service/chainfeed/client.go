// Package chainfeed streams newly created token pairs from a WebSocket feed
// so the monitor can score contracts as they appear on-chain.
package chainfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"RugDetector/internal/domain/models"
	drepo "RugDetector/internal/domain/repository"
	"RugDetector/pkg/logger"

	"github.com/gorilla/websocket"
)

// Client implements a TokenFeed backed by a pair-listing WebSocket.
type Client struct {
	apiKey         string
	websocketURL   string
	blockchains    []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	mu        sync.Mutex // guards conn and connected
	conn      *websocket.Conn
	connected bool
}

// New creates a new chain feed.
func New(apiKey, websocketURL string, blockchains []string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) drepo.TokenFeed {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		blockchains:    blockchains,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := c.websocketURL
	if c.apiKey != "" {
		u = fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("chainfeed connect: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	c.log.Info("chainfeed connected")
	return nil
}

// Subscribe subscribes to new-pair events for the configured chains.
func (c *Client) Subscribe(ctx context.Context) error {
	conn := c.current()
	if conn == nil {
		return fmt.Errorf("chainfeed not connected")
	}
	for _, chain := range c.blockchains {
		msg := map[string]string{"type": "subscribe", "channel": "new_pairs", "chain": chain}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", chain, err)
		}
		c.log.Info("chainfeed subscribed", logger.String("chain", chain))
	}
	return nil
}

type feedPair struct {
	Chain string `json:"chain"`
	Token string `json:"token_address"`
	Pair  string `json:"pair_address"`
	T     int64  `json:"t"` // ms
}

type feedMessage struct {
	Type string     `json:"type"`
	Data []feedPair `json:"data"`
}

// Read streams TokenEvents and errors from the connection established by
// the last Connect. Both channels close after the first read error; the
// caller reconnects and calls Read again for a fresh pair.
func (c *Client) Read(ctx context.Context) (<-chan *models.TokenEvent, <-chan error) {
	events := make(chan *models.TokenEvent, 256)
	errs := make(chan error, 1)
	conn := c.current()

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if cur := c.current(); cur != nil {
					_ = cur.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(events)
		defer close(errs)
		if conn == nil {
			errs <- fmt.Errorf("chainfeed conn nil")
			return
		}
		for {
			if ctx.Err() != nil {
				return
			}
			_, b, err := conn.ReadMessage()
			if err != nil {
				errs <- fmt.Errorf("chainfeed read: %w", err)
				return
			}
			var m feedMessage
			if err := json.Unmarshal(b, &m); err != nil {
				// ignore non-pair frames
				continue
			}
			if m.Type != "new_pair" {
				continue
			}
			for _, d := range m.Data {
				observed := time.Now().UTC()
				if d.T > 0 {
					observed = time.Unix(d.T/1000, 0).UTC()
				}
				ev := &models.TokenEvent{
					ContractAddress: d.Token,
					Blockchain:      d.Chain,
					PairAddress:     d.Pair,
					ObservedAt:      observed,
				}
				select {
				case events <- ev:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return events, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) current() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}
