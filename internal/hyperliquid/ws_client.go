package hyperliquid

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"autoswap/internal/observability"
)

// WSConfig configures websocket client behavior.
type WSConfig struct {
	// ReconnectDelay is the fixed delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// PingInterval is the interval for the application-level heartbeat.
	PingInterval time.Duration
	// ReadTimeout is the timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing messages.
	WriteTimeout time.Duration
	// BatchBuffer is the capacity of the delivery channel.
	BatchBuffer int
}

// DefaultWSConfig returns the default websocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay: 5 * time.Second,
		PingInterval:   30 * time.Second,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		BatchBuffer:    256,
	}
}

// WSClient maintains the ledger-update subscription for one wallet.
// It owns the connection lifecycle: dial, subscribe, heartbeat, detect
// closure, reconnect once per failure after a fixed delay.
type WSClient struct {
	endpoint string
	user     string
	config   WSConfig
	logger   *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	// gen increments on every successful dial. Batches are stamped
	// with it so the filter can skip the first delivery per connection.
	gen        atomic.Int64
	reconnects atomic.Int64

	// reconnecting gates duplicate reconnect scheduling: one pending
	// reconnect suppresses new ones.
	reconnecting atomic.Bool

	batches chan LedgerBatch
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewWSClient creates a client for the given endpoint and monitored
// address. Start must be called before batches are delivered.
func NewWSClient(endpoint, user string, config *WSConfig, logger *log.Logger) *WSClient {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = log.Default()
	}
	return &WSClient{
		endpoint: endpoint,
		user:     user,
		config:   cfg,
		logger:   logger,
		batches:  make(chan LedgerBatch, cfg.BatchBuffer),
		done:     make(chan struct{}),
	}
}

// Batches returns the delivery channel. It is closed by Close.
func (c *WSClient) Batches() <-chan LedgerBatch {
	return c.batches
}

// Connected reports whether a live connection is held.
func (c *WSClient) Connected() bool {
	if c.closed.Load() {
		return false
	}
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn != nil
}

// Generation returns the current connection generation.
func (c *WSClient) Generation() int64 {
	return c.gen.Load()
}

// Reconnects returns how many reconnect attempts have run.
func (c *WSClient) Reconnects() int64 {
	return c.reconnects.Load()
}

// Start dials, subscribes and launches the read and heartbeat loops.
func (c *WSClient) Start(ctx context.Context) error {
	if err := c.connect(ctx); err != nil {
		return err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return nil
}

// connect dials the endpoint and sends the subscription request.
// On success the connection generation advances.
func (c *WSClient) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	sub := subscribeMessage{
		Method: "subscribe",
		Subscription: subscription{
			Type: "userNonFundingLedgerUpdates",
			User: c.user,
		},
	}
	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("write subscribe: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	c.gen.Add(1)

	c.logger.Printf("subscribed to userNonFundingLedgerUpdates for %s (gen %d)", c.user, c.gen.Load())
	return nil
}

// Close tears down: cancels any pending reconnect via the done channel,
// stops the heartbeat and closes the socket. The batch channel is
// closed once both loops have exited.
func (c *WSClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	c.wg.Wait()
	close(c.batches)
	return nil
}

// readLoop reads messages and dispatches batches until closed.
func (c *WSClient) readLoop() {
	defer c.wg.Done()

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			c.logger.Printf("connection lost: %v", err)
			if !c.reconnecting.Swap(true) {
				go c.reconnect()
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		c.handleMessage(message)
	}
}

// reconnect re-dials and re-subscribes, retrying on the fixed delay
// until a dial succeeds or the client closes. The reconnecting flag
// keeps at most one of these loops alive at a time.
func (c *WSClient) reconnect() {
	defer c.reconnecting.Store(false)

	for !c.closed.Load() {
		c.logger.Printf("reconnecting in %s...", c.config.ReconnectDelay)
		select {
		case <-c.done:
			return
		case <-time.After(c.config.ReconnectDelay):
		}

		c.connMu.Lock()
		if c.conn != nil {
			c.conn.Close()
			c.conn = nil
		}
		c.connMu.Unlock()

		c.reconnects.Add(1)
		observability.RecordReconnect()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := c.connect(ctx)
		cancel()
		if err == nil {
			return
		}
		c.logger.Printf("reconnect failed: %v", err)
	}
}

// handleMessage decodes one inbound frame. Messages that fail to parse
// are logged and dropped; they never take the connection down.
func (c *WSClient) handleMessage(message []byte) {
	var env wsEnvelope
	if err := json.Unmarshal(message, &env); err != nil {
		c.logger.Printf("drop unparseable message: %v", err)
		return
	}

	switch env.Channel {
	case "subscriptionResponse":
		c.logger.Println("subscription confirmed")
	case "pong":
		// Heartbeat reply, nothing to do.
	case "userNonFundingLedgerUpdates":
		var batch LedgerBatch
		if err := json.Unmarshal(env.Data, &batch); err != nil {
			c.logger.Printf("drop malformed ledger batch: %v", err)
			return
		}
		batch.Gen = c.gen.Load()
		select {
		case c.batches <- batch:
		case <-c.done:
		}
	default:
		// Other channels are not subscribed; ignore.
	}
}

// pingLoop sends the JSON heartbeat while the connection is open. The
// exchange expects {"method":"ping"} as a text message.
func (c *WSClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				if err := c.conn.WriteJSON(pingMessage{Method: "ping"}); err != nil {
					// Connection is likely dead, the reader drives reconnect.
					c.logger.Printf("heartbeat write failed: %v", err)
				}
			}
			c.connMu.Unlock()
		}
	}
}
