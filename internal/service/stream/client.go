package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"RegimeScan/internal/domain/models"
	drepo "RegimeScan/internal/domain/repository"
	applogger "RegimeScan/pkg/logger"

	"github.com/gorilla/websocket"
)

// Client implements a MarketStream over a Finnhub-style trade WebSocket.
// The live monitor samples its ticks into up/down movements.
type Client struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	l              *applogger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// New creates a live market stream client.
func New(apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration, l *applogger.Logger) drepo.MarketStream {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		l:              l,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("stream connect: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	if c.l != nil {
		c.l.Info("stream connected", applogger.String("url", c.websocketURL))
	}
	return nil
}

// Subscribe subscribes to the configured symbols.
func (c *Client) Subscribe(ctx context.Context) error {
	c.mu.Lock()
	conn, ok := c.conn, c.connected
	c.mu.Unlock()
	if conn == nil || !ok {
		return fmt.Errorf("stream not connected")
	}
	for _, s := range c.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": s}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
	}
	if c.l != nil {
		c.l.Info("stream subscribed", applogger.Strings("symbols", c.symbols))
	}
	return nil
}

type wsTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type wsFrame struct {
	Type string    `json:"type"`
	Data []wsTrade `json:"data"`
}

// Read streams ticks and errors until the context ends or the socket fails.
func (c *Client) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	ticks := make(chan *models.Tick, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.mu.Lock()
				conn := c.conn
				c.mu.Unlock()
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()
			if conn == nil {
				errs <- fmt.Errorf("stream conn nil")
				return
			}
			_, b, err := conn.ReadMessage()
			if err != nil {
				errs <- fmt.Errorf("stream read: %w", err)
				return
			}
			var frame wsFrame
			if err := json.Unmarshal(b, &frame); err != nil {
				continue // non-JSON control frames
			}
			if frame.Type != "trade" {
				continue
			}
			for _, d := range frame.Data {
				tick := &models.Tick{Symbol: d.S, Timestamp: d.T / 1000, Price: d.P, Volume: d.V}
				select {
				case ticks <- tick:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return ticks, errs
}

// Reconnect closes and re-establishes the connection.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.reconnectDelay):
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
