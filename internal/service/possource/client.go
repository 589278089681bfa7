package possource

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	applogger "StockCast/pkg/logger"

	"github.com/gorilla/websocket"
)

// Client implements a SalesStream backed by a point-of-sale WebSocket feed.
// The feed pushes end-of-day sale records per store; frames for products we
// did not subscribe to are ignored.
type Client struct {
	apiKey         string
	websocketURL   string
	stores         []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	logger         *applogger.Logger

	conn      *websocket.Conn
	connected bool
}

// New creates a new point-of-sale SalesStream.
func New(apiKey, websocketURL string, stores []string, reconnectDelay, pingInterval time.Duration, l *applogger.Logger) drepo.SalesStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		stores:         stores,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		logger:         l,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("pos connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	c.logger.Info("pos stream connected")
	return nil
}

// Subscribe subscribes to the configured store feeds.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("pos stream not connected")
	}
	for _, s := range c.stores {
		msg := map[string]string{"type": "subscribe", "store": s}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
		c.logger.Info("pos stream subscribed", applogger.String("store", s))
	}
	return nil
}

type posSale struct {
	ProductID string  `json:"product_id"`
	Category  string  `json:"category"`
	Qty       int     `json:"qty"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
	Promo     bool    `json:"promo"`
	Date      string  `json:"date"` // YYYY-MM-DD
}

type posMessage struct {
	Type string    `json:"type"`
	Data []posSale `json:"data"`
}

// Read streams Observation events and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.Observation, <-chan error) {
	obs := make(chan *models.Observation, 1024)
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
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(obs)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("pos conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("pos read: %w", err)
					return
				}
				var m posMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-sale frames
					continue
				}
				if m.Type != "sale" {
					continue
				}
				for _, d := range m.Data {
					date, err := time.Parse("2006-01-02", d.Date)
					if err != nil {
						continue
					}
					o := &models.Observation{
						Date:         date,
						ProductID:    d.ProductID,
						Category:     models.Category(d.Category),
						QuantitySold: d.Qty,
						Price:        d.Price,
						StockLevel:   d.Stock,
						OnPromotion:  d.Promo,
					}
					select {
					case obs <- o:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return obs, errs
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
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
