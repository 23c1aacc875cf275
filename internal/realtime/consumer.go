package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/linguabridge/translate-gateway/internal/config"
	"github.com/linguabridge/translate-gateway/internal/observability"
	"github.com/linguabridge/translate-gateway/internal/resilience"
	"github.com/rs/zerolog"
)

// Consumer maintains the WebSocket connection to the hosted realtime model
// and exposes its server events as a channel. Events are delivered in the
// order the transport sends them; the consumer never blocks the session on
// a slow downstream reader beyond the channel buffer.
type Consumer struct {
	cfg    *config.Config
	events chan Event
	logger zerolog.Logger

	mu       sync.RWMutex
	conn     *websocket.Conn
	isActive bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewConsumer creates a consumer for the configured realtime endpoint.
func NewConsumer(cfg *config.Config) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		cfg:    cfg,
		events: make(chan Event, 100),
		logger: observability.ComponentLogger("realtime"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start dials the realtime endpoint, retrying the initial connect with
// backoff, and begins the read loop.
func (c *Consumer) Start() error {
	err := resilience.Retry(func() error {
		return c.connect()
	}, &resilience.RetryConfig{
		MaxAttempts:       c.cfg.RetryMaxAttempts,
		InitialBackoff:    time.Duration(c.cfg.RetryInitialBackoff) * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}, resilience.IsRetryableNetworkError)
	if err != nil {
		return fmt.Errorf("failed to connect to realtime endpoint: %w", err)
	}

	go c.readLoop()
	return nil
}

func (c *Consumer) connect() error {
	url := fmt.Sprintf("%s?model=%s", c.cfg.RealtimeURL, c.cfg.RealtimeModel)
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, _, err := websocket.DefaultDialer.DialContext(c.ctx, url, header)
	if err != nil {
		return fmt.Errorf("dial realtime endpoint: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.isActive = true
	c.mu.Unlock()

	c.logger.Info().Str("url", c.cfg.RealtimeURL).Str("model", c.cfg.RealtimeModel).Msg("Realtime stream connected")
	return nil
}

// Events returns the serial stream of server events.
func (c *Consumer) Events() <-chan Event {
	return c.events
}

// IsActive reports whether the stream is currently connected.
func (c *Consumer) IsActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isActive
}

func (c *Consumer) readLoop() {
	// The read loop is the only sender, so it owns the channel close; a
	// ranging session sees the stream end on both Close and reconnect
	// exhaustion.
	defer close(c.events)

	for {
		c.mu.RLock()
		conn := c.conn
		active := c.isActive
		c.mu.RUnlock()

		if !active || conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
				return
			default:
			}

			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("Realtime stream read error")
			}
			c.mu.Lock()
			c.isActive = false
			c.mu.Unlock()

			c.attemptReconnect()
			continue
		}

		var ev Event
		if err := json.Unmarshal(message, &ev); err != nil {
			c.logger.Error().Err(err).Msg("Failed to parse realtime event")
			continue
		}
		if ev.Type == "" {
			continue
		}

		select {
		case c.events <- ev:
		default:
			c.logger.Warn().Str("type", ev.Type).Msg("Event channel full, dropping event")
		}
	}
}

// attemptReconnect re-establishes a dropped stream with backoff. If all
// attempts fail the consumer is cancelled, which ends the read loop and
// with it the events channel.
func (c *Consumer) attemptReconnect() {
	select {
	case <-c.ctx.Done():
		return
	default:
	}

	err := resilience.Reconnect(c.ctx, c.connect, &resilience.ReconnectConfig{
		MaxAttempts: c.cfg.ReconnectMaxAttempts,
		Backoff:     time.Duration(c.cfg.ReconnectBackoff) * time.Millisecond,
		Multiplier:  2.0,
		MaxBackoff:  30 * time.Second,
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to reconnect realtime stream, ending session")
		c.cancel()
	}
}

// Close tears the connection down. In-flight events already queued remain
// readable; nothing new is delivered.
func (c *Consumer) Close() error {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.isActive = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
