// Package ws adapts gorilla/websocket connections to the relay's
// transport-agnostic Conn interface: one read pump decoding frames into
// relay events and one write pump draining a bounded send buffer.
package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"chat-relay/internal/relay"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// ErrSendBufferFull is the per-recipient delivery failure surfaced to the
// relay when a peer stops draining its buffer.
var ErrSendBufferFull = errors.New("client send buffer full")

// Client carries one websocket connection. WriteEvent never blocks: it
// enqueues into the send buffer or fails, so one stuck peer cannot stall
// fan-out to the rest.
type Client struct {
	conn    *websocket.Conn
	send    chan relay.Event
	inbound chan relay.Event
	limiter *rate.Limiter
	log     *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// Config bounds the transport's appetite per connection.
type Config struct {
	SendBufferSize  int
	MaxMessageBytes int64
	RateLimit       rate.Limit
	RateBurst       int
}

func NewClient(conn *websocket.Conn, cfg Config, log *slog.Logger) *Client {
	conn.SetReadLimit(cfg.MaxMessageBytes)
	return &Client{
		conn:    conn,
		send:    make(chan relay.Event, cfg.SendBufferSize),
		inbound: make(chan relay.Event, 16),
		limiter: rate.NewLimiter(cfg.RateLimit, cfg.RateBurst),
		log:     log,
		done:    make(chan struct{}),
	}
}

// Events is the decoded inbound stream consumed by the session
// supervisor. Closed when the read side ends.
func (c *Client) Events() <-chan relay.Event {
	return c.inbound
}

// WriteEvent implements relay.Conn.
func (c *Client) WriteEvent(ev relay.Event) error {
	select {
	case c.send <- ev:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close implements relay.Conn. Closing the underlying connection makes
// the read pump return, which ends the session loop.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// ReadPump decodes frames into relay events until the connection fails
// or closes, then closes the inbound channel. Runs on its own goroutine,
// one per connection.
func (c *Client) ReadPump() {
	defer func() {
		close(c.inbound)
		c.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var ev relay.Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read failed", "error", err)
			} else {
				c.log.Debug("websocket closed", "error", err)
			}
			return
		}
		if !c.limiter.Allow() {
			c.log.Debug("inbound rate limit exceeded, dropping event", "type", ev.Type)
			continue
		}
		select {
		case c.inbound <- ev:
		case <-c.done:
			// Session ended while the buffer was full.
			return
		}
	}
}

// WritePump drains the send buffer and keeps the connection alive with
// pings. Runs on its own goroutine, one per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case ev := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.log.Debug("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
