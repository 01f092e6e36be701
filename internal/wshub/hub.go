package wshub

import (
	"context"
	"errors"
	"sync"
	"time"

	"poseparty/internal/logging"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const readLimit = 4096

// Options tune a single client connection.
type Options struct {
	SendBuffer   int
	WriteTimeout time.Duration
	MessageRate  float64
	MessageBurst int
	// OnThrottle is called for every inbound frame held back by the rate
	// limiter.
	OnThrottle func()
}

// Client represents a single WebSocket connection in the hub.
type Client struct {
	id           string
	Conn         *websocket.Conn
	send         chan []byte
	ctx          context.Context
	cancel       context.CancelFunc
	limiter      *rate.Limiter
	writeTimeout time.Duration
	onThrottle   func()
}

// NewClient wraps conn. The client lives until parent is cancelled, the
// peer disconnects, or the client falls behind on outbound messages.
func NewClient(parent context.Context, conn *websocket.Conn, opts Options) *Client {
	ctx, cancel := context.WithCancel(parent)
	limit := rate.Inf
	if opts.MessageRate > 0 {
		limit = rate.Limit(opts.MessageRate)
	}
	if opts.SendBuffer < 1 {
		opts.SendBuffer = 1
	}
	if opts.MessageBurst < 1 {
		opts.MessageBurst = 1
	}
	return &Client{
		id:           uuid.NewString(),
		Conn:         conn,
		send:         make(chan []byte, opts.SendBuffer),
		ctx:          ctx,
		cancel:       cancel,
		limiter:      rate.NewLimiter(limit, opts.MessageBurst),
		writeTimeout: opts.WriteTimeout,
		onThrottle:   opts.OnThrottle,
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send queues msg without blocking. A client whose queue is full is too
// slow to keep up with its room and gets disconnected.
func (c *Client) Send(msg []byte) bool {
	if c.ctx.Err() != nil {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		l := logging.For("wshub")
		l.Warn().Str("conn", c.id).Msg("send queue full, disconnecting slow client")
		c.cancel()
		return false
	}
}

// Close ends the client's pumps. It is safe to call more than once.
func (c *Client) Close() {
	c.cancel()
}

func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// WritePump reads from the send queue and writes to the WebSocket
// connection, each write bounded by the write timeout.
func (c *Client) WritePump() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case msg := <-c.send:
			ctx := c.ctx
			var cancel context.CancelFunc = func() {}
			if c.writeTimeout > 0 {
				ctx, cancel = context.WithTimeout(c.ctx, c.writeTimeout)
			}
			err := c.Conn.Write(ctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				l := logging.For("wshub")
				l.Debug().Err(err).Str("conn", c.id).Msg("write failed")
				c.cancel()
				return
			}
		}
	}
}

// ReadPump delivers text frames to handle, one at a time and in order, until
// the connection fails or handle returns an error. A frame over the rate
// limit waits for a token; binary frames are dropped.
func (c *Client) ReadPump(handle func(data []byte) error) error {
	c.Conn.SetReadLimit(readLimit)
	for {
		typ, data, err := c.Conn.Read(c.ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			l := logging.For("wshub")
			l.Warn().Str("conn", c.id).Msg("ignoring non-text frame")
			continue
		}
		if !c.limiter.Allow() {
			if c.onThrottle != nil {
				c.onThrottle()
			}
			l := logging.For("wshub")
			l.Debug().Str("conn", c.id).Msg("rate limited, throttling reads")
			if err := c.limiter.Wait(c.ctx); err != nil {
				return err
			}
		}
		if err := handle(data); err != nil {
			return err
		}
	}
}

// Serve runs both pumps and calls onClose exactly once when the connection
// is finished, whatever ended it.
func (c *Client) Serve(handle func(data []byte) error, onClose func()) {
	go c.WritePump()

	err := c.ReadPump(handle)
	c.cancel()
	onClose()

	switch {
	case err == nil, errors.Is(err, ErrClientClosed):
		_ = c.Conn.Close(websocket.StatusNormalClosure, "")
	case websocket.CloseStatus(err) != -1:
		// Peer closed; the library already answered the close frame.
		_ = c.Conn.CloseNow()
	default:
		l := logging.For("wshub")
		l.Debug().Err(err).Str("conn", c.id).Msg("connection closed with error")
		_ = c.Conn.CloseNow()
	}
}

// ErrClientClosed is returned by a frame handler to end the connection
// normally, e.g. after an explicit leave.
var ErrClientClosed = errors.New("closed by client")

// Hub tracks live connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID()] = c
}

// Unregister removes a client.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, id)
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll disconnects every client, used at shutdown. Each client's
// normal close path still runs.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.Close()
	}
}
