package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/codefionn/boardsync/internal/logger"
	"github.com/codefionn/boardsync/internal/wire"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024

	sendBuffer = 64
)

// Status represents the current state of the push channel.
type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusConnected
	StatusDisconnected
	// StatusExhausted is terminal: the retry cap was reached and no further
	// automatic attempt will be made.
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	case StatusExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// ErrNotConnected is returned by Send while the channel is down. Callers
// treat sends as fire-and-forget and may drop the event.
var ErrNotConnected = errors.New("transport: not connected")

// Policy is the reconnect backoff policy. Attempt n (1-based) is scheduled
// after Delay(n) = BaseDelay * 2^n; after MaxAttempts consecutive failures
// the channel goes to StatusExhausted and stays there.
type Policy struct {
	BaseDelay   time.Duration
	MaxAttempts int
}

// DefaultPolicy matches the product defaults: 5 attempts at 1.5s * 2^n.
func DefaultPolicy() Policy {
	return Policy{BaseDelay: 1500 * time.Millisecond, MaxAttempts: 5}
}

// Delay returns the backoff delay before reconnect attempt n (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(1<<uint(attempt))
}

// Channel maintains a persistent WebSocket connection to one backend
// endpoint. It owns connect/reconnect/backoff and raw send/receive, and
// nothing else: a close clears no application state.
type Channel struct {
	url      string
	policy   Policy
	identify func() interface{}
	onEvent  func(wire.Event)
	onStatus func(Status)
	log      *logger.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	outgoing chan []byte
	stop     chan struct{}
	gen      int
	status   Status
	attempts int
	retry    *time.Timer
	closed   bool
	ctx      context.Context
}

// Options configures a Channel.
type Options struct {
	// Policy is the reconnect policy; zero value means DefaultPolicy.
	Policy Policy
	// Identify returns the event sent on every successful open so the
	// server can attribute subsequent presence (set-username or join).
	Identify func() interface{}
	Logger   *logger.Logger
}

// New creates a channel for the given ws:// or wss:// endpoint. Open must
// be called to establish it.
func New(endpoint string, opts Options) *Channel {
	if opts.Policy == (Policy{}) {
		opts.Policy = DefaultPolicy()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Global()
	}
	return &Channel{
		url:      endpoint,
		policy:   opts.Policy,
		identify: opts.Identify,
		log:      log.WithPrefix("transport"),
		status:   StatusIdle,
	}
}

// Endpoint builds the push-channel URL for a backend base URL: ws(s)://host/ws,
// or /ws/room/{room} for the room variant.
func Endpoint(backendURL, room string) (string, error) {
	u, err := url.Parse(backendURL)
	if err != nil {
		return "", fmt.Errorf("parse backend url: %w", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	if room != "" {
		u.Path += "/room/" + room
	}
	return u.String(), nil
}

// OnEvent registers the single consumer for inbound events. Must be called
// before Open.
func (c *Channel) OnEvent(fn func(wire.Event)) { c.onEvent = fn }

// OnStatus registers the status transition callback. Must be called before
// Open.
func (c *Channel) OnStatus(fn func(Status)) { c.onStatus = fn }

// Open establishes the channel. A failed dial counts as a failed attempt
// and schedules a reconnect per the policy, so the returned error only
// describes the first dial.
func (c *Channel) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("transport: channel closed")
	}
	c.ctx = ctx
	c.mu.Unlock()
	return c.dial()
}

func (c *Channel) dial() error {
	c.setStatus(StatusConnecting)

	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.log.Warn("dial %s failed: %v", c.url, err)
		c.setStatus(StatusDisconnected)
		c.scheduleReconnect()
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return errors.New("transport: channel closed")
	}
	c.gen++
	gen := c.gen
	c.conn = conn
	c.outgoing = make(chan []byte, sendBuffer)
	c.stop = make(chan struct{})
	c.attempts = 0
	outgoing, stop := c.outgoing, c.stop
	c.mu.Unlock()

	c.setStatus(StatusConnected)
	c.log.Info("connected to %s", c.url)

	go c.readPump(conn, gen)
	go c.writePump(conn, outgoing, stop)

	if c.identify != nil {
		if err := c.Send(c.identify()); err != nil {
			c.log.Warn("identify send failed: %v", err)
		}
	}
	return nil
}

// Send transmits an event. Fire-and-forget: there is no delivery
// acknowledgement at this layer, and a full buffer drops the event with a
// warning rather than blocking the caller.
func (c *Channel) Send(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal outbound event: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusConnected || c.outgoing == nil {
		return ErrNotConnected
	}
	select {
	case c.outgoing <- data:
		return nil
	default:
		c.log.Warn("send buffer full, dropping event")
		return nil
	}
}

// Status returns the last-known channel status.
func (c *Channel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Close tears the channel down and cancels any pending reconnect. The
// channel cannot be reopened.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.retry != nil {
		c.retry.Stop()
	}
	conn := c.conn
	stop := c.stop
	c.conn = nil
	c.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if conn != nil {
		conn.Close()
	}
	c.setStatus(StatusIdle)
	return nil
}

func (c *Channel) setStatus(s Status) {
	c.mu.Lock()
	if c.status == s || c.closed && s != StatusIdle {
		c.mu.Unlock()
		return
	}
	c.status = s
	fn := c.onStatus
	c.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}

func (c *Channel) readPump(conn *websocket.Conn, gen int) {
	defer c.disconnected(conn, gen)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("read error: %v", err)
			}
			return
		}

		ev, err := wire.Decode(data)
		if err != nil {
			// Malformed input never crosses this boundary.
			c.log.Debug("dropping malformed frame: %v", err)
			continue
		}
		if c.onEvent != nil {
			c.onEvent(ev)
		}
	}
}

func (c *Channel) writePump(conn *websocket.Conn, outgoing chan []byte, stop chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-stop:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case data := <-outgoing:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Warn("write error: %v", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// disconnected handles the end of a connection's read pump. Stale pumps
// from a superseded connection must not trigger another reconnect cycle.
func (c *Channel) disconnected(conn *websocket.Conn, gen int) {
	conn.Close()

	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	stop := c.stop
	c.stop = nil
	c.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	c.setStatus(StatusDisconnected)
	c.scheduleReconnect()
}

func (c *Channel) scheduleReconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.attempts >= c.policy.MaxAttempts {
		c.mu.Unlock()
		c.log.Error("reconnect attempts exhausted after %d tries", c.policy.MaxAttempts)
		c.setStatus(StatusExhausted)
		return
	}
	c.attempts++
	delay := c.policy.Delay(c.attempts)
	c.log.Info("reconnect attempt %d/%d in %s", c.attempts, c.policy.MaxAttempts, delay)
	c.retry = time.AfterFunc(delay, func() {
		_ = c.dial()
	})
	c.mu.Unlock()
}
