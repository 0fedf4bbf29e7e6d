// Package client is a socket.io client of the widget graph. It keeps a
// mirror of the server state up to date and lets callers send events.
package client

import (
	"context"
	"crypto/tls"
	"net/url"
	"sync"
	"time"

	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/mirror"
	"github.com/vk/widgetgrid/internal/wire"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
	sio "github.com/zishang520/socket.io/v2/socket"
	"go.trai.ch/zerr"
)

const (
	// DefaultConnectTimeout bounds Dial when the context has no deadline.
	DefaultConnectTimeout = 15 * time.Second
	// DefaultAckTimeout bounds the wait for the server to acknowledge a send.
	DefaultAckTimeout = 10 * time.Second
)

var (
	// ErrConnect is returned when the connection cannot be established.
	ErrConnect = zerr.New("socket.io connection failed")
	// ErrClosed is returned when sending on a closed client.
	ErrClosed = zerr.New("client closed")
	// ErrNotAcknowledged is returned when the server does not acknowledge a
	// send in time.
	ErrNotAcknowledged = zerr.New("event not acknowledged")
)

// Options configures Dial.
type Options struct {
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
	// AckTimeout bounds each Send. Zero selects DefaultAckTimeout.
	AckTimeout time.Duration
}

// Handler observes every message after it was applied to the mirror. err is
// the mirror's verdict on the message.
type Handler func(channel string, payload []byte, err error)

// Client is a connected socket.io client.
//
// Sends are serialized: each one waits for the server to acknowledge it, so
// the server handles them in the order they were made. Every received
// message is acknowledged once it has been applied.
type Client struct {
	io         *socket.Socket
	mirror     *mirror.Mirror
	ackTimeout time.Duration

	sendMu sync.Mutex
	done   chan struct{}

	mu      sync.Mutex
	handler Handler
	closed  bool
}

// Dial connects to serverURL and waits for the handshake.
func Dial(ctx context.Context, serverURL string, opts Options) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("url", serverURL)

	parsed, err := url.Parse(serverURL)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrConnect, "parse url"), "url", serverURL)
	}

	o := socket.DefaultOptions()
	if parsed.Path != "" && parsed.Path != "/" {
		o.SetPath(parsed.Path)
	}
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		o.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	o.SetTransports(types.NewSet(transports.WebSocket))

	base := parsed.Scheme + "://" + parsed.Host
	io := socket.NewManager(base, o).Socket("/", o)
	ackTimeout := opts.AckTimeout
	if ackTimeout <= 0 {
		ackTimeout = DefaultAckTimeout
	}
	c := &Client{io: io, mirror: mirror.New(), ackTimeout: ackTimeout, done: make(chan struct{})}

	io.OnAny(func(args ...any) {
		var ack sio.Ack
		if n := len(args); n > 0 {
			if fn, ok := args[n-1].(sio.Ack); ok {
				ack = fn
				args = args[:n-1]
			}
		}
		if ack != nil {
			defer ack([]any{}, nil)
		}
		if len(args) == 0 {
			return
		}
		channel, ok := args[0].(string)
		if !ok {
			return
		}
		var arg any
		if len(args) > 1 {
			arg = args[1]
		}
		c.receive(ctx, channel, arg)
	})

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var cause error = ErrConnect
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				cause = e
			}
		}
		connected <- cause
	})

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	io.Connect()
	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, zerr.With(zerr.Wrap(ErrConnect, err.Error()), "url", serverURL)
		}
	case <-waitCtx.Done():
		io.Disconnect()
		return nil, zerr.With(zerr.Wrap(ErrConnect, "timed out waiting for connection"), "url", serverURL)
	}
	logger.Info("Connected.", "sid", io.Id())
	return c, nil
}

func (c *Client) receive(ctx context.Context, channel string, arg any) {
	payload, err := wire.Normalize(arg)
	if err == nil {
		err = c.mirror.Apply(channel, payload)
	}
	if err != nil {
		ctxlog.FromContext(ctx).Debug("Message not applied to mirror.", "channel", channel, "error", err)
	}

	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	if h != nil {
		h(channel, payload, err)
	}
}

// OnMessage installs h, replacing any previous handler.
func (c *Client) OnMessage(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// Mirror returns the client-side copy of the graph.
func (c *Client) Mirror() *mirror.Mirror {
	return c.mirror
}

// Send emits v on channel and waits for the server to acknowledge it.
// Strings are sent as is, anything else as a JSON value.
func (c *Client) Send(channel string, v any) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return zerr.With(zerr.Wrap(ErrClosed, "send"), "channel", channel)
	}

	acked := make(chan error, 1)
	err := c.io.Timeout(c.ackTimeout).Emit(channel, v, sio.Ack(func(_ []any, err error) {
		select {
		case acked <- err:
		default:
		}
	}))
	if err != nil {
		return zerr.With(zerr.Wrap(err, "send"), "channel", channel)
	}

	select {
	case err := <-acked:
		if err != nil {
			return zerr.With(zerr.Wrap(ErrNotAcknowledged, err.Error()), "channel", channel)
		}
		return nil
	case <-c.done:
		return zerr.With(zerr.Wrap(ErrClosed, "send"), "channel", channel)
	}
}

// Bootstrap asks the server for the current graph.
func (c *Client) Bootstrap() error {
	return c.Send(wire.NodesChannel, wire.InitRequest)
}

// Replay asks the server for the compacted event log.
func (c *Client) Replay() error {
	return c.Send(wire.NodesChannel, wire.ReplayRequest)
}

// LoadSession asks the server to make sessionID current.
func (c *Client) LoadSession(sessionID string) error {
	return c.Send(wire.LoadSessionChannel, map[string]any{wire.FieldSessionID: sessionID})
}

// Close disconnects. It is safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	c.io.Disconnect()
}
