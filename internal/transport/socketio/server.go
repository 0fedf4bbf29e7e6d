// Package socketio carries broker traffic over socket.io. Every channel is a
// socket.io event name. Outbound payloads are JSON text; inbound ones may be
// JSON text or decoded values.
package socketio

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/vk/widgetgrid/internal/broker"
	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/wire"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

// Path is where the socket.io handler is mounted.
const Path = "/socket.io/"

// Dispatcher receives inbound traffic. *broker.Broker implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, clientID, channel string, payload []byte) error
	Connect(ctx context.Context, clientID string)
	Disconnect(ctx context.Context, clientID string)
}

var _ Dispatcher = (*broker.Broker)(nil)

// DefaultAckTimeout bounds the wait for a client to acknowledge a delivery.
const DefaultAckTimeout = 5 * time.Second

// Options configures the server.
type Options struct {
	// CORSOrigin is sent as Access-Control-Allow-Origin. Empty means "*".
	CORSOrigin string
	// AckTimeout bounds the wait for each delivery acknowledgement. Zero
	// selects DefaultAckTimeout.
	AckTimeout time.Duration
}

// Server is a socket.io endpoint that implements broker.Transport.
//
// Each connection gets a peer that emits one message at a time and waits
// for the client to acknowledge it before sending the next, so a client sees
// messages in the order the broker produced them. Inbound events of one
// connection are dispatched one at a time and acknowledged once handled.
type Server struct {
	io         *socket.Server
	ctx        context.Context
	d          Dispatcher
	ackTimeout time.Duration

	mu    sync.Mutex
	peers map[string]*peer
}

var _ broker.Transport = (*Server)(nil)

// NewServer creates the endpoint. Inbound events are ignored until Bind is
// called; ctx supplies the logger for every connection.
func NewServer(ctx context.Context, opts Options) *Server {
	origin := opts.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	ackTimeout := opts.AckTimeout
	if ackTimeout <= 0 {
		ackTimeout = DefaultAckTimeout
	}
	c := socket.DefaultServerOptions()
	c.SetServeClient(false)
	c.SetCors(&types.Cors{Origin: origin, Credentials: true})

	s := &Server{
		io:         socket.NewServer(nil, c),
		ctx:        ctx,
		ackTimeout: ackTimeout,
		peers:      make(map[string]*peer),
	}
	s.io.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		s.onConnection(client)
	})
	return s
}

// Bind attaches the dispatcher. It must be called before serving.
func (s *Server) Bind(d Dispatcher) {
	s.d = d
}

// Handler returns the HTTP handler to mount at Path.
func (s *Server) Handler() http.Handler {
	return s.io.ServeHandler(nil)
}

func (s *Server) onConnection(client *socket.Socket) {
	id := string(client.Id())
	ctx := ctxlog.With(s.ctx, "client", id)
	logger := ctxlog.FromContext(ctx)
	if s.d == nil {
		logger.Warn("Connection before the broker was bound, closing.")
		client.Disconnect(true)
		return
	}

	p := newPeer(client, s.ackTimeout)
	s.mu.Lock()
	s.peers[id] = p
	s.mu.Unlock()
	go p.run(ctx)

	s.d.Connect(ctx, id)

	client.OnAny(func(args ...any) {
		channel, payload, ack, err := inbound(args)
		if ack != nil {
			defer ack([]any{}, nil)
		}
		if channel == "" {
			return
		}
		if err != nil {
			logger.Warn("Event rejected.", "channel", channel, "error", err)
			return
		}
		// The library invokes listeners concurrently.
		p.inbound.Lock()
		defer p.inbound.Unlock()
		// Rejections are logged by the broker; clients get no error reply.
		_ = s.d.Dispatch(ctx, id, channel, payload)
	})

	client.On("disconnect", func(reason ...any) {
		s.mu.Lock()
		delete(s.peers, id)
		s.mu.Unlock()
		p.close()
		s.d.Disconnect(ctx, id)
	})
}

// inbound splits listener arguments into channel, payload and the optional
// acknowledgement callback.
func inbound(args []any) (string, []byte, socket.Ack, error) {
	var ack socket.Ack
	if n := len(args); n > 0 {
		if fn, ok := args[n-1].(socket.Ack); ok {
			ack = fn
			args = args[:n-1]
		}
	}
	if len(args) == 0 {
		return "", nil, ack, nil
	}
	channel, ok := args[0].(string)
	if !ok {
		return "", nil, ack, nil
	}
	var arg any
	if len(args) > 1 {
		arg = args[1]
	}
	payload, err := wire.Normalize(arg)
	return channel, payload, ack, err
}

// Broadcast queues payload on channel for every connected client. Payloads
// travel as JSON text.
func (s *Server) Broadcast(channel string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.peers {
		p.push(channel, payload)
	}
}

// SendTo queues payload on channel for one client. Unknown clients are
// ignored.
func (s *Server) SendTo(clientID, channel string, payload []byte) {
	s.mu.Lock()
	p, ok := s.peers[clientID]
	s.mu.Unlock()
	if !ok {
		ctxlog.FromContext(s.ctx).Debug("Dropped message for a client that is gone.", "client", clientID, "channel", channel)
		return
	}
	p.push(channel, payload)
}

// Close disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	for id, p := range s.peers {
		p.close()
		delete(s.peers, id)
	}
	s.mu.Unlock()
	s.io.Close(nil)
}
