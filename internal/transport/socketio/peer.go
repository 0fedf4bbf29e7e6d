package socketio

import (
	"context"
	"sync"
	"time"

	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/zishang520/socket.io/v2/socket"
)

type outbound struct {
	channel string
	payload string
}

// peer serializes the traffic of one connection.
type peer struct {
	sock       *socket.Socket
	ackTimeout time.Duration

	// inbound is held while an event of this connection is dispatched.
	inbound sync.Mutex

	mu     sync.Mutex
	queue  []outbound
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

func newPeer(sock *socket.Socket, ackTimeout time.Duration) *peer {
	return &peer{
		sock:       sock,
		ackTimeout: ackTimeout,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

func (p *peer) push(channel string, payload []byte) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.queue = append(p.queue, outbound{channel: channel, payload: string(payload)})
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *peer) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.queue = nil
	close(p.done)
}

func (p *peer) next() (outbound, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return outbound{}, false
	}
	m := p.queue[0]
	p.queue = p.queue[1:]
	return m, true
}

// run emits queued messages in order until the peer is closed.
func (p *peer) run(ctx context.Context) {
	for {
		m, ok := p.next()
		if !ok {
			select {
			case <-p.wake:
				continue
			case <-p.done:
				return
			}
		}
		if !p.emit(ctx, m) {
			return
		}
	}
}

// emit sends one message and waits for its acknowledgement. A missing
// acknowledgement is logged and the next message is sent anyway.
func (p *peer) emit(ctx context.Context, m outbound) bool {
	acked := make(chan error, 1)
	err := p.sock.Timeout(p.ackTimeout).Emit(m.channel, m.payload, socket.Ack(func(_ []any, err error) {
		select {
		case acked <- err:
		default:
		}
	}))
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to emit message.", "channel", m.channel, "error", err)
		return true
	}

	select {
	case err := <-acked:
		if err != nil {
			ctxlog.FromContext(ctx).Debug("Delivery not acknowledged.", "channel", m.channel, "error", err)
		}
		return true
	case <-p.done:
		return false
	}
}
