package broker

import (
	"context"
	"sync"
)

// Transport delivers payloads to connected clients.
type Transport interface {
	// Broadcast sends payload on channel to every connected client.
	Broadcast(channel string, payload []byte)
	// SendTo sends payload on channel to one client.
	SendTo(clientID, channel string, payload []byte)
}

type envelope struct {
	to      string
	channel string
	payload []byte
	// done marks a flush barrier instead of a message.
	done chan struct{}
}

// outbox is an unbounded FIFO between the apply lock and the transport.
type outbox struct {
	tr Transport

	mu    sync.Mutex
	queue []envelope
	wake  chan struct{}
}

func newOutbox(tr Transport) *outbox {
	return &outbox{tr: tr, wake: make(chan struct{}, 1)}
}

func (o *outbox) broadcast(channel string, payload []byte) {
	o.push(envelope{channel: channel, payload: payload})
}

func (o *outbox) sendTo(clientID, channel string, payload []byte) {
	o.push(envelope{to: clientID, channel: channel, payload: payload})
}

func (o *outbox) push(e envelope) {
	o.mu.Lock()
	o.queue = append(o.queue, e)
	o.mu.Unlock()

	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// run delivers messages until ctx is done, then delivers what is left.
func (o *outbox) run(ctx context.Context) {
	for {
		select {
		case <-o.wake:
			o.deliver()
		case <-ctx.Done():
			o.deliver()
			return
		}
	}
}

func (o *outbox) deliver() {
	for {
		o.mu.Lock()
		batch := o.queue
		o.queue = nil
		o.mu.Unlock()
		if len(batch) == 0 {
			return
		}

		for _, e := range batch {
			switch {
			case e.done != nil:
				close(e.done)
			case e.to == "":
				o.tr.Broadcast(e.channel, e.payload)
			default:
				o.tr.SendTo(e.to, e.channel, e.payload)
			}
		}
	}
}

// flush waits until every message queued before the call was delivered.
func (o *outbox) flush(ctx context.Context) error {
	done := make(chan struct{})
	o.push(envelope{done: done})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
