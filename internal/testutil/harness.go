package testutil

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/vk/widgetgrid/internal/ctxlog"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Context returns a background context carrying a debug-level text logger
// that writes to w.
func Context(w io.Writer) context.Context {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger)
}

// Transport records everything a broker sends.
type Transport struct {
	mu   sync.Mutex
	msgs []Message
}

// Broadcast records a message to every client.
func (t *Transport) Broadcast(channel string, payload []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = append(t.msgs, Message{Channel: channel, Payload: string(payload)})
}

// SendTo records a message to one client.
func (t *Transport) SendTo(clientID, channel string, payload []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = append(t.msgs, Message{To: clientID, Channel: channel, Payload: string(payload)})
}

// Messages returns every recorded message in order.
func (t *Transport) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.msgs)
}

// Broadcasts returns the broadcast messages in order.
func (t *Transport) Broadcasts() []Message {
	return t.filter(func(m Message) bool { return m.To == "" })
}

// SentTo returns the messages addressed to clientID in order.
func (t *Transport) SentTo(clientID string) []Message {
	return t.filter(func(m Message) bool { return m.To == clientID })
}

// Received returns what clientID observed: broadcasts plus its own messages.
func (t *Transport) Received(clientID string) []Message {
	return t.filter(func(m Message) bool { return m.To == "" || m.To == clientID })
}

// OnChannel returns the messages sent on channel in order.
func (t *Transport) OnChannel(channel string) []Message {
	return t.filter(func(m Message) bool { return m.Channel == channel })
}

// Reset forgets every message.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = nil
}

func (t *Transport) filter(keep func(Message) bool) []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Message
	for _, m := range t.msgs {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
