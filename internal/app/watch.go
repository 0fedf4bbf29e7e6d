package app

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/vk/widgetgrid/internal/client"
	"github.com/vk/widgetgrid/internal/ctxlog"
)

// WatchConfig configures the watch command.
type WatchConfig struct {
	URL string
	// Session, when set, is loaded instead of bootstrapping the current graph.
	Session            string
	InsecureSkipVerify bool

	LogFormat string
	LogLevel  string
}

// Watch connects to a running server and prints every message it receives
// as "<channel> <payload>" lines on outW until ctx is cancelled.
func Watch(ctx context.Context, outW io.Writer, cfg *WatchConfig) error {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)

	c, err := client.Dial(ctx, cfg.URL, client.Options{InsecureSkipVerify: cfg.InsecureSkipVerify})
	if err != nil {
		return err
	}
	defer c.Close()

	var mu sync.Mutex
	c.OnMessage(func(channel string, payload []byte, err error) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(outW, "%s %s\n", channel, payload)
		if err != nil {
			logger.Warn("Message does not apply to the local mirror.", "channel", channel, "error", err)
		}
	})

	if cfg.Session != "" {
		err = c.LoadSession(cfg.Session)
	} else {
		err = c.Bootstrap()
	}
	if err != nil {
		return err
	}

	<-ctx.Done()
	s := c.Mirror().State()
	logger.Info("Watch finished.", "nodes", len(s.Nodes), "connections", len(s.Edges))
	return nil
}
