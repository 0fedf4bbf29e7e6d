package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/vk/widgetgrid/internal/broker"
	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/persist"
	"github.com/vk/widgetgrid/internal/transport/socketio"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// Run serves until ctx is cancelled or a component fails. Queued session
// writes are drained before it returns.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	cfg := a.config

	sessions, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			a.logger.Error("Failed to close session store.", "error", err)
		}
	}()

	writer := persist.New(sessions, persist.Options{
		QueueSize:  cfg.Engine.PersistQueue,
		MaxRetries: cfg.Engine.PersistRetries,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return writer.Run(gctx) })
	abort := func(err error) error {
		cancel()
		_ = g.Wait()
		return err
	}

	if err := applySeeds(gctx, cfg.Seeds, sessions, writer); err != nil {
		return abort(err)
	}

	srv := socketio.NewServer(gctx, socketio.Options{CORSOrigin: cfg.Server.CORSOrigin})
	b := broker.New(a.registry, sessions, writer, srv, broker.Options{MaxCascadeDepth: cfg.Engine.MaxCascadeDepth})
	srv.Bind(b)
	g.Go(func() error { return b.Run(gctx) })

	mux := http.NewServeMux()
	mux.Handle(socketio.Path, srv.Handler())
	(&sessionRoutes{store: sessions}).register(mux)
	hs := &http.Server{
		Handler:     mux,
		BaseContext: func(net.Listener) context.Context { return gctx },
	}

	ln, err := net.Listen("tcp", cfg.Server.Listen)
	if err != nil {
		srv.Close()
		return abort(zerr.With(zerr.Wrap(err, "listen"), "address", cfg.Server.Listen))
	}
	a.setAddr(ln.Addr().String())
	a.logger.Info("🚀 Widget engine listening.", "address", ln.Addr().String(), "path", socketio.Path)
	g.Go(func() error { return serve(hs, ln) })

	var health *http.Server
	if a.health > 0 {
		health = healthServer(a.logger, a.health, writer)
		a.logger.Info("🩺 Health check server starting", "address", health.Addr)
		g.Go(func() error { return serve(health, nil) })
	} else {
		a.logger.Debug("Health check server not started: disabled")
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down.")
		srv.Close()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		err := hs.Shutdown(sctx)
		if health != nil {
			err = errors.Join(err, health.Shutdown(sctx))
		}
		return err
	})

	err = g.Wait()
	a.logger.Debug("App.Run method finished.", "error", err)
	return err
}

// serve runs s on ln, or on s.Addr when ln is nil. A graceful shutdown is
// not an error.
func serve(s *http.Server, ln net.Listener) error {
	var err error
	if ln != nil {
		err = s.Serve(ln)
	} else {
		err = s.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
