package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/widgetgrid/internal/app"
	"github.com/vk/widgetgrid/internal/cli"
	"github.com/vk/widgetgrid/internal/config"
	"github.com/vk/widgetgrid/internal/hcl"
	"github.com/vk/widgetgrid/internal/yamlconfig"
)

// main is the entrypoint for the widgetgrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The real main function handles errors and exit codes.
	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			stop()
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW io.Writer, args []string) (err error) {
	cmd, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	if cmd.Watch != nil {
		return app.Watch(ctx, outW, cmd.Watch)
	}

	// The app panics on critical config errors, so we recover here to provide
	// a clean error to the user.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	loader := config.Chain{hcl.NewLoader(), yamlconfig.NewLoader()}
	widgetgrid := app.NewApp(outW, cmd.Serve, loader)

	return widgetgrid.Run(ctx)
}
