package app

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/widgetgrid/internal/config"
	"github.com/vk/widgetgrid/internal/registry"
	"github.com/vk/widgetgrid/internal/testutil"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer = testutil.SafeBuffer

// SetupAppTest creates a new app instance for system testing. Logs are
// captured at debug level and dumped when WIDGETGRID_TEST_LOGS is "true".
func SetupAppTest(t *testing.T, appConfig *Config, loader config.Loader, modules ...registry.Module) (*App, *SafeBuffer) {
	t.Helper()

	logBuffer := &SafeBuffer{}
	appConfig.LogLevel = "debug"
	if appConfig.Listen == "" {
		appConfig.Listen = "127.0.0.1:0"
	}
	testApp := NewApp(logBuffer, appConfig, loader, modules...)

	t.Cleanup(func() {
		if os.Getenv("WIDGETGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}

// StartAppTest runs a in the background and returns its base URL. The app
// is stopped and its error checked when the test ends.
func StartAppTest(t *testing.T, a *App) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	wctx, wcancel := context.WithTimeout(ctx, 5*time.Second)
	defer wcancel()
	addr, err := a.Addr(wctx)
	require.NoError(t, err, "app did not start listening")

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("app did not stop")
		}
	})
	return "http://" + addr
}
