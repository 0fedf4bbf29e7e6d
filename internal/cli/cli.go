package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/vk/widgetgrid/internal/app"
)

// EnvPrefix prefixes the environment variables that provide flag defaults.
const EnvPrefix = "WIDGETGRID_"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Command is the parsed command line. Exactly one field is set.
type Command struct {
	Serve *app.Config
	Watch *app.WatchConfig
}

// Parse processes command-line arguments. It returns the command to run, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Command, bool, error) {
	slog.Debug("CLI parser started.")
	var cmd *Command
	root := newRootCommand(func(c *Command) { cmd = c })
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(output)
	root.SetErr(output)

	if err := root.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if cmd == nil {
		slog.Debug("No command selected, exiting.")
		return nil, true, nil
	}
	slog.Debug("CLI parser finished successfully.")
	return cmd, false, nil
}

func newRootCommand(selected func(*Command)) *cobra.Command {
	root := &cobra.Command{
		Use:   "widgetgrid",
		Short: "widgetgrid - a reactive widget-graph engine with real-time sync.",
		Long: `widgetgrid runs a graph of widgets whose outputs flow along connections,
and keeps every connected client in sync over socket.io.

Every flag can also be set with a WIDGETGRID_<FLAG> environment variable
(dashes become underscores), read from the environment or from --env-file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().String("env-file", ".env", "Path to a dotenv file with WIDGETGRID_* defaults. Missing files are ignored.")
	root.PersistentFlags().String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	root.PersistentFlags().String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return loadEnv(cmd.Flags())
	}

	root.AddCommand(newServeCommand(selected), newWatchCommand(selected))
	return root
}

func newServeCommand(selected func(*Command)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine and serve clients.",
		Args:  cobra.NoArgs,
	}
	f := cmd.Flags()
	f.StringSliceP("config", "c", nil, "Config file or directory (.hcl, .yaml, .yml). Repeatable.")
	f.String("listen", "", "Listen address for the socket.io and HTTP endpoints (default \":4000\").")
	f.String("cors-origin", "", "Allowed CORS origin for socket.io (default \"*\").")
	f.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	f.String("store", "", "Session store backend. Options: 'memory' or 'redis' (default \"memory\").")
	f.String("redis-url", "", "Redis URL used by the redis store, e.g. redis://localhost:6379/0.")
	f.Int("max-cascade-depth", 0, "Maximum propagation depth of one change (default 64).")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		logFormat, logLevel, err := logFlags(cmd.Flags())
		if err != nil {
			return err
		}
		paths, _ := f.GetStringSlice("config")
		listen, _ := f.GetString("listen")
		cors, _ := f.GetString("cors-origin")
		health, _ := f.GetInt("healthcheck-port")
		store, _ := f.GetString("store")
		redisURL, _ := f.GetString("redis-url")
		depth, _ := f.GetInt("max-cascade-depth")

		cfg, err := app.NewConfig(app.Config{
			ConfigPaths:     paths,
			Listen:          listen,
			CORSOrigin:      cors,
			Store:           strings.ToLower(store),
			RedisURL:        redisURL,
			MaxCascadeDepth: depth,
			LogFormat:       logFormat,
			LogLevel:        logLevel,
			HealthcheckPort: health,
		})
		if err != nil {
			return &ExitError{Code: 2, Message: err.Error()}
		}
		selected(&Command{Serve: cfg})
		return nil
	}
	return cmd
}

func newWatchCommand(selected func(*Command)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect to a running server and print every message it sends.",
		Args:  cobra.NoArgs,
	}
	f := cmd.Flags()
	f.String("url", "http://localhost:4000", "Server URL.")
	f.String("session", "", "Load this session instead of bootstrapping the current graph.")
	f.Bool("insecure", false, "Skip TLS certificate verification.")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		logFormat, logLevel, err := logFlags(cmd.Flags())
		if err != nil {
			return err
		}
		url, _ := f.GetString("url")
		session, _ := f.GetString("session")
		insecure, _ := f.GetBool("insecure")
		if url == "" {
			return &ExitError{Code: 2, Message: "url cannot be empty"}
		}
		selected(&Command{Watch: &app.WatchConfig{
			URL:                url,
			Session:            session,
			InsecureSkipVerify: insecure,
			LogFormat:          logFormat,
			LogLevel:           logLevel,
		}})
		return nil
	}
	return cmd
}

func logFlags(f *pflag.FlagSet) (format, level string, err error) {
	format, _ = f.GetString("log-format")
	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return "", "", &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	level, _ = f.GetString("log-level")
	level = strings.ToLower(level)
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return "", "", &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	return format, level, nil
}

// loadEnv reads the dotenv file into the process environment without
// overriding variables that are already set, then uses WIDGETGRID_* values
// for every flag not given on the command line.
func loadEnv(f *pflag.FlagSet) error {
	envFile, _ := f.GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &ExitError{Code: 2, Message: fmt.Sprintf("failed to read env file %s: %v", envFile, err)}
		}
	}

	var err error
	f.VisitAll(func(fl *pflag.Flag) {
		if err != nil || fl.Changed || fl.Name == "env-file" || fl.Name == "help" {
			return
		}
		v, ok := os.LookupEnv(envName(fl.Name))
		if !ok {
			return
		}
		if setErr := f.Set(fl.Name, v); setErr != nil {
			err = &ExitError{Code: 2, Message: fmt.Sprintf("invalid %s: %v", envName(fl.Name), setErr)}
		}
	})
	return err
}

func envName(flag string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}
