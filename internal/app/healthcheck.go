package app

import (
	"fmt"
	"log/slog"
	"net/http"
)

// healthChecker reports whether persistence is keeping up.
type healthChecker interface {
	Degraded() bool
}

// healthHandler answers 200 OK, or 503 DEGRADED while session writes are
// failing or being dropped.
func healthHandler(logger *slog.Logger, hc healthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
		if hc.Degraded() {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintln(w, "DEGRADED")
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	}
}

// healthServer builds the health check HTTP server for port.
func healthServer(logger *slog.Logger, port int, hc healthChecker) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler(logger, hc))
	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
}
