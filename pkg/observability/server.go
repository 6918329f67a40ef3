package observability

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Serve starts a metrics listener on addr exposing the default registry at
// path. It runs in a background goroutine and never blocks the caller; a
// listener failure is logged, not fatal, since metrics are best-effort for
// an interactive client.
func Serve(addr, path string) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	go func() {
		slog.Info("metrics listener starting", "addr", addr, "path", path)
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Warn("metrics listener failed", "error", err)
		}
	}()
}
