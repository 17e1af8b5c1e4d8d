package healthcheck

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// StatusFunc returns the payload served at /healthz. It must be safe to call
// from multiple goroutines.
type StatusFunc func() any

func NormalizeListen(listen string) string {
	return strings.TrimSpace(listen)
}

func StartServer(ctx context.Context, logger *slog.Logger, listen string, component string, status StatusFunc) (*http.Server, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"status":    "online",
			"component": component,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if status != nil {
			payload["bot"] = status()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	})

	server := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Warn("health_server_error", "component", component, "addr", listen, "error", err.Error())
			}
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = server.Shutdown(shutdownCtx)
		cancel()
	}()
	if logger != nil {
		logger.Info("health_server_start", "component", component, "addr", listen)
	}
	return server, nil
}
