package webhook

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/apex/log"
)

// LegacyPath is the URL the webhook was first registered under in the
// Shopify admin. It stays mounted so existing subscriptions keep working.
const LegacyPath = "/api/shopify/webhook"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Routes mounts the webhook at path and LegacyPath, plus a /healthz probe,
// behind Middleware.
func Routes(h *Handler, health Pinger, path string, logger log.Interface) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(path, h)
	if path != LegacyPath {
		mux.Handle(LegacyPath, h)
	}
	mux.HandleFunc("/healthz", healthHandler(health))
	return Middleware(logger, mux)
}

func healthHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
			return
		}

		status, code := "ok", http.StatusOK
		if p != nil {
			if err := p.Ping(r.Context()); err != nil {
				if l := log.FromContext(r.Context()); l != nil {
					l.WithError(err).Error("Health check failed")
				}
				status, code = "unavailable", http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
