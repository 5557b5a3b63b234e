package server

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/codequiz/internal/config"
	httperrors "github.com/gokatarajesh/codequiz/pkg/http/errors"
)

// NewUpgrader returns a WebSocket upgrader that accepts same-host requests
// and the configured CORS origins.
func NewUpgrader(cors config.CORS) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed(cors.AllowedOrigins, origin) || strings.HasSuffix(origin, "://"+r.Host)
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// NewRouter wires the health, metrics, session and WebSocket routes.
func NewRouter(cfg *config.App, logger zerolog.Logger, gatherer prometheus.Gatherer, sessions *SessionHandlers, sessionWS *SessionWSHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /v1/sessions", sessions.Create)
	mux.HandleFunc("GET /v1/sessions/{id}", sessions.Get)
	mux.HandleFunc("DELETE /v1/sessions/{id}", sessions.Delete)
	mux.HandleFunc("POST /v1/sessions/{id}/answer", sessions.Answer)
	mux.HandleFunc("POST /v1/sessions/{id}/advance", sessions.Advance)
	mux.HandleFunc("POST /v1/sessions/{id}/restart", sessions.Restart)

	mux.HandleFunc("GET /ws/sessions/{id}", sessionWS.HandleWebSocket)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Route not found")
	})

	logger.Debug().Msg("http routes registered")
	return withCORS(cfg.CORS, mux)
}

// NewHTTPServer builds the API server around NewRouter.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, gatherer prometheus.Gatherer, sessions *SessionHandlers, sessionWS *SessionWSHandler) *http.Server {
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: NewRouter(cfg, logger, gatherer, sessions, sessionWS),
	}
}

func withCORS(cfg config.CORS, next http.Handler) http.Handler {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && originAllowed(cfg.AllowedOrigins, origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			h.Set("Access-Control-Max-Age", maxAge)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}
