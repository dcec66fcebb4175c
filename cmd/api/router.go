package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/card-alert-ledger/pkg/interceptors"
	"github.com/FACorreiaa/card-alert-ledger/pkg/observability"
)

// SetupRouter configures all routes and returns the HTTP handler
func SetupRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	authCfg := interceptors.AuthConfig{
		JWTSecret:  []byte(deps.Config.Auth.JWTSecret),
		APIKeyHash: []byte(deps.Config.Auth.APIKeyHash),
	}
	if !authCfg.Enabled() {
		deps.Logger.Warn("no jwt secret or api key hash configured; ingest routes are unauthenticated")
	}

	var limiter *rate.Limiter
	if deps.Config.Server.RateLimitPerSecond > 0 && deps.Config.Server.RateLimitBurst > 0 {
		limiter = rate.NewLimiter(
			rate.Limit(deps.Config.Server.RateLimitPerSecond),
			deps.Config.Server.RateLimitBurst,
		)
	}

	protected := []interceptors.Middleware{
		interceptors.RateLimit(limiter),
		interceptors.Auth(authCfg),
	}

	// Register notification routes
	for _, route := range deps.NotificationHandler.Routes() {
		h := route.Handler
		if route.Protected {
			h = interceptors.Chain(h, protected...)
		}
		mux.Handle(route.Pattern, observability.Instrument(route.Pattern, h))
		deps.Logger.Info("registered route", slog.String("pattern", route.Pattern), slog.Bool("protected", route.Protected))
	}

	// Register health and metrics routes
	registerUtilityRoutes(mux, deps)

	tracer := otel.GetTracerProvider().Tracer(deps.Config.Observability.ServiceName)
	handler := interceptors.Chain(mux,
		interceptors.RequestID("X-Request-ID"),
		interceptors.Tracing(tracer),
		interceptors.Recovery(deps.Logger),
		interceptors.Logging(deps.Logger),
		limitBody(deps.Config.Server.MaxBodyBytes),
	)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           7200, // Cache preflights for 2 hours
	})

	return corsHandler.Handler(handler)
}

// limitBody caps request bodies and disables caching of responses.
func limitBody(maxBodyBytes int64) interceptors.Middleware {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20 // 1 MiB
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			w.Header().Set("X-Content-Type-Options", "nosniff")

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// registerUtilityRoutes registers health check, metrics, and other utility routes
func registerUtilityRoutes(mux *http.ServeMux, deps *Dependencies) {
	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := deps.Health(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, writeErr := w.Write([]byte("database unhealthy")); writeErr != nil {
				deps.Logger.Error("failed to write health response", slog.Any("error", writeErr))
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			deps.Logger.Error("failed to write health response", slog.Any("error", err))
		}
	})
	deps.Logger.Info("registered health check", "path", "/health")

	// Extended health with details on dependencies
	mux.HandleFunc("GET /health/details", func(w http.ResponseWriter, r *http.Request) {
		type status struct {
			Status string `json:"status"`
			Detail string `json:"detail,omitempty"`
		}
		result := map[string]status{
			"db":    {Status: "ok", Detail: deps.Config.Database.Driver},
			"auth":  {Status: "ok"},
			"ready": {Status: "ok"},
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := deps.Health(ctx); err != nil {
			result["db"] = status{Status: "fail", Detail: err.Error()}
			result["ready"] = status{Status: "fail", Detail: "db unavailable"}
		}

		if deps.Config.Auth.JWTSecret == "" && deps.Config.Auth.APIKeyHash == "" {
			result["auth"] = status{Status: "warn", Detail: "ingest routes are unauthenticated"}
		}

		code := http.StatusOK
		if result["ready"].Status == "fail" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(result); err != nil {
			deps.Logger.Error("failed to encode health details", slog.Any("error", err))
		}
	})
	deps.Logger.Info("registered health details", "path", "/health/details")

	// Readiness check endpoint
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ready")); err != nil {
			deps.Logger.Error("failed to write readiness response", slog.Any("error", err))
		}
	})
	deps.Logger.Info("registered readiness check", "path", "/ready")

	// Metrics endpoint (Prometheus)
	if deps.Config.Observability.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
		deps.Logger.Info("registered metrics endpoint", "path", "/metrics")
	}
}
