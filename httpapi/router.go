package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	portalAuth "github.com/MrEthical07/portalAuth"
	"github.com/MrEthical07/portalAuth/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions controls the construction of the portal HTTP router.
// Engine is required; everything else has a default.
type RouterOptions struct {
	Engine         *portalAuth.Engine
	CORSOptions    *cors.Options
	GatewayOptions []middleware.Option
	// Middleware runs after CORS and before the gateway.
	Middleware    []func(http.Handler) http.Handler
	HealthHandler http.HandlerFunc
	// MetricsHandler, when set, is mounted at /metrics.
	MetricsHandler http.Handler
	// ExtraRoutes mounts the portal's own pages and APIs behind the gateway.
	ExtraRoutes func(chi.Router)
	// TrustProxyHeaders rewrites RemoteAddr from X-Forwarded-For / X-Real-IP.
	// Enable it only behind a proxy that overwrites those headers; otherwise
	// clients pick the address the login throttle and audit log key on.
	TrustProxyHeaders bool
}

// DefaultCORSOptions returns the development policy for the portal SPA.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-Id",
			"X-Auth-Redirect-Count",
		},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// NewRouter assembles a chi.Router with the shared middleware, the session
// gateway and the login, logout and whoami endpoints.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if opts.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(requestLogger(opts.Engine.Logger()))
	r.Use(chimw.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Use(middleware.Gateway(opts.Engine, opts.GatewayOptions...))

	cfg := opts.Engine.GatewayConfig()
	r.Post(cfg.LoginPath, HandleLogin(opts.Engine))
	r.Post(cfg.LogoutPath, HandleLogout(opts.Engine))
	r.Get(cfg.WhoAmIPath, HandleWhoAmI(opts.Engine))

	health := opts.HealthHandler
	if health == nil {
		health = defaultHealthHandler
	}
	r.Get("/api/health", health)

	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	if opts.ExtraRoutes != nil {
		opts.ExtraRoutes(r)
	}

	return r
}

// requestLogger logs one record per request through the engine logger, which
// adds the request and auth groups from context.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.LogAttrs(r.Context(), slog.LevelDebug, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}
