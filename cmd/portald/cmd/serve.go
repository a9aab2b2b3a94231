package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	portalAuth "github.com/MrEthical07/portalAuth"
	"github.com/MrEthical07/portalAuth/directory/bundir"
	"github.com/MrEthical07/portalAuth/httpapi"
	otelexport "github.com/MrEthical07/portalAuth/metrics/export/otel"
	promexport "github.com/MrEthical07/portalAuth/metrics/export/prometheus"
	"github.com/MrEthical07/portalAuth/middleware"
	"github.com/MrEthical07/portalAuth/permission"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portal authentication server",
	Long:  `Starts the HTTP server with the login, logout and whoami endpoints behind the session gateway.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(settings)
		ctx := cmd.Context()

		db, err := bundir.Open(ctx, settings.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		table := permission.DefaultPortalTable()
		dir := bundir.New(db, table)
		if err := dir.EnsureSchema(ctx); err != nil {
			return err
		}
		logger.Info("connected to account store", "driver", bundir.DetectDatabaseType(settings.DatabaseURL))

		engineCfg, err := settings.EngineConfig()
		if err != nil {
			return err
		}

		builder := portalAuth.New().
			WithConfig(engineCfg).
			WithDirectory(dir).
			WithPermissionTable(table).
			WithLogger(logger)
		if settings.Audit {
			builder = builder.WithAuditSink(portalAuth.NewSlogSink(logger.With("component", "audit")))
		}
		if settings.RedisAddr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: settings.RedisAddr})
			defer rdb.Close()
			if err := rdb.Ping(ctx).Err(); err != nil {
				logger.Warn("redis unavailable, login throttle will fail open", "addr", settings.RedisAddr, "error", err)
			}
			builder = builder.WithRedis(rdb)
		}

		engine, err := builder.Build()
		if err != nil {
			return fmt.Errorf("build engine: %w", err)
		}
		defer engine.Close()

		report := engine.SecurityReport()
		for _, w := range report.Warnings {
			logger.Warn("security posture", "warning", w)
		}

		otelExp, err := otelexport.NewExporter(otel.Meter("github.com/MrEthical07/portalAuth/cmd/portald"), engine)
		if err != nil {
			return fmt.Errorf("register otel metrics: %w", err)
		}
		defer otelExp.Close()

		corsOpts := httpapi.DefaultCORSOptions()
		corsOpts.AllowedOrigins = settings.Origins()

		r := httpapi.NewRouter(httpapi.RouterOptions{
			Engine:         engine,
			CORSOptions:    &corsOpts,
			MetricsHandler: promexport.NewCollector(engine, nil).Handler(),
			HealthHandler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				fmt.Fprintf(w, `{"status":"ok","throttle":%t}`, report.RateLimitingActive)
			},
			ExtraRoutes:       portalRoutes(engine),
			TrustProxyHeaders: settings.TrustProxyHeaders,
		})

		srv := &http.Server{
			Addr:         settings.ServerAddr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
			ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting server", "addr", settings.ServerAddr, "production", report.ProductionMode)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			logger.Info("server stopped")
			return nil
		}
	},
}

// portalRoutes mounts placeholder portal endpoints. Page rendering belongs to
// the SPA; these only echo the principal the gateway attached.
func portalRoutes(engine *portalAuth.Engine) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/dashboard", principalHandler)
		r.With(middleware.RequireAuthenticated()).Get("/api/session", principalHandler)
		r.With(middleware.RequirePermission(engine, permission.ResourceSettings, permission.ActionManage)).Get("/api/admin/summary", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, engine.SecurityReport())
		})
		r.With(middleware.RequirePermission(engine, permission.ResourceFacultyProfile, permission.ActionRead)).
			Get("/api/faculty/me", principalHandler)
	}
}

func principalHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := portalAuth.PrincipalFromContext(r.Context())
	if !ok {
		// The loop breaker passed the request through without a session.
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "principal": p})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
