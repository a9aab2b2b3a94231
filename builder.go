package portalAuth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/portalAuth/internal/audit"
	"github.com/MrEthical07/portalAuth/internal/flows"
	"github.com/MrEthical07/portalAuth/internal/logctx"
	"github.com/MrEthical07/portalAuth/internal/rate"
	"github.com/MrEthical07/portalAuth/jwt"
	"github.com/MrEthical07/portalAuth/password"
	"github.com/MrEthical07/portalAuth/permission"
	"github.com/MrEthical07/portalAuth/route"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder is single-use: Build succeeds at most once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	directory UserDirectory
	hasher    PasswordHasher
	table     *permission.Table

	auditSink AuditSink
	logger    *slog.Logger
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration with a private copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithDirectory sets the account store. Required.
func (b *Builder) WithDirectory(d UserDirectory) *Builder {
	b.directory = d
	return b
}

// WithHasher overrides the Argon2id hasher derived from Config.Password.
func (b *Builder) WithHasher(h PasswordHasher) *Builder {
	b.hasher = h
	return b
}

// WithPermissionTable overrides [permission.DefaultPortalTable].
func (b *Builder) WithPermissionTable(t *permission.Table) *Builder {
	b.table = t
	return b
}

// WithRedis enables the login throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the audit destination. Audit must also be enabled in Config.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine logger. The default discards.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock overrides time.Now for token issue and verification. Tests only.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the gateway latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.directory == nil {
		return nil, errors.New("user directory required")
	}

	// -------- PERMISSION TABLE --------
	table := b.table
	if table == nil {
		table = permission.DefaultPortalTable()
	}
	for _, role := range table.Roles() {
		if _, ok := ParseRole(role); !ok {
			return nil, fmt.Errorf("%w: permission table names %q", ErrUnknownRole, role)
		}
	}

	// -------- ROUTE TABLE --------
	routes, err := route.NewTable(route.Config{
		Rules:     cfg.Routes.Rules,
		APIPrefix: cfg.Routes.APIPrefix,
		AlwaysPublic: []string{
			cfg.Gateway.LoginPath,
			cfg.Gateway.LogoutPath,
			cfg.Gateway.WhoAmIPath,
		},
	})
	if err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	engine := &Engine{
		config:    cfg,
		table:     table,
		routes:    routes,
		directory: b.directory,
		now:       now,
		logger:    logctx.NewLogger(logger.Handler()),
		metrics:   NewMetrics(cfg.Metrics),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}

	// -------- LOGIN THROTTLE --------
	if b.redis != nil && cfg.Security.MaxLoginAttempts > 0 {
		engine.limiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle: cfg.Security.EnableIPThrottle,
			MaxLoginAttempts: cfg.Security.MaxLoginAttempts,
			Window:           cfg.Security.LoginCooldownDuration,
			KeyPrefix:        cfg.Security.RedisPrefix,
		})
	}

	// -------- PASSWORD HASHER --------
	if b.hasher != nil {
		engine.hasher = b.hasher
	} else {
		ph, err := password.NewArgon2(cfg.passwordConfig())
		if err != nil {
			return nil, err
		}
		engine.hasher = ph
	}
	engine.prepareDummy()

	// -------- TOKEN CODEC --------
	jm, err := jwt.NewManager(jwt.Config{
		Secret: cloneBytes(cfg.Token.Secret),
		Issuer: cfg.Token.Issuer,
		Now:    now,
	})
	if err != nil {
		return nil, err
	}
	engine.tokens = jm

	engine.flow = flows.New(engine.flowDeps())

	b.built = true

	return engine, nil
}

func (e *Engine) flowDeps() flows.Deps {
	return flows.Deps{
		Login: flows.LoginDeps{
			ClientIPFromContext: clientIPFromContext,
			CheckLoginRate:      e.checkLoginRate,
			IncrementLoginRate:  e.incrementLoginRate,
			ResetLoginRate:      e.resetLoginRate,
			FindAccount:         e.findAccount,
			KnownRole:           knownRole,
			VerifyPassword:      e.hasher.Verify,
			DummyDigest:         e.dummy,
			PermissionsForRole: func(ctx context.Context, role string) ([]string, error) {
				return e.directory.PermissionsForRole(ctx, Role(role))
			},
			FallbackPerms:  e.table.PermissionsFor,
			TouchLastLogin: e.directory.TouchLastLogin,
			MetricInc:      func(id int) { e.metricInc(MetricID(id)) },
			EmitAudit:      e.emitFlowAudit,
			Warn: func(msg string, args ...any) {
				e.logger.Warn(msg, args...)
			},
			Metrics: flows.LoginMetrics{
				LoginSuccess:     int(MetricLoginSuccess),
				LoginFailure:     int(MetricLoginFailure),
				LoginRateLimited: int(MetricLoginRateLimited),
			},
			Events: flows.LoginEvents{
				LoginSuccess:     auditEventLoginSuccess,
				LoginFailure:     auditEventLoginFailure,
				LoginRateLimited: auditEventLoginRateLimited,
			},
			Errors: flows.LoginErrors{
				EngineNotReady:     ErrEngineNotReady,
				InvalidCredentials: ErrInvalidCredentials,
				LoginRateLimited:   ErrLoginRateLimited,
			},
		},
		Verify: flows.VerifyDeps{
			VerifyToken:      e.tokens.Verify,
			KnownRole:        knownRole,
			PermissionsFor:   e.table.PermissionsFor,
			Now:              e.now,
			RefreshThreshold: e.config.Token.RefreshThreshold,
			MetricInc:        func(id int) { e.metricInc(MetricID(id)) },
			Metrics: flows.VerifyMetrics{
				TokenVerified:         int(MetricTokenVerified),
				TokenInvalidSignature: int(MetricTokenInvalidSignature),
				TokenExpired:          int(MetricTokenExpired),
			},
		},
		Logout: flows.LogoutDeps{
			VerifyToken:  e.tokens.Verify,
			MetricInc:    func(id int) { e.metricInc(MetricID(id)) },
			EmitAudit:    e.emitFlowAudit,
			LogoutMetric: int(MetricLogout),
			LogoutEvent:  auditEventLogout,
		},
	}
}

func knownRole(role string) bool {
	r, ok := ParseRole(role)
	return ok && string(r) == role
}
