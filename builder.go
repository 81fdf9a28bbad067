package credflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/credflow/directory"
	"github.com/MrEthical07/credflow/directory/sqlitedir"
	"github.com/MrEthical07/credflow/internal"
	"github.com/MrEthical07/credflow/internal/audit"
	"github.com/MrEthical07/credflow/internal/flows"
	"github.com/MrEthical07/credflow/internal/kv"
	"github.com/MrEthical07/credflow/internal/limiters"
	"github.com/MrEthical07/credflow/internal/stores"
	"github.com/MrEthical07/credflow/internal/workers"
	"github.com/MrEthical07/credflow/jwt"
	"github.com/MrEthical07/credflow/notify"
	"github.com/MrEthical07/credflow/password"
)

// Builder assembles an [Engine]. Configure it during initialization, call
// Build once, and discard it.
type Builder struct {
	config Config
	logger *slog.Logger
	now    func() time.Time

	redis     redis.UniversalClient
	store     kv.Store
	directory directory.Directory
	passwords password.Encoder
	sender    notify.Sender
	auditSink AuditSink

	built bool
}

// New returns a Builder starting from [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithLogger sets the structured logger; slog.Default is used otherwise.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithRedis supplies the state store client. Without it Build dials
// Config.Store.Addr and closes that client on [Engine.Close].
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDirectory supplies the user directory. Without it Build opens the
// sqlite directory at Config.Directory.SQLitePath.
func (b *Builder) WithDirectory(d directory.Directory) *Builder {
	b.directory = d
	return b
}

// WithPasswordEncoder replaces the Argon2id encoder built from
// Config.Password. Upgrade-on-login is disabled for custom encoders.
func (b *Builder) WithPasswordEncoder(enc password.Encoder) *Builder {
	b.passwords = enc
	return b
}

// WithSender supplies the notification transport. Without it messages are
// logged by a [notify.LogSender].
func (b *Builder) WithSender(s notify.Sender) *Builder {
	b.sender = s
	return b
}

// WithAuditSink sets where audit events go when Config.Audit is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the clock used to issue and check tokens.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the ValidateAccess latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine. Backends the
// Builder opens itself are released if Build fails.
func (b *Builder) Build() (_ *Engine, err error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := &Engine{
		config: cfg,
		logger: logger,
	}
	defer func() {
		if err != nil {
			engine.Close()
		}
	}()

	// -------- CREDENTIAL CODEC --------
	codec, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		Secret:        cfg.JWT.Secret,
		PrivateKey:    cfg.JWT.PrivateKey,
		PublicKey:     cfg.JWT.PublicKey,
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		KeyID:         cfg.JWT.KeyID,
		Now:           b.now,
	})
	if err != nil {
		return nil, err
	}
	if !codec.CanIssue() {
		return nil, errors.New("JWT signing key required to issue credentials")
	}
	engine.codec = codec

	// -------- STATE STORE --------
	if b.store != nil {
		engine.store = b.store
	} else {
		client := b.redis
		if client == nil {
			owned := redis.NewClient(&redis.Options{
				Addr:     cfg.Store.Addr,
				Password: cfg.Store.Password,
				DB:       cfg.Store.DB,
			})
			engine.closers = append(engine.closers, owned.Close)
			client = owned
		}
		engine.store = kv.NewRedis(client, cfg.Store.OpTimeout)
	}

	engine.sessions = stores.NewRefreshSessionStore(engine.store, "")
	engine.revocations = stores.NewRevocationRegistry(engine.store, "")
	engine.verifyTokens = stores.NewVerifyTokenStore(engine.store)
	engine.resetTokens = stores.NewResetTokenStore(engine.store)
	engine.otps = stores.NewOTPStore(engine.store, "")
	engine.loginLimiter = limiters.NewAttemptLimiter(engine.store, cfg.LoginLimit.limiter(limiters.LoginConfig()))
	engine.otpLimiter = limiters.NewAttemptLimiter(engine.store, cfg.OTPLimit.limiter(limiters.OTPConfig()))
	engine.newOTP = internal.NewOTP

	// -------- USER DIRECTORY --------
	dir := b.directory
	if dir == nil {
		if cfg.Directory.SQLitePath == "" {
			return nil, errors.New("user directory required: call WithDirectory or set Directory.SQLitePath")
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Directory.Timeout)
		sq, err := sqlitedir.Open(ctx, cfg.Directory.SQLitePath)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("open sqlite directory: %w", err)
		}
		engine.closers = append(engine.closers, sq.Close)
		dir = sq
	}
	engine.directory = directory.WithTimeout(dir, cfg.Directory.Timeout)

	// -------- PASSWORDS --------
	if b.passwords != nil {
		engine.passwords = b.passwords
	} else {
		primary, err := password.NewArgon2(cfg.Password.argon2())
		if err != nil {
			return nil, err
		}
		var legacy []*password.Bcrypt
		if cfg.Password.LegacyBcrypt {
			bc, err := password.NewBcrypt(0)
			if err != nil {
				return nil, err
			}
			legacy = append(legacy, bc)
		}
		chain := password.NewChain(primary, legacy...)
		engine.passwords = chain
		engine.upgrader = chain
	}

	// -------- NOTIFICATIONS --------
	engine.sender = b.sender
	if engine.sender == nil {
		engine.sender = notify.NewLogSender(logger, notify.DefaultTemplates(cfg.Notify.LinkBase))
	}
	pool, err := workers.New(cfg.Notify.pool(), logger.With("component", "notify"))
	if err != nil {
		return nil, err
	}
	engine.pool = pool

	// -------- AUDIT & METRICS --------
	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:     cfg.Audit.Enabled,
		BufferSize:  cfg.Audit.BufferSize,
		DropIfFull:  cfg.Audit.DropIfFull,
		SinkTimeout: cfg.Audit.SinkTimeout,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true
	return engine, nil
}

var _ flows.PasswordEncoder = (password.Encoder)(nil)
