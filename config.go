package credflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/credflow/internal"
	"github.com/MrEthical07/credflow/internal/limiters"
	"github.com/MrEthical07/credflow/internal/workers"
	"github.com/MrEthical07/credflow/password"
)

// Config is the full engine configuration. Start from [DefaultConfig] or
// [LoadConfigFromEnv]; Build validates it.
type Config struct {
	JWT          JWTConfig
	Tokens       TokenConfig
	LoginLimit   LimitConfig `envPrefix:"LOGIN_LIMIT_"`
	OTPLimit     LimitConfig `envPrefix:"OTP_LIMIT_"`
	Store        StoreConfig
	Directory    DirectoryConfig
	Password     PasswordConfig
	Notify       NotifyConfig
	Registration RegistrationConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig selects signing material. HS256 needs Secret; Ed25519 needs
// PrivateKey to issue and PublicKey (or the private key) to validate.
type JWTConfig struct {
	SigningMethod string `env:"JWT_SIGNING_METHOD"` // "hs256" (default) or "ed25519"
	Secret        []byte
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string        `env:"JWT_ISSUER"`
	Audience      string        `env:"JWT_AUDIENCE"`
	KeyID         string        `env:"JWT_KEY_ID"`
	Leeway        time.Duration `env:"JWT_LEEWAY"`
}

/*
====================================
TOKEN LIFETIMES
====================================
*/

// TokenConfig holds credential lifetimes and role claim shaping.
type TokenConfig struct {
	AccessTTL  time.Duration `env:"ACCESS_TTL"`
	RefreshTTL time.Duration `env:"REFRESH_TTL"`
	VerifyTTL  time.Duration `env:"VERIFY_TTL"`
	ResetTTL   time.Duration `env:"RESET_TTL"`
	OTPTTL     time.Duration `env:"OTP_TTL"`
	OTPDigits  int           `env:"OTP_DIGITS"`
	RolePrefix string        `env:"ROLE_PREFIX"`
}

/*
====================================
RATE LIMITS
====================================
*/

// LimitConfig is one failure limiter: MaxAttempts failures inside Window
// lock the identifier out for Lockout.
type LimitConfig struct {
	MaxAttempts int           `env:"MAX_ATTEMPTS"`
	Window      time.Duration `env:"WINDOW"`
	Lockout     time.Duration `env:"LOCKOUT"`
}

/*
====================================
BACKENDS
====================================
*/

// StoreConfig configures the Redis state store. Addr is used only when no
// client is passed to [Builder.WithRedis].
type StoreConfig struct {
	Addr      string        `env:"REDIS_ADDR"`
	Password  string        `env:"REDIS_PASSWORD"`
	DB        int           `env:"REDIS_DB"`
	OpTimeout time.Duration `env:"STORE_OP_TIMEOUT"`
}

// DirectoryConfig bounds user directory calls. SQLitePath opens the
// bundled sqlite directory when no directory is passed to
// [Builder.WithDirectory].
type DirectoryConfig struct {
	Timeout    time.Duration `env:"DIRECTORY_TIMEOUT"`
	SQLitePath string        `env:"DIRECTORY_SQLITE_PATH"`
}

// PasswordConfig sets Argon2id costs. LegacyBcrypt accepts bcrypt hashes
// from an imported user base; UpgradeOnLogin re-encodes them with Argon2id
// after a successful login.
type PasswordConfig struct {
	Memory         uint32 `env:"PASSWORD_MEMORY"` // in KB
	Time           uint32 `env:"PASSWORD_TIME"`
	Parallelism    uint8  `env:"PASSWORD_PARALLELISM"`
	SaltLength     uint32 `env:"PASSWORD_SALT_LENGTH"`
	KeyLength      uint32 `env:"PASSWORD_KEY_LENGTH"`
	LegacyBcrypt   bool   `env:"PASSWORD_LEGACY_BCRYPT"`
	UpgradeOnLogin bool   `env:"PASSWORD_UPGRADE_ON_LOGIN"`
}

// NotifyConfig sizes the notification worker pool.
type NotifyConfig struct {
	Workers     int           `env:"NOTIFY_WORKERS"`
	MaxWorkers  int           `env:"NOTIFY_MAX_WORKERS"`
	Queue       int           `env:"NOTIFY_QUEUE"`
	KeepAlive   time.Duration `env:"NOTIFY_KEEPALIVE"`
	SendTimeout time.Duration `env:"NOTIFY_SEND_TIMEOUT"`
	// LinkBase prefixes verification tokens in rendered messages.
	LinkBase string `env:"NOTIFY_LINK_BASE"`
}

// RegistrationConfig holds account creation policy.
type RegistrationConfig struct {
	MinAge int `env:"MIN_AGE"`
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled     bool          `env:"AUDIT_ENABLED"`
	BufferSize  int           `env:"AUDIT_BUFFER_SIZE"`
	DropIfFull  bool          `env:"AUDIT_DROP_IF_FULL"`
	SinkTimeout time.Duration `env:"AUDIT_SINK_TIMEOUT"`
}

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled                 bool `env:"METRICS_ENABLED"`
	EnableLatencyHistograms bool `env:"METRICS_LATENCY_HISTOGRAMS"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns production defaults. Signing material must still
// be supplied.
func DefaultConfig() Config {
	login := limiters.LoginConfig()
	otp := limiters.OTPConfig()
	pool := workers.DefaultConfig()
	argon := password.DefaultArgon2Config()

	return Config{
		JWT: JWTConfig{
			SigningMethod: "hs256",
			Issuer:        "credflow",
		},
		Tokens: TokenConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
			VerifyTTL:  24 * time.Hour,
			ResetTTL:   10 * time.Minute,
			OTPTTL:     5 * time.Minute,
			OTPDigits:  internal.OTPDigits,
			RolePrefix: "ROLE_",
		},
		LoginLimit: LimitConfig{MaxAttempts: login.MaxAttempts, Window: login.Window, Lockout: login.Lockout},
		OTPLimit:   LimitConfig{MaxAttempts: otp.MaxAttempts, Window: otp.Window, Lockout: otp.Lockout},
		Store: StoreConfig{
			Addr:      "localhost:6379",
			OpTimeout: 2 * time.Second,
		},
		Directory: DirectoryConfig{
			Timeout: 3 * time.Second,
		},
		Password: PasswordConfig{
			Memory:         argon.Memory,
			Time:           argon.Time,
			Parallelism:    argon.Parallelism,
			SaltLength:     argon.SaltLength,
			KeyLength:      argon.KeyLength,
			LegacyBcrypt:   true,
			UpgradeOnLogin: true,
		},
		Notify: NotifyConfig{
			Workers:     pool.Core,
			MaxWorkers:  pool.Max,
			Queue:       pool.Queue,
			KeepAlive:   pool.KeepAlive,
			SendTimeout: 10 * time.Second,
		},
		Registration: RegistrationConfig{
			MinAge: 18,
		},
		Audit: AuditConfig{
			Enabled:     false,
			BufferSize:  1024,
			DropIfFull:  true,
			SinkTimeout: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (c LimitConfig) limiter(base limiters.Config) limiters.Config {
	base.MaxAttempts = c.MaxAttempts
	base.Window = c.Window
	base.Lockout = c.Lockout
	return base
}

func (c PasswordConfig) argon2() password.Argon2Config {
	return password.Argon2Config{
		Memory:      c.Memory,
		Time:        c.Time,
		Parallelism: c.Parallelism,
		SaltLength:  c.SaltLength,
		KeyLength:   c.KeyLength,
	}
}

func (c NotifyConfig) pool() workers.Config {
	return workers.Config{
		Core:        c.Workers,
		Max:         c.MaxWorkers,
		Queue:       c.Queue,
		KeepAlive:   c.KeepAlive,
		TaskTimeout: c.SendTimeout,
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration for values the engine cannot run with.
// Key material is checked by Build when the codec is constructed.
func (c *Config) Validate() error {
	// JWT
	switch c.JWT.SigningMethod {
	case "hs256":
		if len(c.JWT.Secret) < 32 {
			return errors.New("JWT Secret must be at least 32 bytes for hs256")
		}
	case "ed25519":
		if len(c.JWT.PrivateKey) == 0 && len(c.JWT.PublicKey) == 0 {
			return errors.New("ed25519 requires PrivateKey or PublicKey")
		}
	default:
		return fmt.Errorf("unsupported JWT signing method %q", c.JWT.SigningMethod)
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Tokens
	if c.Tokens.AccessTTL <= 0 || c.Tokens.RefreshTTL <= 0 {
		return errors.New("Tokens AccessTTL and RefreshTTL must be > 0")
	}
	if c.Tokens.RefreshTTL < c.Tokens.AccessTTL {
		return errors.New("Tokens RefreshTTL must be >= AccessTTL")
	}
	if c.Tokens.VerifyTTL <= 0 || c.Tokens.ResetTTL <= 0 || c.Tokens.OTPTTL <= 0 {
		return errors.New("Tokens VerifyTTL, ResetTTL and OTPTTL must be > 0")
	}
	if c.Tokens.OTPDigits < 4 || c.Tokens.OTPDigits > 10 {
		return errors.New("Tokens OTPDigits must be between 4 and 10")
	}

	// Limits
	if err := c.LoginLimit.limiter(limiters.LoginConfig()).Validate(); err != nil {
		return fmt.Errorf("LoginLimit: %w", err)
	}
	if err := c.OTPLimit.limiter(limiters.OTPConfig()).Validate(); err != nil {
		return fmt.Errorf("OTPLimit: %w", err)
	}

	// Backends
	if c.Store.OpTimeout <= 0 {
		return errors.New("Store OpTimeout must be > 0")
	}
	if c.Directory.Timeout <= 0 {
		return errors.New("Directory Timeout must be > 0")
	}

	// Password
	if err := c.Password.argon2().Validate(); err != nil {
		return err
	}

	// Notify
	if err := c.Notify.pool().Validate(); err != nil {
		return err
	}

	// Registration
	if c.Registration.MinAge < 0 {
		return errors.New("Registration MinAge must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}
	if c.Audit.SinkTimeout < 0 {
		return errors.New("Audit SinkTimeout must be >= 0")
	}
	return nil
}
