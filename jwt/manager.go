package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the token signature algorithm.
type SigningMethod string

const (
	// MethodHS256 signs with a single shared secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with a private key; validators only need the public key.
	MethodEd25519 SigningMethod = "ed25519"
)

// Purpose tags what a credential may be used for. A token minted for one
// purpose is never accepted where another purpose is required.
type Purpose string

const (
	PurposeAccess        Purpose = "access"
	PurposeRefresh       Purpose = "refresh"
	PurposeEmailVerify   Purpose = "email-verify"
	PurposePasswordReset Purpose = "password-reset"
)

// Valid reports whether p is one of the known purposes.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeAccess, PurposeRefresh, PurposeEmailVerify, PurposePasswordReset:
		return true
	}
	return false
}

var (
	// ErrInvalidCredential is returned for any token that fails signature,
	// structure, purpose or expiry checks. There is no partially valid state.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrInvalidConfig is returned by NewManager for unusable key material.
	ErrInvalidConfig = errors.New("invalid codec configuration")
)

// Config holds signing material and validation knobs for a [Manager].
type Config struct {
	SigningMethod SigningMethod
	// Secret is the HS256 shared secret.
	Secret []byte
	// PrivateKey and PublicKey are Ed25519 keys, raw or PEM encoded.
	// A validator-only Manager may omit PrivateKey.
	PrivateKey []byte
	PublicKey  []byte
	Issuer     string
	Audience   string
	Leeway     time.Duration
	KeyID      string
	// Now overrides the clock used for issuance and expiry checks.
	Now func() time.Time
}

// Claims is the wire representation of a credential.
type Claims struct {
	Purpose Purpose  `json:"purpose"`
	Roles   []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Credential is the parsed, validated view of a token.
type Credential struct {
	Subject   string
	TokenID   string
	Purpose   Purpose
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Remaining returns how long the credential stays valid relative to now,
// or zero once it has expired.
func (c *Credential) Remaining(now time.Time) time.Duration {
	if c == nil {
		return 0
	}
	d := c.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Manager issues and parses signed credentials. It is a pure function of its
// key material and clock and is safe for concurrent use.
type Manager struct {
	config  Config
	method  jwt.SigningMethod
	signKey any
	verify  any
}

// NewManager validates cfg and prepares signing and verification keys.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, fmt.Errorf("%w: leeway out of range", ErrInvalidConfig)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	m := &Manager{config: cfg}
	switch cfg.SigningMethod {
	case MethodHS256, "":
		if len(cfg.Secret) < 32 {
			return nil, fmt.Errorf("%w: hs256 secret must be at least 32 bytes", ErrInvalidConfig)
		}
		m.config.SigningMethod = MethodHS256
		m.method = jwt.SigningMethodHS256
		m.signKey = cfg.Secret
		m.verify = cfg.Secret
	case MethodEd25519:
		m.method = jwt.SigningMethodEdDSA
		if len(cfg.PrivateKey) > 0 {
			priv, err := parseEdPrivateKey(cfg.PrivateKey)
			if err != nil {
				return nil, err
			}
			m.signKey = priv
			m.verify = priv.Public()
		}
		if len(cfg.PublicKey) > 0 {
			pub, err := parseEdPublicKey(cfg.PublicKey)
			if err != nil {
				return nil, err
			}
			m.verify = pub
		}
		if m.verify == nil {
			return nil, fmt.Errorf("%w: ed25519 requires a private or public key", ErrInvalidConfig)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported signing method %q", ErrInvalidConfig, cfg.SigningMethod)
	}

	return m, nil
}

// CanIssue reports whether the manager holds signing material.
func (m *Manager) CanIssue() bool {
	return m != nil && m.signKey != nil
}

// Issue mints a token for subject with a fresh token identifier, issued-at
// set to now and expiry at now+ttl. Roles are only embedded for access tokens.
func (m *Manager) Issue(subject string, purpose Purpose, roles []string, ttl time.Duration) (string, error) {
	if !m.CanIssue() {
		return "", fmt.Errorf("%w: manager has no signing key", ErrInvalidConfig)
	}
	if subject == "" {
		return "", errors.New("jwt: empty subject")
	}
	if !purpose.Valid() {
		return "", fmt.Errorf("jwt: unknown purpose %q", purpose)
	}
	if ttl <= 0 {
		return "", errors.New("jwt: ttl must be positive")
	}

	now := m.config.Now()
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if purpose == PurposeAccess && len(roles) > 0 {
		claims.Roles = append([]string(nil), roles...)
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	token := jwt.NewWithClaims(m.method, claims)
	if m.config.KeyID != "" {
		token.Header["kid"] = m.config.KeyID
	}
	return token.SignedString(m.signKey)
}

// Parse validates signature, structure and expiry and returns the credential.
// All failures wrap [ErrInvalidCredential].
func (m *Manager) Parse(tokenStr string) (*Credential, error) {
	if m == nil {
		return nil, ErrInvalidCredential
	}
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidCredential)
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithTimeFunc(m.config.Now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if m.config.KeyID != "" {
			if kid, _ := t.Header["kid"].(string); kid != m.config.KeyID {
				return nil, errors.New("unknown kid")
			}
		}
		return m.verify, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidCredential
	}
	if claims.Subject == "" || claims.ID == "" || !claims.Purpose.Valid() {
		return nil, fmt.Errorf("%w: missing required claims", ErrInvalidCredential)
	}

	cred := &Credential{
		Subject:   claims.Subject,
		TokenID:   claims.ID,
		Purpose:   claims.Purpose,
		Roles:     claims.Roles,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		cred.IssuedAt = claims.IssuedAt.Time
	}
	return cred, nil
}

// ParseFor is Parse plus a purpose check.
func (m *Manager) ParseFor(tokenStr string, purpose Purpose) (*Credential, error) {
	cred, err := m.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if cred.Purpose != purpose {
		return nil, fmt.Errorf("%w: purpose %q, want %q", ErrInvalidCredential, cred.Purpose, purpose)
	}
	return cred, nil
}

// RemainingTTL returns the time left before tokenStr expires.
func (m *Manager) RemainingTTL(tokenStr string) (time.Duration, error) {
	cred, err := m.Parse(tokenStr)
	if err != nil {
		return 0, err
	}
	return cred.Remaining(m.config.Now()), nil
}

// Now exposes the manager clock so callers size TTLs consistently.
func (m *Manager) Now() time.Time {
	return m.config.Now()
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ed25519 private key", ErrInvalidConfig)
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: invalid ed25519 private key type", ErrInvalidConfig)
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ed25519 public key", ErrInvalidConfig)
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: invalid ed25519 public key type", ErrInvalidConfig)
	}
	return edKey, nil
}
