package flows

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/credflow/directory"
	"github.com/MrEthical07/credflow/directory/memdir"
	"github.com/MrEthical07/credflow/jwt"
	"github.com/MrEthical07/credflow/notify"
)

var errStoreDown = errors.New("store down")

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memBindings struct {
	mu   sync.Mutex
	vals map[string]string
	err  error
}

func newMemBindings() *memBindings { return &memBindings{vals: map[string]string{}} }

func (m *memBindings) Bind(_ context.Context, id, token string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.vals[id] = token
	return nil
}

func (m *memBindings) Matches(_ context.Context, id, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	v, ok := m.vals[id]
	return ok && v == token, nil
}

func (m *memBindings) Consume(_ context.Context, id, token string) (time.Duration, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, false, m.err
	}
	if v, ok := m.vals[id]; !ok || v != token {
		return 0, false, nil
	}
	delete(m.vals, id)
	return time.Minute, true, nil
}

func (m *memBindings) Restore(_ context.Context, id, token string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.vals[id]; !ok {
		m.vals[id] = token
	}
	return nil
}

func (m *memBindings) Outstanding(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.vals[id]
	return ok, nil
}

func (m *memBindings) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.vals, id)
	return nil
}

func (m *memBindings) Save(ctx context.Context, id, code string, ttl time.Duration) error {
	return m.Bind(ctx, id, code, ttl)
}

type memRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	err     error
}

func newMemRevocations() *memRevocations { return &memRevocations{revoked: map[string]time.Duration{}} }

func (m *memRevocations) Revoke(_ context.Context, id string, remaining time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.revoked[id] = remaining
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.revoked[id]
	return ok, nil
}

type fakeLimiter struct {
	mu       sync.Mutex
	max      int
	lockout  time.Duration
	failures map[string]int
	blocked  map[string]bool
	err      error
}

func newFakeLimiter(max int, lockout time.Duration) *fakeLimiter {
	return &fakeLimiter{max: max, lockout: lockout, failures: map[string]int{}, blocked: map[string]bool{}}
}

func (l *fakeLimiter) IsBlocked(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.blocked[id], l.err
}

func (l *fakeLimiter) RecordFailure(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	l.failures[id]++
	if l.failures[id] >= l.max {
		l.blocked[id] = true
		delete(l.failures, id)
		return true, nil
	}
	return false, nil
}

func (l *fakeLimiter) Clear(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, id)
	return l.err
}

func (l *fakeLimiter) BlockRemaining(_ context.Context, id string) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.blocked[id] {
		return l.lockout, nil
	}
	return 0, nil
}

type plainEncoder struct{}

func (plainEncoder) Encode(p string) (string, error) {
	if p == "" {
		return "", errors.New("empty")
	}
	return "enc:" + p, nil
}

func (plainEncoder) Matches(p, enc string) (bool, error) {
	if !strings.HasPrefix(enc, "enc:") {
		return false, errors.New("bad encoding")
	}
	return enc == "enc:"+p, nil
}

type brokenDirectory struct{ directory.Directory }

func (brokenDirectory) FindByEmail(context.Context, string) (directory.User, error) {
	return directory.User{}, errStoreDown
}

func (brokenDirectory) FindByID(context.Context, string) (directory.User, error) {
	return directory.User{}, errStoreDown
}

// readOnlyDirectory serves reads from the embedded directory and fails
// every field update.
type readOnlyDirectory struct{ directory.Directory }

func (readOnlyDirectory) MarkVerified(context.Context, string) (directory.User, error) {
	return directory.User{}, errStoreDown
}

func (readOnlyDirectory) SetPasswordHash(context.Context, string, string, string) (directory.User, error) {
	return directory.User{}, errStoreDown
}

type recorder struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *recorder) dispatch(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recorder) last() (notify.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return notify.Notification{}, false
	}
	return r.sent[len(r.sent)-1], true
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type harness struct {
	clock       *clock
	codec       *jwt.Manager
	dir         *memdir.Directory
	sessions    *memBindings
	verify      *memBindings
	reset       *memBindings
	otps        *memBindings
	revocations *memRevocations
	loginLimit  *fakeLimiter
	otpLimit    *fakeLimiter
	sent        *recorder
	policy      TokenPolicy
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	c := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec, err := jwt.NewManager(jwt.Config{Secret: []byte(strings.Repeat("s", 32)), Now: c.Now})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return &harness{
		clock:       c,
		codec:       codec,
		dir:         memdir.New(),
		sessions:    newMemBindings(),
		verify:      newMemBindings(),
		reset:       newMemBindings(),
		otps:        newMemBindings(),
		revocations: newMemRevocations(),
		loginLimit:  newFakeLimiter(5, 15*time.Minute),
		otpLimit:    newFakeLimiter(5, 15*time.Minute),
		sent:        &recorder{},
		policy: TokenPolicy{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
			VerifyTTL:  24 * time.Hour,
			ResetTTL:   10 * time.Minute,
			OTPTTL:     5 * time.Minute,
			OTPDigits:  6,
			RolePrefix: "ROLE_",
		},
	}
}

func (h *harness) sessionDeps() SessionDeps {
	return SessionDeps{Codec: h.codec, Policy: h.policy, Sessions: h.sessions}
}

func (h *harness) verification() VerificationDeps {
	return VerificationDeps{Directory: h.dir, Codec: h.codec, Policy: h.policy, VerifyTokens: h.verify, Dispatch: h.sent.dispatch}
}

func (h *harness) registerDeps() RegisterDeps {
	return RegisterDeps{Verification: h.verification(), Passwords: plainEncoder{}, MinAge: 18}
}

func (h *harness) loginDeps() LoginDeps {
	return LoginDeps{Session: h.sessionDeps(), Directory: h.dir, Passwords: plainEncoder{}, Limiter: h.loginLimit}
}

func (h *harness) refreshDeps() RefreshDeps {
	return RefreshDeps{Session: h.sessionDeps(), Directory: h.dir}
}

func (h *harness) logoutDeps() LogoutDeps {
	return LogoutDeps{Codec: h.codec, Revocations: h.revocations, Sessions: h.sessions}
}

func (h *harness) validateDeps() ValidateDeps {
	return ValidateDeps{Codec: h.codec, Revocations: h.revocations}
}

func (h *harness) resetDeps() PasswordResetDeps {
	return PasswordResetDeps{
		Directory:   h.dir,
		Codec:       h.codec,
		Policy:      h.policy,
		OTPs:        h.otps,
		ResetTokens: h.reset,
		Limiter:     h.otpLimit,
		Passwords:   plainEncoder{},
		NewOTP:      func(int) (string, error) { return "123456", nil },
		Dispatch:    h.sent.dispatch,
	}
}

// seedUser stores a user with password "pw-correct".
func (h *harness) seedUser(t *testing.T, email string, verified bool) directory.User {
	t.Helper()
	u, err := h.dir.Save(context.Background(), directory.User{
		Username:      strings.Split(email, "@")[0],
		Email:         email,
		PasswordHash:  "enc:pw-correct",
		Role:          "USER",
		EmailVerified: verified,
		BirthYear:     1990,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return u
}
