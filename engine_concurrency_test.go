package credflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/credflow/directory"
	"github.com/MrEthical07/credflow/directory/memdir"
	"github.com/MrEthical07/credflow/internal"
	"github.com/MrEthical07/credflow/notify"
	"github.com/MrEthical07/credflow/password"
)

const racers = 8

// race runs fn from racers goroutines released together and returns how
// many calls reported success.
func race(fn func(i int) bool) int {
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		wins  atomic.Int32
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			if fn(i) {
				wins.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()
	return int(wins.Load())
}

func TestConcurrentResetPasswordConsumesTokenOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.registerVerified(t, "ola@example.com", "ola", "old-pw")

	require.NoError(t, env.engine.ForgotPassword(ctx, "ola@example.com"))
	resetToken, err := env.engine.VerifyResetOTP(ctx, "ola@example.com", env.lastCode(t, notify.KindPasswordResetOTP, "ola@example.com"))
	require.NoError(t, err)

	var winner atomic.Int32
	wins := race(func(i int) bool {
		err := env.engine.ResetPassword(ctx, resetToken, fmt.Sprintf("new-pw-%d", i))
		if err != nil {
			assert.ErrorIs(t, err, ErrInvalidResetToken)
			return false
		}
		winner.Store(int32(i))
		return true
	})
	require.Equal(t, 1, wins)

	_, err = env.engine.Login(ctx, "ola@example.com", fmt.Sprintf("new-pw-%d", winner.Load()))
	require.NoError(t, err)
}

func TestConcurrentVerifyResetOTPMintsOneResetToken(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.registerVerified(t, "pam@example.com", "pam", "pw")

	require.NoError(t, env.engine.ForgotPassword(ctx, "pam@example.com"))
	otp := env.lastCode(t, notify.KindPasswordResetOTP, "pam@example.com")

	wins := race(func(int) bool {
		tok, err := env.engine.VerifyResetOTP(ctx, "pam@example.com", otp)
		return err == nil && tok != ""
	})
	require.Equal(t, 1, wins)
}

func TestConcurrentVerifyEmailConsumesTokenOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.engine.Register(ctx, RegisterInput{Email: "quin@example.com", Username: "quin", Password: "pw", BirthYear: 1990})
	require.NoError(t, err)
	code := env.lastCode(t, notify.KindEmailVerification, "quin@example.com")

	wins := race(func(int) bool {
		_, err := env.engine.VerifyEmail(ctx, code)
		if err != nil {
			assert.ErrorIs(t, err, ErrInvalidVerifyToken)
			return false
		}
		return true
	})
	require.Equal(t, 1, wins)
}

func TestConcurrentRefreshLeavesOneCurrentToken(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	profile := env.registerVerified(t, "rio@example.com", "rio", "pw")

	login, err := env.engine.Login(ctx, "rio@example.com", "pw")
	require.NoError(t, err)

	var (
		mu      sync.Mutex
		rotated []string
	)
	wins := race(func(int) bool {
		res, err := env.engine.Refresh(ctx, login.RefreshToken)
		if err != nil {
			assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
			return false
		}
		mu.Lock()
		rotated = append(rotated, res.RefreshToken)
		mu.Unlock()
		return true
	})
	require.GreaterOrEqual(t, wins, 1)

	stored, err := env.mr.Get("refresh:" + profile.ID)
	require.NoError(t, err)
	current := ""
	for _, tok := range rotated {
		if internal.FingerprintMatches(stored, tok) {
			require.Empty(t, current, "two rotated tokens are current")
			current = tok
		}
	}
	require.NotEmpty(t, current)

	_, err = env.engine.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshTokenNotFound)
	for _, tok := range rotated {
		if tok == current {
			continue
		}
		_, err = env.engine.Refresh(ctx, tok)
		require.ErrorIs(t, err, ErrRefreshTokenNotFound)
	}
	_, err = env.engine.Refresh(ctx, current)
	require.NoError(t, err)
}

// resetDuringLogin changes the stored password hash right after the first
// lookup by email, the way a password reset landing mid-login would.
type resetDuringLogin struct {
	*memdir.Directory
	once sync.Once
	hash string
}

func (d *resetDuringLogin) FindByEmail(ctx context.Context, email string) (directory.User, error) {
	u, err := d.Directory.FindByEmail(ctx, email)
	if err == nil {
		d.once.Do(func() {
			_, err = d.Directory.SetPasswordHash(ctx, u.ID, "", d.hash)
		})
	}
	return u, err
}

func TestPasswordUpgradeYieldsToConcurrentReset(t *testing.T) {
	ctx := context.Background()
	argon, err := password.NewArgon2(testConfig().Password.argon2())
	require.NoError(t, err)
	resetHash, err := argon.Encode("reset-pw")
	require.NoError(t, err)

	dir := &resetDuringLogin{Directory: memdir.New(), hash: resetHash}
	env := newTestEnv(t, func(_ *Config, b *Builder) {
		b.WithDirectory(dir)
	})

	legacy, err := password.NewBcrypt(4)
	require.NoError(t, err)
	legacyHash, err := legacy.Encode("imported-pw")
	require.NoError(t, err)
	_, err = dir.Save(ctx, directory.User{
		Username:      "sam",
		Email:         "sam@example.com",
		PasswordHash:  legacyHash,
		Role:          directory.DefaultRole,
		EmailVerified: true,
		BirthYear:     1980,
	})
	require.NoError(t, err)

	_, err = env.engine.Login(ctx, "sam@example.com", "imported-pw")
	require.NoError(t, err)

	stored, err := dir.Directory.FindByEmail(ctx, "sam@example.com")
	require.NoError(t, err)
	require.Equal(t, resetHash, stored.PasswordHash)
	require.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"))
	require.Zero(t, env.engine.MetricsSnapshot().Counters[MetricPasswordUpgraded])
}

func TestLogoutFailsWhenStoreIsDown(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.registerVerified(t, "tia@example.com", "tia", "pw")
	login, err := env.engine.Login(ctx, "tia@example.com", "pw")
	require.NoError(t, err)

	env.mr.Close()
	require.ErrorIs(t, env.engine.Logout(ctx, login.AccessToken), ErrDependencyUnavailable)
	require.Zero(t, env.engine.MetricsSnapshot().Counters[MetricLogout])
}
