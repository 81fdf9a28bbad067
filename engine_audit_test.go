package credflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/credflow/directory"
	"github.com/MrEthical07/credflow/password"
)

func waitForEvent(t *testing.T, sink *ChannelSink, eventType string) AuditEvent {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sink.Events():
			if ev.EventType == eventType {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %q audit event", eventType)
		}
	}
}

func TestAuditRecordsLoginOutcomes(t *testing.T) {
	sink := NewChannelSink(64)
	env := newTestEnv(t, func(cfg *Config, b *Builder) {
		cfg.Audit.Enabled = true
		b.WithAuditSink(sink)
	})
	ctx := context.Background()
	profile := env.registerVerified(t, "lea@example.com", "lea", "pw")

	_, err := env.engine.Login(ctx, "lea@example.com", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	failed := waitForEvent(t, sink, auditEventLogin)
	require.False(t, failed.Success)
	require.Equal(t, string(auditErrInvalidCredentials), failed.Error)
	require.Equal(t, "lea@example.com", failed.Identifier)

	_, err = env.engine.Login(ctx, "lea@example.com", "pw")
	require.NoError(t, err)
	ok := waitForEvent(t, sink, auditEventLogin)
	require.True(t, ok.Success)
	require.Equal(t, profile.ID, ok.Subject)
	require.Empty(t, ok.Error)
	require.Zero(t, env.engine.AuditDropped())
}

func TestAuditDisabledEmitsNothing(t *testing.T) {
	sink := NewChannelSink(8)
	env := newTestEnv(t, func(cfg *Config, b *Builder) {
		cfg.Audit.Enabled = false
		b.WithAuditSink(sink)
	})

	_, err := env.engine.Login(context.Background(), "nobody@example.com", "pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	env.engine.Close()
	require.Len(t, sink.Events(), 0)
}

func TestAuditErrorCodes(t *testing.T) {
	tests := []struct {
		err  error
		want AuditErrorCode
	}{
		{nil, ""},
		{ErrInvalidCredentials, auditErrInvalidCredentials},
		{ErrInvalidResetToken, auditErrInvalidToken},
		{ErrRefreshTokenNotFound, auditErrRefreshNotCurrent},
		{ErrTokenRevoked, auditErrTokenRevoked},
		{&RetryAfterError{Err: ErrTooManyOTPAttempts, RetryAfter: time.Minute}, auditErrRateLimited},
		{ErrUsernameExists, auditErrDuplicate},
		{ErrUnderAge, auditErrUnderAge},
		{ErrEmailNotVerified, auditErrUnverified},
		{fmt.Errorf("%w: redis down", ErrDependencyUnavailable), auditErrUnavailable},
		{errors.New("boom"), auditErrInternal},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, auditErrorCode(tt.err), "%v", tt.err)
	}
}

func TestLoginUpgradesLegacyBcryptHash(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	legacy, err := password.NewBcrypt(4)
	require.NoError(t, err)
	hash, err := legacy.Encode("imported-pw")
	require.NoError(t, err)
	_, err = env.dir.Save(ctx, directory.User{
		Username:      "max",
		Email:         "max@example.com",
		PasswordHash:  hash,
		Role:          directory.DefaultRole,
		EmailVerified: true,
		BirthYear:     1980,
	})
	require.NoError(t, err)

	_, err = env.engine.Login(ctx, "max@example.com", "imported-pw")
	require.NoError(t, err)

	upgraded, err := env.dir.FindByEmail(ctx, "max@example.com")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(upgraded.PasswordHash, "$argon2id$"))
	require.EqualValues(t, 1, env.engine.MetricsSnapshot().Counters[MetricPasswordUpgraded])

	_, err = env.engine.Login(ctx, "max@example.com", "imported-pw")
	require.NoError(t, err)
	require.EqualValues(t, 1, env.engine.MetricsSnapshot().Counters[MetricPasswordUpgraded])
}

func TestRetryAfterHelper(t *testing.T) {
	_, ok := RetryAfter(ErrInvalidOTP)
	require.False(t, ok)

	wrapped := fmt.Errorf("login: %w", &RetryAfterError{Err: ErrTooManyLoginAttempts, RetryAfter: 90 * time.Second})
	d, ok := RetryAfter(wrapped)
	require.True(t, ok)
	require.Equal(t, 90*time.Second, d)
	require.ErrorIs(t, wrapped, ErrTooManyLoginAttempts)
}

func TestSecurityReportReflectsConfig(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config, _ *Builder) {
		cfg.Audit.Enabled = true
	})

	report := env.engine.SecurityReport()
	require.Equal(t, "hs256", report.SigningAlgorithm)
	require.False(t, report.AsymmetricSigning)
	require.Equal(t, 15*time.Minute, report.AccessTTL)
	require.Equal(t, 5, report.LoginLimit.MaxAttempts)
	require.Equal(t, 15*time.Minute, report.OTPLimit.Lockout)
	require.True(t, report.LegacyBcryptAccepted)
	require.Equal(t, uint32(8*1024), report.Argon2.Memory)
	require.Len(t, report.Warnings, 1)
}
