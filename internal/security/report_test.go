package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func hardened() ReportInput {
	return ReportInput{
		SigningAlgorithm: "ed25519",
		AccessTTL:        15 * time.Minute,
		RefreshTTL:       7 * 24 * time.Hour,
		OTPTTL:           5 * time.Minute,
		OTPDigits:        6,
		LegacyBcrypt:     true,
		UpgradeOnLogin:   true,
		LoginLimit:       LimitReport{MaxAttempts: 5, Window: 15 * time.Minute, Lockout: 15 * time.Minute},
		OTPLimit:         LimitReport{MaxAttempts: 5, Window: 5 * time.Minute, Lockout: 15 * time.Minute},
		AuditEnabled:     true,
	}
}

func TestBuildReportHardenedHasNoWarnings(t *testing.T) {
	r := BuildReport(hardened())
	require.True(t, r.AsymmetricSigning)
	require.True(t, r.RefreshRotationEnabled)
	require.Empty(t, r.Warnings)
}

func TestBuildReportWarnings(t *testing.T) {
	in := hardened()
	in.SigningAlgorithm = "hs256"
	in.Leeway = time.Second
	in.OTPDigits = 4
	in.UpgradeOnLogin = false
	in.AuditEnabled = false
	in.OTPLimit.Lockout = time.Minute

	r := BuildReport(in)
	require.False(t, r.AsymmetricSigning)
	require.Len(t, r.Warnings, 6)
}
