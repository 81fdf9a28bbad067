package security

import "time"

// PasswordReport echoes the Argon2id cost parameters in effect.
type PasswordReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// LimitReport echoes one lockout policy.
type LimitReport struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

// Report is a read-only summary of the engine's security posture.
type Report struct {
	SigningAlgorithm       string
	AsymmetricSigning      bool
	AccessTTL              time.Duration
	RefreshTTL             time.Duration
	VerifyTTL              time.Duration
	ResetTTL               time.Duration
	OTPTTL                 time.Duration
	OTPDigits              int
	Argon2                 PasswordReport
	LegacyBcryptAccepted   bool
	UpgradeOnLogin         bool
	LoginLimit             LimitReport
	OTPLimit               LimitReport
	MinAge                 int
	AuditEnabled           bool
	RefreshRotationEnabled bool
	// Warnings lists settings that weaken the posture. Empty for defaults
	// with an Ed25519 key.
	Warnings []string
}

// ReportInput is the configuration slice BuildReport reads.
type ReportInput struct {
	SigningAlgorithm string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	VerifyTTL        time.Duration
	ResetTTL         time.Duration
	OTPTTL           time.Duration
	OTPDigits        int
	Leeway           time.Duration
	Password         PasswordReport
	LegacyBcrypt     bool
	UpgradeOnLogin   bool
	LoginLimit       LimitReport
	OTPLimit         LimitReport
	MinAge           int
	AuditEnabled     bool
}

// BuildReport derives a Report from input. It never fails; questionable
// settings become warnings.
func BuildReport(input ReportInput) Report {
	r := Report{
		SigningAlgorithm:       input.SigningAlgorithm,
		AsymmetricSigning:      input.SigningAlgorithm == "ed25519",
		AccessTTL:              input.AccessTTL,
		RefreshTTL:             input.RefreshTTL,
		VerifyTTL:              input.VerifyTTL,
		ResetTTL:               input.ResetTTL,
		OTPTTL:                 input.OTPTTL,
		OTPDigits:              input.OTPDigits,
		Argon2:                 input.Password,
		LegacyBcryptAccepted:   input.LegacyBcrypt,
		UpgradeOnLogin:         input.UpgradeOnLogin,
		LoginLimit:             input.LoginLimit,
		OTPLimit:               input.OTPLimit,
		MinAge:                 input.MinAge,
		AuditEnabled:           input.AuditEnabled,
		RefreshRotationEnabled: true,
	}

	warn := func(msg string) { r.Warnings = append(r.Warnings, msg) }

	if !r.AsymmetricSigning {
		warn("shared-secret signing: every validator can also mint tokens")
	}
	if input.AccessTTL > time.Hour {
		warn("access tokens live longer than 1h; revocation entries grow accordingly")
	}
	if input.Leeway > 0 {
		warn("non-zero leeway accepts tokens after expiry")
	}
	if input.OTPDigits < 6 {
		warn("reset OTPs shorter than 6 digits")
	}
	if input.OTPTTL > 15*time.Minute {
		warn("reset OTPs stay valid longer than 15m")
	}
	if input.OTPLimit.Lockout < input.OTPTTL {
		warn("OTP lockout is shorter than OTP lifetime; a code can be retried after lockout")
	}
	if input.LoginLimit.MaxAttempts > 10 {
		warn("login lockout allows more than 10 attempts per window")
	}
	if input.LegacyBcrypt && !input.UpgradeOnLogin {
		warn("legacy bcrypt hashes are accepted but never upgraded")
	}
	if !input.AuditEnabled {
		warn("audit trail disabled")
	}
	return r
}
