package credflow

import "github.com/MrEthical07/credflow/internal/security"

// SecurityReport summarises the engine's configured posture.
type SecurityReport = security.Report

// SecurityReport returns the posture of the running configuration.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	c := e.config
	limit := func(l LimitConfig) security.LimitReport {
		return security.LimitReport{MaxAttempts: l.MaxAttempts, Window: l.Window, Lockout: l.Lockout}
	}
	return security.BuildReport(security.ReportInput{
		SigningAlgorithm: c.JWT.SigningMethod,
		AccessTTL:        c.Tokens.AccessTTL,
		RefreshTTL:       c.Tokens.RefreshTTL,
		VerifyTTL:        c.Tokens.VerifyTTL,
		ResetTTL:         c.Tokens.ResetTTL,
		OTPTTL:           c.Tokens.OTPTTL,
		OTPDigits:        c.Tokens.OTPDigits,
		Leeway:           c.JWT.Leeway,
		Password: security.PasswordReport{
			Memory:      c.Password.Memory,
			Time:        c.Password.Time,
			Parallelism: c.Password.Parallelism,
			SaltLength:  c.Password.SaltLength,
			KeyLength:   c.Password.KeyLength,
		},
		LegacyBcrypt:   c.Password.LegacyBcrypt && e.upgrader != nil,
		UpgradeOnLogin: c.Password.UpgradeOnLogin,
		LoginLimit:     limit(c.LoginLimit),
		OTPLimit:       limit(c.OTPLimit),
		MinAge:         c.Registration.MinAge,
		AuditEnabled:   c.Audit.Enabled,
	})
}
