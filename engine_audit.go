package credflow

import (
	"context"
	"errors"
	"time"

	internalaudit "github.com/MrEthical07/credflow/internal/audit"
)

const (
	auditEventRegister           = "register"
	auditEventVerificationResend = "verification_resend"
	auditEventEmailVerify        = "email_verify"
	auditEventLogin              = "login"
	auditEventLoginLocked        = "login_locked"
	auditEventRefresh            = "refresh"
	auditEventLogout             = "logout"
	auditEventPasswordForgot     = "password_forgot"
	auditEventOTPVerify          = "otp_verify"
	auditEventOTPLocked          = "otp_locked"
	auditEventPasswordReset      = "password_reset"
	auditEventPasswordUpgraded   = "password_upgraded"
)

// AuditErrorCode is the stable error label recorded on failed events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrRefreshNotCurrent  AuditErrorCode = "refresh_not_current"
	auditErrTokenRevoked       AuditErrorCode = "token_revoked"
	auditErrInvalidOTP         AuditErrorCode = "invalid_otp"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrUnderAge           AuditErrorCode = "under_age"
	auditErrUnverified         AuditErrorCode = "email_unverified"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrInvalidInput       AuditErrorCode = "invalid_input"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

// emitAudit queues one event. subject is the user ID when known;
// identifier is the email a request named.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subject string,
	identifier string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := internalaudit.Event{
		Timestamp:  time.Now().UTC(),
		EventType:  eventType,
		Subject:    subject,
		Identifier: identifier,
		Success:    success,
		Metadata:   metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrInvalidCredential),
		errors.Is(err, ErrInvalidRefreshToken),
		errors.Is(err, ErrInvalidResetToken),
		errors.Is(err, ErrInvalidVerifyToken):
		return auditErrInvalidToken
	case errors.Is(err, ErrRefreshTokenNotFound):
		return auditErrRefreshNotCurrent
	case errors.Is(err, ErrTokenRevoked):
		return auditErrTokenRevoked
	case errors.Is(err, ErrInvalidOTP):
		return auditErrInvalidOTP
	case errors.Is(err, ErrTooManyLoginAttempts),
		errors.Is(err, ErrTooManyOTPAttempts):
		return auditErrRateLimited
	case errors.Is(err, ErrEmailExists),
		errors.Is(err, ErrUsernameExists):
		return auditErrDuplicate
	case errors.Is(err, ErrUnderAge):
		return auditErrUnderAge
	case errors.Is(err, ErrEmailNotVerified):
		return auditErrUnverified
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrInvalidInput):
		return auditErrInvalidInput
	case errors.Is(err, ErrDependencyUnavailable),
		errors.Is(err, ErrEngineNotReady):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
