package internaldefs

import (
	"github.com/MrEthical07/credflow"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   credflow.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   credflow.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: credflow.MetricRegisterCreated, Name: "credflow_register_created_total", Help: "Accounts created."},
	{ID: credflow.MetricRegisterPendingVerification, Name: "credflow_register_pending_verification_total", Help: "Registrations that hit an unverified account and resent verification."},
	{ID: credflow.MetricRegisterRejected, Name: "credflow_register_rejected_total", Help: "Rejected registrations."},
	{ID: credflow.MetricVerificationSent, Name: "credflow_verification_sent_total", Help: "Verification tokens dispatched on resend."},
	{ID: credflow.MetricVerificationResendSkipped, Name: "credflow_verification_resend_skipped_total", Help: "Resend requests for already verified accounts."},
	{ID: credflow.MetricEmailVerifySuccess, Name: "credflow_email_verify_success_total", Help: "Successful email verifications."},
	{ID: credflow.MetricEmailVerifyFailure, Name: "credflow_email_verify_failure_total", Help: "Failed email verifications."},
	{ID: credflow.MetricLoginSuccess, Name: "credflow_login_success_total", Help: "Successful logins."},
	{ID: credflow.MetricLoginFailure, Name: "credflow_login_failure_total", Help: "Failed logins."},
	{ID: credflow.MetricLoginLocked, Name: "credflow_login_locked_total", Help: "Logins refused by the lockout."},
	{ID: credflow.MetricRefreshSuccess, Name: "credflow_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: credflow.MetricRefreshFailure, Name: "credflow_refresh_failure_total", Help: "Failed refresh rotations."},
	{ID: credflow.MetricRefreshNotCurrent, Name: "credflow_refresh_not_current_total", Help: "Refresh tokens presented after rotation or logout."},
	{ID: credflow.MetricLogout, Name: "credflow_logout_total", Help: "Logouts."},
	{ID: credflow.MetricLogoutSkipped, Name: "credflow_logout_skipped_total", Help: "Logouts with a malformed or expired token."},
	{ID: credflow.MetricLogoutPartial, Name: "credflow_logout_partial_total", Help: "Logouts where a store step failed."},
	{ID: credflow.MetricPasswordResetRequest, Name: "credflow_password_reset_request_total", Help: "Password reset OTPs issued."},
	{ID: credflow.MetricOTPVerifySuccess, Name: "credflow_otp_verify_success_total", Help: "Accepted reset OTPs."},
	{ID: credflow.MetricOTPVerifyFailure, Name: "credflow_otp_verify_failure_total", Help: "Rejected reset OTPs."},
	{ID: credflow.MetricOTPLocked, Name: "credflow_otp_locked_total", Help: "OTP checks refused by the lockout."},
	{ID: credflow.MetricPasswordResetSuccess, Name: "credflow_password_reset_success_total", Help: "Completed password resets."},
	{ID: credflow.MetricPasswordResetFailure, Name: "credflow_password_reset_failure_total", Help: "Failed password resets."},
	{ID: credflow.MetricValidateSuccess, Name: "credflow_validate_success_total", Help: "Accepted access tokens."},
	{ID: credflow.MetricValidateFailure, Name: "credflow_validate_failure_total", Help: "Rejected access tokens."},
	{ID: credflow.MetricValidateRevoked, Name: "credflow_validate_revoked_total", Help: "Access tokens rejected as revoked."},
	{ID: credflow.MetricDependencyFailure, Name: "credflow_dependency_failure_total", Help: "Operations failed by an unavailable store or directory."},
	{ID: credflow.MetricNotifySent, Name: "credflow_notify_sent_total", Help: "Delivered notifications."},
	{ID: credflow.MetricNotifyFailed, Name: "credflow_notify_failed_total", Help: "Notifications the sender failed to deliver."},
	{ID: credflow.MetricNotifyCallerRan, Name: "credflow_notify_caller_ran_total", Help: "Notifications sent inline because the pool was saturated."},
	{ID: credflow.MetricPasswordUpgraded, Name: "credflow_password_upgraded_total", Help: "Password hashes re-encoded on login."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: credflow.MetricValidateLatency, Name: "credflow_validate_latency_seconds", Help: "ValidateAccess latency."},
}

// HistogramBounds are the upper bounds of the engine latency buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix names each bound in instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero filling.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
