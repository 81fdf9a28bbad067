package credflow

import (
	"context"

	"github.com/MrEthical07/credflow/internal/flows"
)

// Register creates an unverified account and dispatches a verification
// token.
//
// Business rejections return [ErrEmailExists], [ErrUsernameExists],
// [ErrUnderAge] or [ErrInvalidInput] with Outcome RegisterRejected. When the
// email belongs to an account that was never verified, no second account is
// created: the verification resend runs and Register returns Outcome
// RegisterPendingVerification together with [ErrEmailNotVerified].
func (e *Engine) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	if !e.ready() {
		return RegisterResult{}, ErrEngineNotReady
	}

	res := flows.RunRegister(ctx, flows.RegisterInput{
		Email:     in.Email,
		Username:  in.Username,
		Password:  in.Password,
		BirthYear: in.BirthYear,
	}, e.registerDeps())

	out := RegisterResult{Outcome: RegisterRejected}
	if res.User.ID != "" {
		out.User = profileOf(res.User)
	}
	switch res.Status {
	case flows.RegisterCreated:
		out.Outcome = RegisterCreated
		e.metricInc(MetricRegisterCreated)
	case flows.RegisterPendingVerification:
		out.Outcome = RegisterPendingVerification
		e.metricInc(MetricRegisterPendingVerification)
	default:
		e.metricInc(MetricRegisterRejected)
	}

	err := e.outcomeErr(res.Outcome)
	e.emitAudit(ctx, auditEventRegister, err == nil, res.User.ID, flows.NormalizeEmail(in.Email), err, func() map[string]string {
		return map[string]string{"outcome": out.Outcome.String()}
	})
	return out, err
}
