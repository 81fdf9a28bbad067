package credflow

import (
	"slices"
	"strings"
	"time"

	"github.com/MrEthical07/credflow/directory"
)

// Profile is the public view of a user record. It never carries the
// password hash.
type Profile struct {
	ID            string
	Username      string
	Email         string
	Role          string
	EmailVerified bool
	CreatedAt     time.Time
}

func profileOf(u directory.User) Profile {
	return Profile{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// LoginResult is returned by [Engine.Login] and [Engine.Refresh].
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         Profile
}

// RegisterInput is a registration request. Email and Username are
// normalized before use.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	BirthYear int
}

// RegisterOutcome tells a caller what registration did.
type RegisterOutcome int

const (
	// RegisterRejected means nothing was created; the error says why.
	RegisterRejected RegisterOutcome = iota
	// RegisterCreated means a new unverified account exists and a
	// verification message was dispatched.
	RegisterCreated
	// RegisterPendingVerification means the email already belongs to an
	// unverified account. No account was created and the verification
	// resend ran instead. Returned together with [ErrEmailNotVerified].
	RegisterPendingVerification
)

func (o RegisterOutcome) String() string {
	switch o {
	case RegisterCreated:
		return "created"
	case RegisterPendingVerification:
		return "pending_verification"
	}
	return "rejected"
}

// RegisterResult is returned by [Engine.Register].
type RegisterResult struct {
	Outcome RegisterOutcome
	User    Profile
}

// Principal is an authenticated access token holder.
type Principal struct {
	Subject   string
	Roles     []string
	TokenID   string
	ExpiresAt time.Time
}

// HasRole reports whether p carries role, with or without the role prefix.
func (p *Principal) HasRole(role, prefix string) bool {
	if p == nil || role == "" {
		return false
	}
	if !strings.HasPrefix(role, prefix) {
		role = prefix + role
	}
	return slices.Contains(p.Roles, role)
}
