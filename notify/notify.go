// Package notify delivers verification and password-reset messages. The
// credential workflows dispatch through [Sender] off the request path; a send
// failure is logged by the caller and never changes a workflow outcome.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"
	"time"
)

// Kind identifies the message being sent.
type Kind string

const (
	KindEmailVerification Kind = "email_verification"
	KindPasswordResetOTP  Kind = "password_reset_otp"
)

// ErrUnknownKind is returned when no template exists for a notification kind.
var ErrUnknownKind = errors.New("notify: unknown notification kind")

// Notification is one outbound message. Code is the verify token or the OTP
// and must not be logged.
type Notification struct {
	Kind      Kind
	To        string
	Username  string
	Code      string
	ExpiresIn time.Duration
}

// Sender delivers notifications.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// SenderFunc adapts a function to [Sender].
type SenderFunc func(ctx context.Context, n Notification) error

func (f SenderFunc) Send(ctx context.Context, n Notification) error { return f(ctx, n) }

// Message is a rendered notification.
type Message struct {
	Subject string
	Text    string
}

// Templates renders notifications into messages.
type Templates struct {
	// LinkBase prefixes verification tokens to form a clickable link. When
	// empty the raw token is shown.
	LinkBase string
	subjects map[Kind]string
	bodies   map[Kind]*template.Template
}

var defaultBodies = map[Kind]string{
	KindEmailVerification: `Hi {{.Username}},

Confirm your email address by opening:

{{.Link}}

The link expires in {{.ExpiresIn}}.
`,
	KindPasswordResetOTP: `Hi {{.Username}},

Your password reset code is {{.Code}}. It expires in {{.ExpiresIn}}.

If you did not ask to reset your password you can ignore this message.
`,
}

// DefaultTemplates returns the built-in subjects and bodies.
func DefaultTemplates(linkBase string) *Templates {
	t := &Templates{
		LinkBase: linkBase,
		subjects: map[Kind]string{
			KindEmailVerification: "Verify your email address",
			KindPasswordResetOTP:  "Your password reset code",
		},
		bodies: make(map[Kind]*template.Template, len(defaultBodies)),
	}
	for kind, body := range defaultBodies {
		t.bodies[kind] = template.Must(template.New(string(kind)).Parse(body))
	}
	return t
}

// Override replaces the subject and body template for kind.
func (t *Templates) Override(kind Kind, subject, body string) error {
	tmpl, err := template.New(string(kind)).Parse(body)
	if err != nil {
		return fmt.Errorf("notify: parse %s template: %w", kind, err)
	}
	t.subjects[kind] = subject
	t.bodies[kind] = tmpl
	return nil
}

// Render produces the message for n.
func (t *Templates) Render(n Notification) (Message, error) {
	tmpl, ok := t.bodies[n.Kind]
	if !ok {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, n.Kind)
	}

	link := n.Code
	if t.LinkBase != "" {
		link = t.LinkBase + n.Code
	}
	data := struct {
		Username  string
		Code      string
		Link      string
		ExpiresIn time.Duration
	}{n.Username, n.Code, link, n.ExpiresIn}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("notify: render %s: %w", n.Kind, err)
	}
	return Message{Subject: t.subjects[n.Kind], Text: buf.String()}, nil
}
