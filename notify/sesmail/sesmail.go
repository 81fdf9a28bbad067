// Package sesmail delivers notifications through Amazon SES.
package sesmail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/credflow/notify"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// ErrSendFailed wraps any SES delivery error.
var ErrSendFailed = errors.New("sesmail: send failed")

// API is the slice of the SES client the sender uses. *ses.Client satisfies it.
type API interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Config configures a [Sender].
type Config struct {
	From    string
	ReplyTo string
	// ConfigurationSet is the optional SES configuration set name.
	ConfigurationSet string
	// Timeout bounds a single SendEmail call; zero means 10s.
	Timeout time.Duration
}

// Sender implements notify.Sender on SES.
type Sender struct {
	api       API
	cfg       Config
	templates *notify.Templates
}

// New returns a Sender. templates may be nil to use the defaults.
func New(api API, cfg Config, templates *notify.Templates) (*Sender, error) {
	if api == nil {
		return nil, errors.New("sesmail: nil SES client")
	}
	if cfg.From == "" {
		return nil, errors.New("sesmail: From address is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if templates == nil {
		templates = notify.DefaultTemplates("")
	}
	return &Sender{api: api, cfg: cfg, templates: templates}, nil
}

func (s *Sender) Send(ctx context.Context, n notify.Notification) error {
	msg, err := s.templates.Render(n)
	if err != nil {
		return err
	}

	input := &ses.SendEmailInput{
		Source:      aws.String(s.cfg.From),
		Destination: &types.Destination{ToAddresses: []string{n.To}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
			},
		},
	}
	if s.cfg.ReplyTo != "" {
		input.ReplyToAddresses = []string{s.cfg.ReplyTo}
	}
	if s.cfg.ConfigurationSet != "" {
		input.ConfigurationSetName = aws.String(s.cfg.ConfigurationSet)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if _, err := s.api.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("%w: %s to %s: %v", ErrSendFailed, n.Kind, n.To, err)
	}
	return nil
}

var _ notify.Sender = (*Sender)(nil)
