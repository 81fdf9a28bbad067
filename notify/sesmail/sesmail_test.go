package sesmail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/credflow/notify"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	got      *ses.SendEmailInput
	deadline bool
	err      error
}

func (f *fakeSES) SendEmail(ctx context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.got = in
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSendBuildsSESInput(t *testing.T) {
	api := &fakeSES{}
	s, err := New(api, Config{From: "noreply@x.com", ReplyTo: "help@x.com", ConfigurationSet: "auth"}, notify.DefaultTemplates("https://x.com/v?t="))
	require.NoError(t, err)

	err = s.Send(context.Background(), notify.Notification{
		Kind:      notify.KindEmailVerification,
		To:        "a@x.com",
		Username:  "ann",
		Code:      "tok",
		ExpiresIn: time.Hour,
	})
	require.NoError(t, err)

	require.NotNil(t, api.got)
	require.True(t, api.deadline)
	require.Equal(t, "noreply@x.com", aws.ToString(api.got.Source))
	require.Equal(t, []string{"a@x.com"}, api.got.Destination.ToAddresses)
	require.Equal(t, []string{"help@x.com"}, api.got.ReplyToAddresses)
	require.Equal(t, "auth", aws.ToString(api.got.ConfigurationSetName))
	require.Equal(t, "Verify your email address", aws.ToString(api.got.Message.Subject.Data))
	require.Contains(t, aws.ToString(api.got.Message.Body.Text.Data), "https://x.com/v?t=tok")
}

func TestSendWrapsFailure(t *testing.T) {
	api := &fakeSES{err: errors.New("throttled")}
	s, err := New(api, Config{From: "noreply@x.com"}, nil)
	require.NoError(t, err)

	err = s.Send(context.Background(), notify.Notification{Kind: notify.KindPasswordResetOTP, To: "a@x.com", Code: "123456"})
	require.ErrorIs(t, err, ErrSendFailed)
	require.NotContains(t, err.Error(), "123456")
}

func TestNewValidates(t *testing.T) {
	_, err := New(nil, Config{From: "x@x.com"}, nil)
	require.Error(t, err)
	_, err = New(&fakeSES{}, Config{}, nil)
	require.Error(t, err)
}
