package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderVerificationLink(t *testing.T) {
	tmpl := DefaultTemplates("https://app.example/verify?token=")
	msg, err := tmpl.Render(Notification{
		Kind:      KindEmailVerification,
		To:        "a@x.com",
		Username:  "ann",
		Code:      "tok123",
		ExpiresIn: 24 * time.Hour,
	})
	require.NoError(t, err)
	require.Equal(t, "Verify your email address", msg.Subject)
	require.Contains(t, msg.Text, "https://app.example/verify?token=tok123")
	require.Contains(t, msg.Text, "Hi ann")
}

func TestRenderOTP(t *testing.T) {
	msg, err := DefaultTemplates("").Render(Notification{Kind: KindPasswordResetOTP, Code: "042917", ExpiresIn: 5 * time.Minute})
	require.NoError(t, err)
	require.Contains(t, msg.Text, "042917")
	require.Contains(t, msg.Text, "5m0s")
}

func TestRenderUnknownKind(t *testing.T) {
	_, err := DefaultTemplates("").Render(Notification{Kind: "sms"})
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestOverrideTemplate(t *testing.T) {
	tmpl := DefaultTemplates("")
	require.NoError(t, tmpl.Override(KindPasswordResetOTP, "Code", "code={{.Code}}"))
	msg, err := tmpl.Render(Notification{Kind: KindPasswordResetOTP, Code: "111111"})
	require.NoError(t, err)
	require.Equal(t, "code=111111", msg.Text)

	require.Error(t, tmpl.Override(KindPasswordResetOTP, "Code", "{{.Code"))
}

func TestLogSenderOmitsCodeByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := NewLogSender(logger, nil)

	require.NoError(t, s.Send(context.Background(), Notification{Kind: KindPasswordResetOTP, To: "a@x.com", Code: "987654"}))
	require.Contains(t, buf.String(), "to=a@x.com")
	require.False(t, strings.Contains(buf.String(), "987654"))
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	ctx := context.Background()
	require.NoError(t, r.Send(ctx, Notification{Kind: KindEmailVerification, To: "a@x.com", Code: "1"}))
	require.NoError(t, r.Send(ctx, Notification{Kind: KindEmailVerification, To: "a@x.com", Code: "2"}))

	last, ok := r.Last(KindEmailVerification, "a@x.com")
	require.True(t, ok)
	require.Equal(t, "2", last.Code)
	_, ok = r.Last(KindPasswordResetOTP, "a@x.com")
	require.False(t, ok)
	require.Len(t, r.All(), 2)

	r.Err = errors.New("down")
	require.Error(t, r.Send(ctx, Notification{}))
}
