package notify

import (
	"context"
	"log/slog"
)

// LogSender writes notifications to a logger instead of delivering them.
// Intended for development.
type LogSender struct {
	logger    *slog.Logger
	templates *Templates
	// IncludeBody logs the rendered body, code included, at debug level.
	IncludeBody bool
}

// NewLogSender returns a LogSender; nil arguments select defaults.
func NewLogSender(logger *slog.Logger, templates *Templates) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	if templates == nil {
		templates = DefaultTemplates("")
	}
	return &LogSender{logger: logger, templates: templates}
}

func (s *LogSender) Send(ctx context.Context, n Notification) error {
	msg, err := s.templates.Render(n)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "notify/log: message sent (dev mode)",
		"kind", string(n.Kind),
		"to", n.To,
		"subject", msg.Subject,
	)
	if s.IncludeBody {
		s.logger.DebugContext(ctx, "notify/log: body", "kind", string(n.Kind), "body", msg.Text)
	}
	return nil
}
