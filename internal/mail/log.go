package mail

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the log instead of sending them.
// Used in development when no SMTP server is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that logs every message.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send logs msg.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email not sent, no SMTP server configured",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Text,
	)
	return nil
}
