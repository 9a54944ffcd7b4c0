package mail

import (
	"context"

	"github.com/avealov/rulehub/internal/logging"
)

// LogSender writes messages to the log instead of delivering them. Used in
// development when no SMTP host is configured.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.log.Info(ctx, "email (log-only delivery)", "to", to, "subject", subject, "body", body)
	return nil
}
