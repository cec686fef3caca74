package notification

import (
	"context"
	"log/slog"

	"bizdir/config"
	deliverycontext "bizdir/internal/delivery/context"
	"bizdir/internal/domain/service"
)

// logMailer stands in for the relay when smtp is not configured. The body is never logged
// because it carries the temporary password.
type logMailer struct {
	logger *slog.Logger
}

// NewLogMailer is the constructor for logMailer.
func NewLogMailer(logger *slog.Logger) service.Mailer {
	return &logMailer{logger: logger}
}

func (m *logMailer) Send(ctx context.Context, to, subject, _ string) error {
	deliverycontext.GetLoggerOrDefault(ctx, m.logger).InfoContext(ctx, "Email delivery disabled, message dropped",
		slog.String("to", to),
		slog.String("subject", subject),
	)

	return nil
}

// NewMailer picks the smtp relay when smtp.host is set and the log mailer otherwise.
func NewMailer(cfg *config.Config, logger *slog.Logger) service.Mailer {
	if cfg.SMTP == nil || cfg.SMTP.Host == "" {
		logger.Warn("SMTP not configured, welcome emails will only be logged")

		return NewLogMailer(logger)
	}

	return NewSMTPMailer(*cfg.SMTP)
}
