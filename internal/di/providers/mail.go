package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookbuddyapp/bookbuddy-server/internal/config"
	"github.com/bookbuddyapp/bookbuddy-server/internal/logger"
	"github.com/bookbuddyapp/bookbuddy-server/internal/mail"
)

// ProvideMailer provides the outbound mail sender. Without an SMTP host,
// messages are written to the log.
func ProvideMailer(i do.Injector) (mail.Sender, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Mail.Enabled() {
		log.Warn("No SMTP server configured, emails will be logged")
		return mail.NewLogSender(log.Logger), nil
	}

	sender, err := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		FromName: cfg.Mail.FromName,
		StartTLS: cfg.Mail.StartTLS,
	})
	if err != nil {
		return nil, err
	}

	log.Info("SMTP mailer configured", "host", cfg.Mail.Host, "port", cfg.Mail.Port)
	return sender, nil
}
