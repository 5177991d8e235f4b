package email

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/mdhub/note-service/internal/config"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendDeleteConfirmation sends the account-deletion confirmation link
func (s *Sender) SendDeleteConfirmation(to, username, link string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Confirm Account Deletion"

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"A deletion of your account was requested. If this was you, follow the link below to permanently delete your account and all of your notes:\n\n"+
			"%s\n\n"+
			"The link expires after %d hours. If you did not request this, you can ignore this email.\n"+
			"\nBest regards,\nNote Service",
		username, link, s.cfg.DeleteTokenTTL,
	)
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
