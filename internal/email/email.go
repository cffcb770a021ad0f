// Package email delivers transactional mail (OTP codes, password resets).
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
)

// Sender delivers a message to a recipient address.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender writes outbound mail to the structured logger instead of
// delivering it. Used in development and tests.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a logging mail sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send writes the message to the structured logger.
func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	if s == nil || s.logger == nil {
		return nil
	}
	s.logger.Info("email", "to", to, "subject", subject, "body", body)
	return nil
}

// SMTPSender delivers mail over SMTP with PLAIN auth.
type SMTPSender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// NewSMTPSender constructs an SMTP-backed mail sender.
func NewSMTPSender(host, port, username, password, from string) *SMTPSender {
	return &SMTPSender{Host: host, Port: port, Username: username, Password: password, From: from}
}

// Send delivers the message through the configured SMTP relay.
func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.From, to, subject, body)
	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	if err := smtp.SendMail(addr, auth, s.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
