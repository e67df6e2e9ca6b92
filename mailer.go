package main

import (
	"fmt"
	"log"

	cfg "github.com/example/attendauth/internal/config"
	"gopkg.in/gomail.v2"
)

// Mailer delivers the password-reset link out of band.
type Mailer interface {
	SendResetLink(to, link string) error
}

// SMTPMailer sends mail through a configured SMTP relay.
type SMTPMailer struct {
	cfg *cfg.Config
}

func NewSMTPMailer(c *cfg.Config) *SMTPMailer {
	return &SMTPMailer{cfg: c}
}

func (m *SMTPMailer) SendResetLink(to, link string) error {
	if m.cfg.SMTPHost == "" || m.cfg.SMTPFrom == "" {
		log.Printf("smtp not configured, skipping reset email to %s", to)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.SMTPFrom)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Password Reset Request")
	msg.SetBody("text/html", fmt.Sprintf(`
		<p>You requested a password reset.</p>
		<p>Click <a href="%s">here</a> to reset your password.</p>
		<p>If you did not request this, please ignore this email.</p>
	`, link))

	d := gomail.NewDialer(m.cfg.SMTPHost, m.cfg.SMTPPort, m.cfg.SMTPUser, m.cfg.SMTPPass)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// NopMailer drops mail, used by tests and DB_ADAPTER=memory setups.
type NopMailer struct{}

func (NopMailer) SendResetLink(to, link string) error { return nil }
