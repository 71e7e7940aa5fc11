package service

import (
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"
)

// MailConfig holds the SMTP settings the mailer dials with.
type MailConfig struct {
	Host     string
	Port     int
	Sender   string
	Password string
}

// Mailer implements Notifier over SMTP via gomail.
type Mailer struct {
	cfg MailConfig
}

var _ Notifier = (*Mailer)(nil)

func NewMailer(cfg MailConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) SendVerificationCode(email, code string) error {
	body := fmt.Sprintf(`<p>Your verification code is:</p>
<div style="font-size: 28px; font-weight: bold; letter-spacing: 3px;">%s</div>
<p>This code will expire in 3 minutes.</p>`, code)

	return m.send(email, "Verify Your Email", body)
}

func (m *Mailer) SendResetLoginAttemptsLink(email, name, link string) error {
	body := fmt.Sprintf(`<p>Hello %s,</p>
<p>Your account is locked after too many failed login attempts.</p>
<p>Click <a href='%s'>here</a> to reset your login attempts. This link will expire in 1 hour.</p>`, name, link)

	return m.send(email, "Reset Login Attempts", body)
}

func (m *Mailer) SendResetVerificationAttemptsLink(email, name, link string) error {
	body := fmt.Sprintf(`<p>Hello %s,</p>
<p>You entered a wrong verification code too many times.</p>
<p>Click <a href='%s'>here</a> to reset your verification attempts. This link will expire in 1 hour.</p>`, name, link)

	return m.send(email, "Reset Verification Attempts", body)
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	if m.cfg.Host == "" || m.cfg.Sender == "" {
		return errors.New("mail config missing")
	}
	if to == m.cfg.Sender {
		return errors.New("invalid email address")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.Sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Sender, m.cfg.Password)

	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}
