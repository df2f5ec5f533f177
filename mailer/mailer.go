// Package mailer delivers transactional email (OTP codes, reset notices).
package mailer

import (
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"
)

type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewFromEnv returns a configured mailer or nil when SMTP credentials are
// missing, in which case callers log the message instead of sending it.
func NewFromEnv() *SMTPMailer {
	host := os.Getenv("SMTP_HOST")
	user := os.Getenv("EMAIL_USER")
	pass := os.Getenv("EMAIL_PASS")
	if host == "" || user == "" {
		return nil
	}

	port := 587
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && p > 0 {
		port = p
	}

	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = user
	}

	return &SMTPMailer{dialer: gomail.NewDialer(host, port, user, pass), from: from}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		log.WithFields(log.Fields{"to": to, "subject": subject}).Errorf("email send failed: %v", err)
		return err
	}
	return nil
}
