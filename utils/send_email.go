package utils

import (
	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

type Mailer interface {
	SendEmail(to, subject, body string) error
}

// SMTPMailer sends HTML mail through an authenticated SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   username,
	}
}

func (m *SMTPMailer) SendEmail(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return errors.Wrap(err, "send email")
	}
	return nil
}
