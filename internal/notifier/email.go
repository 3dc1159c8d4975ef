package notifier

import (
	"context"

	"gopkg.in/gomail.v2"

	"github.com/veriflow/identity/internal/model"
)

// SMTPConfig carries outbound mail parameters.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailSender delivers messages over SMTP.
type EmailSender struct {
	config SMTPConfig
}

func NewEmailSender(config SMTPConfig) *EmailSender {
	return &EmailSender{config: config}
}

var _ Sender = (*EmailSender)(nil)

// Send mails the message to the destination address.
func (s *EmailSender) Send(_ context.Context, destination string, message model.Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.From)
	m.SetHeader("To", destination)
	m.SetHeader("Subject", message.Subject)
	m.SetBody("text/plain", message.Body)

	d := gomail.NewDialer(s.config.Host, s.config.Port, s.config.Username, s.config.Password)

	return d.DialAndSend(m)
}
