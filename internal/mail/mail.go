package mail

import (
	"context"

	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) message(to, subject, htmlBody string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	return m
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)
	if err := d.DialAndSend(s.message(to, subject, htmlBody)); err != nil {
		log.WithError(err).WithField("to", to).Error("failed to send mail")
		return err
	}
	log.WithField("to", to).Info("mail sent")
	return nil
}

// LogSender writes mail to the log instead of delivering it. Used when no
// SMTP host is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, subject, htmlBody string) error {
	log.WithFields(log.Fields{
		"to":      to,
		"subject": subject,
		"body":    htmlBody,
	}).Info("mail not delivered (no SMTP host)")
	return nil
}

// New picks the SMTP sender when a host is configured.
func New(cfg SMTPConfig) Sender {
	if cfg.Host == "" {
		return LogSender{}
	}
	return NewSMTPSender(cfg)
}
