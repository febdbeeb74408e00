// Package notify sends campaign reports by e-mail.
package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPSink struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
	now      func() time.Time
}

func NewSMTPSink(cfg SMTPConfig) *SMTPSink {
	return &SMTPSink{cfg: cfg, sendMail: smtp.SendMail, now: time.Now}
}

func (s *SMTPSink) Send(ctx context.Context, subject, body string, recipients []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients")
	}

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.sendMail(addr, auth, s.cfg.From, recipients, s.compose(subject, body, recipients)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", addr, err)
	}
	return nil
}

func (s *SMTPSink) compose(subject, body string, recipients []string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
