// Package notification delivers partner-facing messages.
package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"bizdir/config"
	"bizdir/internal/domain/service"

	"github.com/pkg/errors"
)

const implicitTLSPort = 465

// smtpMailer sends HTML mail through an authenticated relay.
// Port 465 uses implicit TLS; other ports go through smtp.SendMail, which upgrades with STARTTLS when offered.
type smtpMailer struct {
	cfg    config.SMTPConfig
	dialer net.Dialer
}

// NewSMTPMailer is the constructor for smtpMailer.
func NewSMTPMailer(cfg config.SMTPConfig) service.Mailer {
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, html string) error {
	msg := buildMessage(m.cfg.From, to, subject, html)
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if m.cfg.Port != implicitTLSPort {
		if err := sendWithDeadline(ctx, func() error {
			return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg)
		}); err != nil {
			return errors.Wrap(err, "failed to send email")
		}

		return nil
	}

	conn, err := (&tls.Dialer{NetDialer: &m.dialer, Config: &tls.Config{ServerName: m.cfg.Host}}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrap(err, "failed to connect to smtp relay")
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return errors.Wrap(err, "failed to open smtp session")
	}
	defer client.Quit()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return errors.Wrap(err, "smtp authentication failed")
		}
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return errors.Wrap(err, "smtp MAIL FROM rejected")
	}
	if err := client.Rcpt(to); err != nil {
		return errors.Wrap(err, "smtp RCPT TO rejected")
	}

	w, err := client.Data()
	if err != nil {
		return errors.Wrap(err, "smtp DATA rejected")
	}
	if _, err := w.Write(msg); err != nil {
		return errors.Wrap(err, "failed to write email body")
	}

	return errors.Wrap(w.Close(), "failed to finish email body")
}

// sendWithDeadline runs fn and gives up when ctx ends. smtp.SendMail has no context parameter,
// so an abandoned attempt finishes in the background.
func sendWithDeadline(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildMessage(from, to, subject, html string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)

	return []byte(b.String())
}
