// Package mail sends transactional email over SMTP with STARTTLS.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"

	"meets/config"
	"meets/internal/domain/service"
	"meets/internal/errors"
)

const resetSubject = "Reset your password - Meets"

// resetTemplate renders the password-reset email body. The link carries a
// one-time token that expires shortly after issue.
var resetTemplate = template.Must(template.New("reset").Parse(`<html>
<body>
	<p>Hi {{.Name}},</p>
	<p>Someone requested a password reset for your Meets account.</p>
	<p><a href="{{.ResetURL}}">Reset your password</a></p>
	<p>If you did not request this, you can safely ignore this email.</p>
</body>
</html>`))

type smtpMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   *slog.Logger
}

// NewSMTPMailer builds a Mailer backed by the configured SMTP server.
func NewSMTPMailer(cfg *config.Config, logger *slog.Logger) (service.Mailer, error) {
	if cfg.SMTP == nil || cfg.SMTP.Host == "" {
		return nil, errors.New("smtp configuration is required")
	}

	return &smtpMailer{
		host:     cfg.SMTP.Host,
		port:     cfg.SMTP.Port,
		username: cfg.SMTP.Username,
		password: cfg.SMTP.Password,
		from:     cfg.SMTP.From,
		logger:   logger,
	}, nil
}

// SendPasswordReset mails the reset link to the user.
func (m *smtpMailer) SendPasswordReset(ctx context.Context, toEmail, name, resetURL string) error {
	var body bytes.Buffer
	err := resetTemplate.Execute(&body, struct {
		Name     string
		ResetURL string
	}{Name: name, ResetURL: resetURL})
	if err != nil {
		return errors.Wrap(err, "render reset email")
	}

	if err := m.send(ctx, toEmail, resetSubject, body.String()); err != nil {
		return err
	}

	m.logger.Info("password reset email sent",
		slog.String("to", toEmail),
	)

	return nil
}

func (m *smtpMailer) send(ctx context.Context, to, subject, htmlBody string) error {
	var message strings.Builder
	headers := map[string]string{
		"From":         m.from,
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": `text/html; charset="UTF-8"`,
	}
	for key, value := range headers {
		fmt.Fprintf(&message, "%s: %s\r\n", key, value)
	}
	message.WriteString("\r\n")
	message.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	client, err := smtp.Dial(addr)
	if err != nil {
		return errors.Wrap(err, "connect to SMTP server")
	}
	defer client.Close()

	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{ServerName: m.host}
		if err := client.StartTLS(tlsConfig); err != nil {
			return errors.Wrap(err, "start TLS")
		}
	}

	if ok, _ := client.Extension("AUTH"); ok && m.username != "" {
		if err := client.Auth(auth); err != nil {
			return errors.Wrap(err, "SMTP auth")
		}
	}

	if err := client.Mail(m.from); err != nil {
		return errors.Wrap(err, "set sender")
	}
	if err := client.Rcpt(to); err != nil {
		return errors.Wrap(err, "set recipient")
	}

	writer, err := client.Data()
	if err != nil {
		return errors.Wrap(err, "open data writer")
	}
	if _, err := writer.Write([]byte(message.String())); err != nil {
		return errors.Wrap(err, "write message")
	}
	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "close data writer")
	}

	return errors.Wrap(client.Quit(), "quit SMTP session")
}
