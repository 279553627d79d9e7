package providers

import (
	"fmt"
	"net/smtp"
	"strings"
)

const mimeBoundary = "trendr-digest-boundary"

// SMTPSender sends digest emails via SMTP
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send sends a multipart email via SMTP. Authentication is skipped when no
// username is configured (local relay).
func (s *SMTPSender) Send(to, subject, htmlBody, plainBody string) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	var msg strings.Builder
	headers := []string{
		"From: " + s.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="` + mimeBoundary + `"`,
	}
	msg.WriteString(strings.Join(headers, "\r\n"))
	msg.WriteString("\r\n\r\n")

	writePart := func(contentType, body string) {
		msg.WriteString("--" + mimeBoundary + "\r\n")
		msg.WriteString("Content-Type: " + contentType + `; charset="utf-8"` + "\r\n\r\n")
		msg.WriteString(body)
		msg.WriteString("\r\n")
	}
	writePart("text/plain", plainBody)
	writePart("text/html", htmlBody)
	msg.WriteString("--" + mimeBoundary + "--\r\n")

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
