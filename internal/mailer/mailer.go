// Package mailer sends plain SMTP mail. Host, port and credentials come
// from the SMTP_* configuration keys.
package mailer

import (
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// Config holds SMTP settings.
type Config struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// Sender delivers one message.
type Sender interface {
	Send(recipient, subject, body string) error
}

// SMTPMailer is a Sender backed by net/smtp.
type SMTPMailer struct {
	cfg      Config
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New validates cfg and returns an SMTPMailer.
func New(cfg Config) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.Port == "" {
		return nil, fmt.Errorf("SMTP host and port must be provided")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("sender email address cannot be empty")
	}
	return &SMTPMailer{cfg: cfg, sendMail: smtp.SendMail}, nil
}

// Send delivers body to recipient. HTML is detected from <html> or <p> tags.
func (m *SMTPMailer) Send(recipient, subject, body string) error {
	if recipient == "" {
		return fmt.Errorf("recipient email address cannot be empty")
	}
	if subject == "" {
		return fmt.Errorf("email subject cannot be empty")
	}

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	if err := m.sendMail(addr, auth, m.cfg.From, []string{recipient}, buildMessage(m.cfg.From, recipient, subject, body)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func buildMessage(sender, recipient, subject, body string) []byte {
	contentType := "text/plain; charset=UTF-8"
	lower := strings.ToLower(body)
	if strings.Contains(lower, "<html>") || strings.Contains(lower, "<p>") {
		contentType = "text/html; charset=UTF-8"
	}
	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: %s\r\n"+
		"\r\n"+
		"%s\r\n", recipient, sender, subject, contentType, body))
}

// WelcomeMessage returns the subject and HTML body sent after onboarding.
func WelcomeMessage(name, username string) (string, string) {
	if name == "" {
		name = "traveler"
	}
	subject := "Welcome to Tripzi"
	body := fmt.Sprintf("<html><body><p>Hi %s,</p>"+
		"<p>Your profile <b>@%s</b> is ready. Find a trip to join or start your own.</p>"+
		"<p>See you on the road,<br>The Tripzi team</p></body></html>", name, username)
	return subject, body
}
