package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"text/template"
	"time"

	gomail "gopkg.in/mail.v2"
)

var ErrMissingSMTPConfig = errors.New("smtp host and sender address are required")

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPClient struct {
	from   string
	dialer *gomail.Dialer
	retry  time.Duration
}

func NewSMTPClient(cfg SMTPConfig) (*SMTPClient, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, ErrMissingSMTPConfig
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPClient{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		retry:  time.Second,
	}, nil
}

// Render executes the subject, plainBody and htmlBody blocks of a template.
func Render(templateFile string, data any) (subject, plain, html string, err error) {
	tmpl, err := template.New("email").ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return "", "", "", err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "subject", data); err != nil {
		return "", "", "", err
	}
	subject = buf.String()

	buf.Reset()
	if err := tmpl.ExecuteTemplate(&buf, "plainBody", data); err != nil {
		return "", "", "", err
	}
	plain = buf.String()

	htmlTmpl, err := htmltemplate.New("email").ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return "", "", "", err
	}
	buf.Reset()
	if err := htmlTmpl.ExecuteTemplate(&buf, "htmlBody", data); err != nil {
		return "", "", "", err
	}
	html = buf.String()
	return subject, plain, html, nil
}

func (c *SMTPClient) Send(ctx context.Context, templateFile, email string, data any) error {
	subject, plain, html, err := Render(templateFile, data)
	if err != nil {
		return fmt.Errorf("render %s: %w", templateFile, err)
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", c.from, FromName)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", plain)
	msg.AddAlternative("text/html", html)

	var lastErr error
	for i := 0; i < maxRetires; i++ {
		if lastErr = c.dialer.DialAndSend(msg); lastErr == nil {
			return nil
		}

		// exponential backoff
		select {
		case <-ctx.Done():
			return fmt.Errorf("send to %s: %w (last error: %v)", email, ctx.Err(), lastErr)
		case <-time.After(c.retry * time.Duration(1<<i)):
		}
	}
	return fmt.Errorf("failed to send email after %d attempts, error: %w", maxRetires, lastErr)
}
