package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// EmailNotifier sends plain-text reports over SMTP.
type EmailNotifier struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	// TLS is starttls (default), opportunistic, ssl or none.
	TLS string

	// send dials the server and delivers msg; replaced in tests.
	send func(ctx context.Context, msg *mail.Msg) error
}

func NewEmailNotifier(host string, port int, username, password, from, to, tlsMode string) *EmailNotifier {
	e := &EmailNotifier{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		To:       to,
		TLS:      tlsMode,
	}
	e.send = e.dialAndSend
	return e
}

func (e *EmailNotifier) Name() string { return "email" }

// Deliver sends body to recipient, or to the comma separated default list.
func (e *EmailNotifier) Deliver(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to := recipient
	if to == "" {
		to = e.To
	}
	var rcpts []string
	for _, addr := range strings.Split(to, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			rcpts = append(rcpts, addr)
		}
	}
	if len(rcpts) == 0 {
		return fmt.Errorf("email: no recipients")
	}

	msg, err := buildMessage(e.From, rcpts, subject, body, time.Now())
	if err != nil {
		return err
	}
	if err := e.send(ctx, msg); err != nil {
		return fmt.Errorf("email send: %w", err)
	}
	return nil
}

func (e *EmailNotifier) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	opts, err := e.clientOptions()
	if err != nil {
		return err
	}
	client, err := mail.NewClient(e.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func (e *EmailNotifier) clientOptions() ([]mail.Option, error) {
	opts := []mail.Option{mail.WithTimeout(30 * time.Second)}
	switch strings.ToLower(e.TLS) {
	case "", "starttls":
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	case "opportunistic":
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	case "ssl":
		opts = append(opts, mail.WithSSL())
	case "none":
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		return nil, fmt.Errorf("email: unknown tls mode %q", e.TLS)
	}
	opts = append(opts, mail.WithPort(e.Port))
	if e.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(e.Username),
			mail.WithPassword(e.Password),
		)
	}
	return opts, nil
}

func buildMessage(from string, to []string, subject, body string, now time.Time) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("email from %q: %w", from, err)
	}
	if err := msg.To(to...); err != nil {
		return nil, fmt.Errorf("email to: %w", err)
	}
	msg.Subject(subject)
	msg.SetDateWithValue(now)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
