// AngelaMos | 2026
// mailer.go

// Package mail is the outbound email collaborator. Sending is always
// best-effort: callers log failures and move on, the durable notification
// row is the authoritative side effect.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/bandmate/backend/internal/config"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Service is the full outbound surface; Mailer and Noop both satisfy it.
type Service interface {
	Sender
	SendVerificationEmail(ctx context.Context, to, code string) error
	SendInviteEmail(ctx context.Context, to, bandName, code string) error
}

type Mailer struct {
	client  *gomail.Client
	from    string
	baseURL string
}

func NewMailer(cfg config.SMTPConfig, baseURL string) (*Mailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}

	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &Mailer{
		client:  client,
		from:    cfg.From,
		baseURL: baseURL,
	}, nil
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()

	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	return nil
}

func (m *Mailer) SendVerificationEmail(
	ctx context.Context,
	to, code string,
) error {
	url := fmt.Sprintf("%s/v1/activate/%s", m.baseURL, code)
	body := "Click on the following link to activate your account. " + url
	return m.Send(ctx, to, "Welcome to Bandmate", body)
}

func (m *Mailer) SendInviteEmail(
	ctx context.Context,
	to, bandName, code string,
) error {
	body := fmt.Sprintf(
		"You have been invited to join %s. Your invite code is %s.",
		bandName,
		code,
	)
	return m.Send(ctx, to, "Band invitation", body)
}

// Noop is used when smtp is disabled in config.
type Noop struct{}

func (Noop) Send(ctx context.Context, to, subject, body string) error {
	return nil
}

func (Noop) SendVerificationEmail(ctx context.Context, to, code string) error {
	return nil
}

func (Noop) SendInviteEmail(ctx context.Context, to, bandName, code string) error {
	return nil
}
