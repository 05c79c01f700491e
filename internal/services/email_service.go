package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// Message is one outgoing HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer accepts a message and attempts delivery.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
	}
}

// Send ждёт DialAndSend не дольше, чем позволяет ctx.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)

	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(gm) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

type EmailService interface {
	SendVerificationCode(ctx context.Context, to, code string) error
	SendPasswordResetCode(ctx context.Context, to, code string) error
}

type emailService struct {
	mailer      Mailer
	sendTimeout time.Duration
	codeTTL     time.Duration
}

func NewEmailService(mailer Mailer, sendTimeout, codeTTL time.Duration) EmailService {
	return &emailService{
		mailer:      mailer,
		sendTimeout: sendTimeout,
		codeTTL:     codeTTL,
	}
}

func (s *emailService) SendVerificationCode(ctx context.Context, to, code string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2>Verification Code</h2>
			<p>Your verification code is:</p>
			<h1 style="background-color: #f0f0f0; padding: 20px; text-align: center; letter-spacing: 5px;">%s</h1>
			<p>This code will expire in %d minutes.</p>
			<p>If you didn't request this code, please ignore this email.</p>
		</div>
	`, code, int(s.codeTTL.Minutes()))

	return s.send(ctx, Message{To: to, Subject: "Your Verification Code", HTML: body})
}

func (s *emailService) SendPasswordResetCode(ctx context.Context, to, code string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2>Password Reset Request</h2>
			<p>You have requested to reset your password. Use the code below:</p>
			<h1 style="background-color: #f0f0f0; padding: 20px; text-align: center; letter-spacing: 5px;">%s</h1>
			<p>This code will expire in %d minutes.</p>
			<p>If you didn't request this, please ignore this email and your password will remain unchanged.</p>
		</div>
	`, code, int(s.codeTTL.Minutes()))

	return s.send(ctx, Message{To: to, Subject: "Password Reset Code", HTML: body})
}

func (s *emailService) send(ctx context.Context, msg Message) error {
	if s.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.sendTimeout)
		defer cancel()
	}
	start := time.Now()
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %q: %w", msg.Subject, err)
	}
	log.Debug().Str("subject", msg.Subject).Dur("took", time.Since(start)).Msg("[email][send] delivered")
	return nil
}
