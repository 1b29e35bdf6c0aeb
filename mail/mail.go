// Package mail sends a command's output to one recipient over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"gicowa/config"
	"gicowa/hint"
	"gicowa/logger"
)

const defaultSMTPPort = 25

// Sender delivers built messages. *gomail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// Mailer delivers results using the mail section of the configuration.
type Mailer struct {
	cfg       config.MailConfig
	now       func() time.Time
	newSender func(cfg config.MailConfig) (Sender, error)
}

func NewMailer(cfg config.MailConfig) *Mailer {
	return &Mailer{cfg: cfg, now: time.Now, newSender: newSender}
}

// secure reports whether to use implicit TLS with authentication.
func secure(cfg config.MailConfig) bool {
	return cfg.Port != 0 && cfg.Password != ""
}

func newSender(cfg config.MailConfig) (Sender, error) {
	opts := []gomail.Option{
		gomail.WithPort(defaultSMTPPort),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if secure(cfg) {
		opts = []gomail.Option{
			gomail.WithPort(cfg.Port),
			gomail.WithSSL(),
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Sender),
			gomail.WithPassword(cfg.Password),
		}
	}

	client, err := gomail.NewClient(cfg.Server, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to set up SMTP client for %s: %w", cfg.Server, err)
	}
	return client, nil
}

// SendResult mails body to recipient with a subject naming label.
func (m *Mailer) SendResult(ctx context.Context, label, body, recipient string) error {
	logger.Info("Sending result",
		zap.String("label", label),
		zap.String("recipient", recipient),
		zap.String("server", m.cfg.Server),
		zap.Bool("tls", secure(m.cfg)))

	msg, err := m.message(label, body, recipient)
	if err != nil {
		return err
	}

	sender, err := m.newSender(m.cfg)
	if err != nil {
		return err
	}
	if err := sender.DialAndSendWithContext(ctx, msg); err != nil {
		var sendErr *gomail.SendError
		if errors.As(err, &sendErr) && sendErr.Reason == gomail.ErrSMTPRcptTo {
			return malformed(fmt.Errorf("recipient %s refused: %w", recipient, err), recipient)
		}
		return fmt.Errorf("failed to send result to %s: %w", recipient, err)
	}

	logger.Info("Result sent", zap.String("recipient", recipient))
	return nil
}

// Subject returns the subject line used for label.
func Subject(label string) string {
	return fmt.Sprintf("[gicowa] %s.", label)
}

func (m *Mailer) message(label, body, recipient string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.Sender); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.cfg.Sender, err)
	}
	if err := msg.To(recipient); err != nil {
		return nil, malformed(fmt.Errorf("invalid recipient %q: %w", recipient, err), recipient)
	}
	msg.Subject(Subject(label))
	msg.SetDateWithValue(m.now())
	msg.SetMessageID()
	msg.SetBodyString(gomail.TypeTextPlain, body)
	return msg, nil
}

func malformed(err error, recipient string) error {
	return hint.Wrap(err, fmt.Sprintf("%s address malformed?", recipient))
}
