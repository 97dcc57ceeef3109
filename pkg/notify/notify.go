// Package notify delivers operator notifications by email.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventory-service/pkg/config"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// ErrDispatch wraps every delivery failure.
var ErrDispatch = errors.New("notification dispatch failed")

// Message is one notification.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Result describes a delivery attempt.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Dispatcher sends notifications.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) (Result, error)
}

// New returns the SMTP dispatcher when a host is configured and the logging
// dispatcher otherwise.
func New(cfg config.SMTPConfig, log *zap.Logger) Dispatcher {
	if cfg.Host == "" {
		log.Warn("SMTP host not configured, notifications will only be logged")
		return NewLogDispatcher(log)
	}
	return NewSMTPDispatcher(cfg, log)
}

// SMTPDispatcher sends HTML mail through an SMTP relay.
type SMTPDispatcher struct {
	cfg config.SMTPConfig
	log *zap.Logger
}

func NewSMTPDispatcher(cfg config.SMTPConfig, log *zap.Logger) *SMTPDispatcher {
	return &SMTPDispatcher{cfg: cfg, log: log.Named("smtp")}
}

// Send dials the relay, delivers msg and closes the connection.
func (d *SMTPDispatcher) Send(ctx context.Context, msg Message) (Result, error) {
	m := mail.NewMsg()
	if err := m.From(d.cfg.From); err != nil {
		return Result{Message: "invalid sender"}, fmt.Errorf("%w: from %q: %v", ErrDispatch, d.cfg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return Result{Message: "invalid recipient"}, fmt.Errorf("%w: to %q: %v", ErrDispatch, msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)

	opts := []mail.Option{
		mail.WithPort(d.cfg.Port),
		mail.WithTimeout(d.cfg.Timeout),
	}
	if d.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(d.cfg.Username),
			mail.WithPassword(d.cfg.Password),
		)
	}
	client, err := mail.NewClient(d.cfg.Host, opts...)
	if err != nil {
		return Result{Message: "invalid smtp settings"}, fmt.Errorf("%w: %v", ErrDispatch, err)
	}

	start := time.Now()
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		d.log.Error("Failed to send email",
			zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.Error(err))
		return Result{Message: "Failed to send email"}, fmt.Errorf("%w: %v", ErrDispatch, err)
	}

	d.log.Info("Email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Duration("took", time.Since(start)))
	return Result{Success: true, Message: "Email sent"}, nil
}

// LogDispatcher writes notifications to the log instead of sending them.
type LogDispatcher struct {
	log *zap.Logger
}

func NewLogDispatcher(log *zap.Logger) *LogDispatcher {
	return &LogDispatcher{log: log.Named("notify")}
}

func (d *LogDispatcher) Send(_ context.Context, msg Message) (Result, error) {
	d.log.Info("Notification",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.HTMLBody)))
	return Result{Success: true, Message: "Notification logged"}, nil
}
