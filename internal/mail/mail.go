// Package mail delivers notification emails through a pluggable transport.
package mail

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message is a fully rendered email for one recipient
type Message struct {
	NotificationID uuid.UUID `json:"notification_id"`
	To             string    `json:"to"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	HTMLBody       string    `json:"html_body,omitempty"`
}

// Transport sends one message synchronously
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Outcome tells the dispatcher what a successful hand-off means
type Outcome int

const (
	// Delivered means the transport accepted the message
	Delivered Outcome = iota
	// Queued means a background worker will deliver and stamp the notification
	Queued
)

// Sender hands a message off for delivery
type Sender interface {
	Deliver(ctx context.Context, msg Message) (Outcome, error)
}

// Direct sends on the caller's goroutine
type Direct struct {
	Transport Transport
}

// Deliver implements Sender
func (d Direct) Deliver(ctx context.Context, msg Message) (Outcome, error) {
	return Delivered, d.Transport.Send(ctx, msg)
}

// LogTransport writes messages to the log instead of sending them
type LogTransport struct {
	Logger *zap.SugaredLogger
}

// Send implements Transport
func (t LogTransport) Send(_ context.Context, msg Message) error {
	t.Logger.Infow("Email (log transport)",
		"to", msg.To,
		"subject", msg.Subject,
		"notification_id", msg.NotificationID,
	)
	return nil
}

// Options configures NewTransport
type Options struct {
	Kind   string // "smtp" | "http" | "log"
	From   string
	SMTP   SMTPConfig
	APIURL string
	APIKey string
	Logger *zap.SugaredLogger
}

// NewTransport builds the configured transport
func NewTransport(opts Options) (Transport, error) {
	switch opts.Kind {
	case "smtp":
		return NewSMTPTransport(opts.SMTP, opts.From)
	case "http":
		return NewHTTPTransport(opts.APIURL, opts.APIKey, opts.From), nil
	case "log", "":
		return LogTransport{Logger: opts.Logger}, nil
	}
	return nil, fmt.Errorf("unknown mail transport %q", opts.Kind)
}
