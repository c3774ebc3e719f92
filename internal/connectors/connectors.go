package connectors

import (
	"context"

	"megatex/internal"
)

// Delivery statuses recorded for outgoing quotes.
const (
	StatusPending = "pending"
	StatusStored  = "stored"
	StatusSent    = "sent"
	StatusDrafted = "drafted"
	StatusFailed  = "failed"
)

// QuoteSender hands a built quote email to a mail provider and reports
// the resulting status.
type QuoteSender interface {
	Provider() string
	Send(ctx context.Context, mail internal.OutgoingMail) (string, error)
}

// LocalSender keeps the message in the outbox only.
type LocalSender struct{}

func (LocalSender) Provider() string { return "outbox" }

func (LocalSender) Send(ctx context.Context, _ internal.OutgoingMail) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return StatusStored, nil
}
