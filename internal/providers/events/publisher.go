// Package events publishes ledger domain events for downstream consumers
// (reporting, notifications). Publishing is best effort and never blocks a
// committed write from succeeding.
package events

import (
	"context"
	"time"
)

const (
	TypeTransactionCreated = "transaction.created"
	TypeTransactionDeleted = "transaction.deleted"
	TypePaymentSubmitted   = "payment.submitted"
	TypePaymentConfirmed   = "payment.confirmed"
	TypePaymentRejected    = "payment.rejected"
)

type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
