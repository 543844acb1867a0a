package email

import "context"

type Message struct {
	To      []string
	Subject string
	HTML    string
}

//go:generate mockgen -source=provider.go -destination=mock_email/mock_provider.go -package=mock_email

// Sender delivers a rendered message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type NoOpSender struct{}

func (NoOpSender) Send(context.Context, Message) error {
	return nil
}
