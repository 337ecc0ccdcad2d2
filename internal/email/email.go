package email

import "context"

// Status is the final state reported by the delivery provider.
type Status string

// Delivery statuses.
const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Message is one outgoing HTML email.
type Message struct {
	Subject    string
	HTMLBody   string
	Sender     string
	Recipients []string
}

// Result is the provider's answer to a send.
type Result struct {
	Status    Status
	MessageID string
}

// Succeeded reports whether the provider accepted the message.
func (r Result) Succeeded() bool {
	return r.Status == StatusSucceeded
}

// Sender delivers a message and blocks until the provider reports a status.
type Sender interface {
	Send(ctx context.Context, msg Message) (Result, error)
}
