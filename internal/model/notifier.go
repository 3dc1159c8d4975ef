package model

import "context"

// Channel is the delivery medium for an outbound notification.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Message is a single outbound notification.
type Message struct {
	Subject string
	Body    string
}

// Notifier delivers messages to a destination over a channel. Delivery is
// best-effort; failures surface to the caller and must never leave secrets
// behind in persistent state.
type Notifier interface {
	Send(ctx context.Context, channel Channel, destination string, message Message) error
}
