// Package notifier delivers outbound email and SMS notifications.
package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/veriflow/identity/internal/logger"
	"github.com/veriflow/identity/internal/model"
	"github.com/veriflow/identity/internal/ratelimiter"
)

// errSendRateLimited is wrapped as transient so callers may retry later.
var errSendRateLimited = errors.New("destination is rate limited")

// Sender delivers a message to a single destination over one channel.
type Sender interface {
	Send(ctx context.Context, destination string, message model.Message) error
}

// Dispatcher routes messages to the channel-specific senders and throttles
// per-destination send rates to keep OTP resends from hammering gateways.
type Dispatcher struct {
	senders map[model.Channel]Sender
	limiter *ratelimiter.MapLimiter
	clock   model.Clock
	logger  *logger.Logger
}

func NewDispatcher(
	email Sender,
	sms Sender,
	limiter *ratelimiter.MapLimiter,
	clock model.Clock,
	logger *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		senders: map[model.Channel]Sender{
			model.ChannelEmail: email,
			model.ChannelSMS:   sms,
		},
		limiter: limiter,
		clock:   clock,
		logger:  logger,
	}
}

var _ model.Notifier = (*Dispatcher)(nil)

// Send delivers the message over the given channel. Unknown channels fail
// with a validation error; delivery failures are transient.
func (d *Dispatcher) Send(ctx context.Context, channel model.Channel, destination string, message model.Message) error {
	sender, ok := d.senders[channel]
	if !ok || sender == nil {
		return model.NewValidationError("channel", fmt.Sprintf("unsupported channel %q", channel))
	}

	if !d.limiter.Allow(string(channel)+":"+destination, d.clock.Now()) {
		d.logger.Info("notification throttled",
			"channel", channel)
		return model.NewTransientError("notifier", errSendRateLimited)
	}

	if err := sender.Send(ctx, destination, message); err != nil {
		return model.NewTransientError("notifier", err)
	}

	return nil
}
