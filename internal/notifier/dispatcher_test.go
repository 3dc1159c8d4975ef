package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriflow/identity/internal/logger"
	"github.com/veriflow/identity/internal/model"
	"github.com/veriflow/identity/internal/ratelimiter"
)

type fakeSender struct {
	destinations []string
	err          error
}

func (f *fakeSender) Send(ctx context.Context, destination string, message model.Message) error {
	f.destinations = append(f.destinations, destination)
	return f.err
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

func newTestDispatcher(email, sms Sender, rps float64, burst int) *Dispatcher {
	limiter := ratelimiter.New(rps, burst, 10*time.Minute)
	return NewDispatcher(email, sms, limiter, &fixedClock{now: time.Now()}, logger.New(0))
}

func TestDispatcher_Send_RoutesByChannel(t *testing.T) {
	email := &fakeSender{}
	sms := &fakeSender{}
	d := newTestDispatcher(email, sms, 100, 100)

	msg := model.Message{Subject: "Account Verification", Body: "code"}
	require.NoError(t, d.Send(context.Background(), model.ChannelEmail, "asha@example.com", msg))
	require.NoError(t, d.Send(context.Background(), model.ChannelSMS, "+919876543210", msg))

	assert.Equal(t, []string{"asha@example.com"}, email.destinations)
	assert.Equal(t, []string{"+919876543210"}, sms.destinations)
}

func TestDispatcher_Send_UnknownChannel(t *testing.T) {
	d := newTestDispatcher(&fakeSender{}, &fakeSender{}, 100, 100)

	err := d.Send(context.Background(), model.Channel("fax"), "dest", model.Message{})

	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestDispatcher_Send_ThrottlesPerDestination(t *testing.T) {
	email := &fakeSender{}
	d := newTestDispatcher(email, &fakeSender{}, 0.001, 1)

	msg := model.Message{Subject: "Account Verification", Body: "code"}
	require.NoError(t, d.Send(context.Background(), model.ChannelEmail, "asha@example.com", msg))

	err := d.Send(context.Background(), model.ChannelEmail, "asha@example.com", msg)
	require.Error(t, err)
	assert.True(t, model.IsTransient(err))

	// a different destination has its own bucket
	require.NoError(t, d.Send(context.Background(), model.ChannelEmail, "other@example.com", msg))
}

func TestDispatcher_Send_DeliveryFailureIsTransient(t *testing.T) {
	email := &fakeSender{err: errors.New("smtp unreachable")}
	d := newTestDispatcher(email, &fakeSender{}, 100, 100)

	err := d.Send(context.Background(), model.ChannelEmail, "asha@example.com", model.Message{})

	require.Error(t, err)
	assert.True(t, model.IsTransient(err))
}
