// Package export delivers a compiled archive through the first channel
// that accepts it.
package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/Merlito456/ospsurveyengine/internal/common"
	"github.com/Merlito456/ospsurveyengine/internal/logging"
)

// Outcome is the terminal result of a successful dispatch.
type Outcome int

const (
	Delivered Outcome = iota
	// Cancelled means the user dismissed the channel. It ends the export
	// without error.
	Cancelled
)

func (o Outcome) String() string {
	if o == Cancelled {
		return "cancelled"
	}
	return "delivered"
}

// ErrUnavailable is returned by a channel that the current runtime does not
// expose. The dispatcher moves on without counting it as a failure.
var ErrUnavailable = errors.New("channel unavailable")

// Channel is one delivery mechanism.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, data []byte, name, mimeType string) (Outcome, error)
}

// Receipt describes which channel finished the export.
type Receipt struct {
	Channel string
	Outcome Outcome
	// Location is where the payload ended up, when the channel knows.
	Location string
}

// locator is implemented by channels that can report where they wrote.
type locator interface {
	LastLocation() string
}

type Dispatcher struct {
	channels []Channel
	logger   logging.Logger
}

// NewDispatcher tries channels in the given order.
func NewDispatcher(logger logging.Logger, channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels, logger: logger.With("component", "export")}
}

// Dispatch stops at the first channel that delivers or is cancelled. Only
// when every available channel fails is common.ErrDeliveryExhausted
// returned, joined with each channel's error.
func (d *Dispatcher) Dispatch(ctx context.Context, data []byte, name, mimeType string) (Receipt, error) {
	var errs []error
	for _, ch := range d.channels {
		if err := ctx.Err(); err != nil {
			return Receipt{}, err
		}

		outcome, err := ch.Deliver(ctx, data, name, mimeType)
		if errors.Is(err, ErrUnavailable) {
			d.logger.Debug(ctx, "channel unavailable", "channel", ch.Name())
			continue
		}
		if err != nil {
			d.logger.Warn(ctx, "delivery failed, trying next channel", "channel", ch.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}

		r := Receipt{Channel: ch.Name(), Outcome: outcome}
		if l, ok := ch.(locator); ok && outcome == Delivered {
			r.Location = l.LastLocation()
		}
		d.logger.Info(ctx, "export finished", "channel", r.Channel, "outcome", r.Outcome.String(), "name", name)
		return r, nil
	}

	return Receipt{}, errors.Join(append([]error{common.ErrDeliveryExhausted}, errs...)...)
}
