// Package notifier delivers rendered reports to people and systems.
package notifier

import (
	"context"

	"github.com/rs/zerolog"
)

// Notifier delivers one message. Recipient semantics are channel specific
// (chat id, e-mail address, phone number, routing key); empty means the
// channel's configured default.
type Notifier interface {
	Name() string
	Deliver(ctx context.Context, recipient, subject, body string) error
}

// Route pairs a channel with the recipient it should deliver to.
type Route struct {
	Notifier  Notifier
	Recipient string
}

// Dispatcher fans a message out to every route. Failures are logged and
// never stop the remaining deliveries.
type Dispatcher struct {
	routes []Route
	log    zerolog.Logger
}

func NewDispatcher(log zerolog.Logger, routes ...Route) *Dispatcher {
	return &Dispatcher{routes: routes, log: log.With().Str("component", "dispatcher").Logger()}
}

// Add appends a route.
func (d *Dispatcher) Add(n Notifier, recipient string) {
	d.routes = append(d.routes, Route{Notifier: n, Recipient: recipient})
}

// Len returns the number of routes.
func (d *Dispatcher) Len() int { return len(d.routes) }

// Dispatch delivers to every route in order and returns how many succeeded.
func (d *Dispatcher) Dispatch(ctx context.Context, subject, body string) int {
	delivered := 0
	for _, r := range d.routes {
		if err := r.Notifier.Deliver(ctx, r.Recipient, subject, body); err != nil {
			d.log.Error().Err(err).Str("channel", r.Notifier.Name()).Msg("delivery failed")
			continue
		}
		delivered++
		d.log.Info().Str("channel", r.Notifier.Name()).Msg("report delivered")
	}
	return delivered
}
