package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"poseparty/internal/events"
	"poseparty/internal/logging"

	"github.com/nats-io/nats.go"
)

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher forwards lifecycle events to NATS, one subject per kind.
type Publisher struct {
	conn   Conn
	prefix string
}

func New(conn Conn, prefix string) *Publisher {
	return &Publisher{conn: conn, prefix: prefix}
}

// Connect dials NATS and keeps reconnecting for the life of the process.
func Connect(url string) (*nats.Conn, error) {
	l := logging.For("nats")
	conn, err := nats.Connect(
		url,
		nats.Name("poseparty"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				l.Warn().Err(err).Msg("disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			l.Info().Str("url", c.ConnectedUrl()).Msg("reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	l.Info().Str("url", conn.ConnectedUrl()).Msg("connected to NATS")
	return conn, nil
}

// Subject is where events of the given kind are published.
func (p *Publisher) Subject(kind events.Kind) string {
	return p.prefix + "." + string(kind)
}

func (p *Publisher) Publish(ev events.Lifecycle) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", ev.Kind, err)
	}
	if err := p.conn.Publish(p.Subject(ev.Kind), data); err != nil {
		return fmt.Errorf("publishing %s event: %w", ev.Kind, err)
	}
	return nil
}

// Run publishes events from in until it closes or ctx ends. Failures are
// logged; a missed notification never affects a game.
func (p *Publisher) Run(ctx context.Context, in <-chan events.Lifecycle) {
	l := logging.For("nats")
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			if err := p.Publish(ev); err != nil {
				l.Warn().Err(err).Str("room", ev.Room).Msg("lifecycle event not published")
			}
		}
	}
}
