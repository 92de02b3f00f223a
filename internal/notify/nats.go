package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/folio/internal/logfields"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "folio.artifacts"

// NATSClient publishes and subscribes to artifact events on a NATS subject.
type NATSClient struct {
	conn    *nats.Conn
	subject string
}

// Connect dials the NATS server at url.
func Connect(url, subject string) (*NATSClient, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	conn, err := nats.Connect(url, nats.Name("folio"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS client connected", slog.String("url", url), slog.String("subject", subject))
	return &NATSClient{conn: conn, subject: subject}, nil
}

// Publish implements Publisher.
func (c *NATSClient) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(ev)
	if err != nil {
		return err
	}
	if err := c.conn.Publish(c.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	slog.Debug("Published artifact event",
		logfields.Collection(ev.Collection),
		slog.String("kind", string(ev.Kind)),
		logfields.Count(len(ev.Keys)))
	return nil
}

// Subscribe delivers every decodable event on the subject to handle.
// Undecodable messages are logged and dropped.
func (c *NATSClient) Subscribe(handle func(Event)) (*nats.Subscription, error) {
	sub, err := c.conn.Subscribe(c.subject, messageHandler(handle))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", c.subject, err)
	}
	return sub, nil
}

// Close drains the connection.
func (c *NATSClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Drain()
}

func messageHandler(handle func(Event)) nats.MsgHandler {
	return func(msg *nats.Msg) {
		ev, err := Decode(msg.Data)
		if err != nil {
			slog.Warn("Dropping malformed artifact event", slog.String("subject", msg.Subject), logfields.Error(err))
			return
		}
		handle(ev)
	}
}
