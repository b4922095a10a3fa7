// Package events publishes committed invite and approval transitions to
// NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/pkg/slogx"

	"github.com/nats-io/nats.go"
)

// DefaultStream captures every subject under DefaultPrefix.
const (
	DefaultStream = "CLIQ_INVITES"
	DefaultPrefix = "cliq.invites"
)

var ErrNilBus = errors.New("events: nil bus")

// Bus wraps a NATS JetStream connection.
type Bus struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// Connect dials url and opens a JetStream context.
func Connect(url string, opts ...nats.Option) (*Bus, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	return &Bus{conn: nc, js: js}, nil
}

// EnsureStream creates the stream for subjects if it does not exist yet.
func (b *Bus) EnsureStream(name string, subjects ...string) error {
	if b == nil {
		return ErrNilBus
	}
	if _, err := b.js.StreamInfo(name); err == nil {
		return nil
	} else if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err := b.js.AddStream(&nats.StreamConfig{Name: name, Subjects: subjects})
	return err
}

// Close drains the connection.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
}

// Ping reports whether the connection is usable.
func (b *Bus) Ping(context.Context) error {
	if b == nil {
		return ErrNilBus
	}
	if !b.conn.IsConnected() {
		return fmt.Errorf("events: nats status %s", b.conn.Status())
	}
	return nil
}

// Publish encodes v as JSON on subj.
func (b *Bus) Publish(ctx context.Context, subj string, v any) error {
	if b == nil {
		return ErrNilBus
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	_, err = b.js.Publish(subj, data, nats.Context(ctx))
	return err
}

// Publisher maps domain events onto "<prefix>.<type>" subjects.
type Publisher struct {
	Bus    *Bus
	Prefix string
}

// Subject returns the subject e is published on.
func (p *Publisher) Subject(e domain.Event) string {
	prefix := p.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "." + e.Type
}

func (p *Publisher) Publish(ctx context.Context, e domain.Event) error {
	subj := p.Subject(e)
	if err := p.Bus.Publish(ctx, subj, e); err != nil {
		slogx.FromContext(ctx).Warn("event publish failed",
			slog.String("subject", subj),
			slog.String("event_id", e.ID),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}
