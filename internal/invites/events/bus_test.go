package events

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/stretchr/testify/require"
)

func TestPublisherSubject(t *testing.T) {
	e := domain.Event{Type: domain.EventInviteAccepted}

	require.Equal(t, "cliq.invites."+domain.EventInviteAccepted, (&Publisher{}).Subject(e))
	require.Equal(t, "staging."+domain.EventInviteAccepted, (&Publisher{Prefix: "staging"}).Subject(e))
}

func TestNilBus(t *testing.T) {
	var b *Bus
	ctx := context.Background()

	require.ErrorIs(t, b.Publish(ctx, "x", 1), ErrNilBus)
	require.ErrorIs(t, b.Ping(ctx), ErrNilBus)
	require.ErrorIs(t, b.EnsureStream(DefaultStream, DefaultPrefix+".>"), ErrNilBus)
	b.Close()

	err := (&Publisher{}).Publish(ctx, domain.Event{ID: "01", Type: domain.EventInviteCreated})
	require.ErrorIs(t, err, ErrNilBus)
}
