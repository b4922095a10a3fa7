package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/pkg/idx"
	"github.com/aussiebroadwan/cliq/pkg/slogx"
)

// Notifier delivers messages to people outside the system. Implementations
// live in the notify package.
type Notifier interface {
	SendParentApproval(ctx context.Context, n domain.ApprovalNotice) error
	SendVerificationCode(ctx context.Context, n domain.VerificationNotice) error
}

// Publisher receives committed transitions. A nil Publisher disables events.
type Publisher interface {
	Publish(ctx context.Context, e domain.Event) error
}

func publish(ctx context.Context, p Publisher, e domain.Event) {
	if p == nil {
		return
	}
	if e.ID == "" {
		e.ID = idx.NewAt(e.At).String()
	}
	if err := p.Publish(ctx, e); err != nil {
		slogx.FromContext(ctx).Warn("domain event dropped",
			slog.String("type", e.Type),
			slog.String("target_id", e.TargetID),
			slog.Any("error", err),
		)
	}
}

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}
