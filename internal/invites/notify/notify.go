// Package notify delivers parent-approval and verification messages.
package notify

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/pkg/slogx"
)

// Log writes notices to the request logger instead of sending them. It is
// used when no sender address is configured.
type Log struct{}

func (Log) SendParentApproval(ctx context.Context, n domain.ApprovalNotice) error {
	slogx.FromContext(ctx).Info("parent approval notice not sent: email disabled",
		slog.String("approval_id", n.ApprovalID),
		slog.String("context", string(n.Context)),
		slog.Time("expires_at", n.ExpiresAt),
	)
	return nil
}

func (Log) SendVerificationCode(ctx context.Context, n domain.VerificationNotice) error {
	slogx.FromContext(ctx).Info("verification code not sent: email disabled",
		slog.String("user_id", n.UserID),
	)
	return nil
}
