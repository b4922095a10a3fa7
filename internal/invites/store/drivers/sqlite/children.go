package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/store/drivers/sqlite/queries"
)

type childrenRepo struct {
	q *queries.Queries
}

func (r *childrenRepo) CreateProfile(ctx context.Context, p domain.ChildProfile) error {
	return mapConstraint(r.q.CreateChildProfile(ctx, queries.ChildProfile{
		UserID:    p.UserID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Birthdate: p.Birthdate,
	}))
}

func (r *childrenRepo) GetProfile(ctx context.Context, userID string) (domain.ChildProfile, error) {
	row, err := r.q.GetChildProfile(ctx, userID)
	if err != nil {
		return domain.ChildProfile{}, mapNotFound(err)
	}
	return domain.ChildProfile{
		UserID:    row.UserID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Birthdate: row.Birthdate,
	}, nil
}

func (r *childrenRepo) CreateSettings(ctx context.Context, s domain.ChildSettings) error {
	return mapConstraint(r.q.CreateChildSettings(ctx, queries.ChildSetting{
		UserID:                 s.UserID,
		InvitesEnabled:         s.InvitesEnabled,
		RequireApprovalInvites: s.RequireApprovalInvites,
		RequireApprovalPosts:   s.RequireApprovalPosts,
		ModerationLevel:        s.ModerationLevel,
	}))
}

func (r *childrenRepo) GetSettings(ctx context.Context, userID string) (domain.ChildSettings, error) {
	row, err := r.q.GetChildSettings(ctx, userID)
	if err != nil {
		return domain.ChildSettings{}, mapNotFound(err)
	}
	return domain.ChildSettings{
		UserID:                 row.UserID,
		InvitesEnabled:         row.InvitesEnabled,
		RequireApprovalInvites: row.RequireApprovalInvites,
		RequireApprovalPosts:   row.RequireApprovalPosts,
		ModerationLevel:        row.ModerationLevel,
	}, nil
}

func (r *childrenRepo) LinkParent(ctx context.Context, parentID, childID string, at time.Time) error {
	return r.q.LinkParent(ctx, parentID, childID, at.UTC())
}

func (r *childrenRepo) IsParentOf(ctx context.Context, parentID, childID string) (bool, error) {
	return r.q.IsParentOf(ctx, parentID, childID)
}
