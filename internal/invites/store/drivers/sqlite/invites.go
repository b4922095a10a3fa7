package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/store"
	"github.com/aussiebroadwan/cliq/internal/invites/store/drivers/sqlite/queries"
)

type invitesRepo struct {
	q *queries.Queries
}

func (r *invitesRepo) CreateInvite(ctx context.Context, inv domain.Invite, aliases []domain.InviteAlias) error {
	err := r.q.CreateInvite(ctx, queries.Invite{
		ID:                    inv.ID,
		Code:                  inv.Code,
		JoinCode:              inv.JoinCode,
		InviterID:             inv.InviterID,
		CliqID:                mapStringNull(inv.CliqID),
		InviteeEmail:          inv.InviteeEmail,
		TargetEmailNormalized: inv.TargetEmailNormalized,
		InvitedRole:           string(inv.InvitedRole),
		InviteType:            string(inv.InviteType),
		TargetState:           string(inv.TargetState),
		MaxUses:               int64(inv.MaxUses),
		FriendFirstName:       inv.FriendFirstName,
		FriendLastName:        inv.FriendLastName,
		TrustedAdultContact:   inv.TrustedAdultContact,
		InviteNote:            inv.InviteNote,
		ParentAccountExists:   inv.ParentAccountExists,
		ExpiresAt:             mapOptionalTime(inv.ExpiresAt),
		CreatedAt:             inv.CreatedAt.UTC(),
	})
	if err != nil {
		return mapConstraint(err)
	}

	for _, a := range aliases {
		if err := r.q.CreateInviteAlias(ctx, a.Hash, inv.ID, string(a.Kind)); err != nil {
			return mapConstraint(err)
		}
	}
	return nil
}

func (r *invitesRepo) GetInviteByID(ctx context.Context, id string) (domain.Invite, error) {
	row, err := r.q.GetInviteByID(ctx, id)
	if err != nil {
		return domain.Invite{}, mapNotFound(err)
	}
	return mapInvite(row), nil
}

func (r *invitesRepo) FindByAliases(ctx context.Context, hashes []string) ([]domain.Invite, error) {
	rows, err := r.q.FindInvitesByAliases(ctx, hashes)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Invite, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapInvite(row))
	}
	return out, nil
}

func (r *invitesRepo) AcceptInvite(ctx context.Context, p store.AcceptInviteParams) (bool, error) {
	if p.Final {
		return r.q.AcceptInviteFinal(ctx, p.InviteID, p.UserID, p.At.UTC())
	}
	return r.q.AcceptInviteUse(ctx, p.InviteID, p.At.UTC())
}

func (r *invitesRepo) CancelInvite(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.q.CancelInvite(ctx, id, at.UTC())
}

func (r *invitesRepo) CompleteInvite(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	return r.q.CompleteInvite(ctx, id, userID, at.UTC())
}

func mapInvite(row queries.Invite) domain.Invite {
	return domain.Invite{
		ID:                    row.ID,
		Code:                  row.Code,
		JoinCode:              row.JoinCode,
		InviterID:             row.InviterID,
		CliqID:                mapNullString(row.CliqID),
		InviteeEmail:          row.InviteeEmail,
		TargetEmailNormalized: row.TargetEmailNormalized,
		InvitedRole:           domain.InvitedRole(row.InvitedRole),
		InviteType:            domain.InviteType(row.InviteType),
		TargetState:           domain.TargetState(row.TargetState),
		Status:                domain.InviteStatus(row.Status),
		Used:                  row.Used,
		InvitedUserID:         mapNullString(row.InvitedUserID),
		MaxUses:               int(row.MaxUses),
		UseCount:              int(row.UseCount),
		FriendFirstName:       row.FriendFirstName,
		FriendLastName:        row.FriendLastName,
		TrustedAdultContact:   row.TrustedAdultContact,
		InviteNote:            row.InviteNote,
		ParentAccountExists:   row.ParentAccountExists,
		ExpiresAt:             mapNullTimePtr(row.ExpiresAt),
		CreatedAt:             row.CreatedAt.UTC(),
		UpdatedAt:             row.UpdatedAt.UTC(),
		AcceptedAt:            mapNullTimePtr(row.AcceptedAt),
		CompletedAt:           mapNullTimePtr(row.CompletedAt),
		CanceledAt:            mapNullTimePtr(row.CanceledAt),
	}
}

