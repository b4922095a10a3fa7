package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/store/drivers/sqlite/queries"
)

type approvalsRepo struct {
	q *queries.Queries
}

func (r *approvalsRepo) CreateApproval(ctx context.Context, a domain.ParentApproval) error {
	err := r.q.CreateApproval(ctx, queries.ParentApproval{
		ID:                    a.ID,
		TokenHash:             a.TokenHash,
		ChildFirstName:        a.ChildFirstName,
		ChildLastName:         a.ChildLastName,
		ChildBirthdate:        a.ChildBirthdate,
		ParentEmail:           a.ParentEmail,
		ParentEmailNormalized: a.ParentEmailNormalized,
		ParentState:           string(a.ParentState),
		Context:               string(a.Context),
		InviteID:              mapStringNull(a.InviteID),
		CliqID:                mapStringNull(a.CliqID),
		InviterName:           a.InviterName,
		CliqName:              a.CliqName,
		Status:                string(a.Status),
		ExpiresAt:             a.ExpiresAt.UTC(),
		ApprovedAt:            mapOptionalTime(a.ApprovedAt),
		CreatedAt:             a.CreatedAt.UTC(),
	})
	return mapConstraint(err)
}

func (r *approvalsRepo) GetApprovalByID(ctx context.Context, id string) (domain.ParentApproval, error) {
	row, err := r.q.GetApprovalByID(ctx, id)
	if err != nil {
		return domain.ParentApproval{}, mapNotFound(err)
	}
	return mapApproval(row), nil
}

func (r *approvalsRepo) GetApprovalByTokenHash(ctx context.Context, hash string) (domain.ParentApproval, error) {
	row, err := r.q.GetApprovalByTokenHash(ctx, hash)
	if err != nil {
		return domain.ParentApproval{}, mapNotFound(err)
	}
	return mapApproval(row), nil
}

func (r *approvalsRepo) Transition(ctx context.Context, id string, status domain.ApprovalStatus, at time.Time) (bool, error) {
	at = at.UTC()
	switch status {
	case domain.ApprovalApproved:
		return r.q.ApproveApproval(ctx, id, at)
	case domain.ApprovalDeclined:
		return r.q.DeclineApproval(ctx, id, at)
	case domain.ApprovalExpired:
		return r.q.ExpireApproval(ctx, id, at)
	default:
		return false, fmt.Errorf("sqlite: invalid approval transition to %q", status)
	}
}

func (r *approvalsRepo) MarkProvisioned(ctx context.Context, id, childID string, at time.Time) (bool, error) {
	return r.q.MarkApprovalProvisioned(ctx, id, childID, at.UTC())
}

func (r *approvalsRepo) RecordNotification(ctx context.Context, id string, sent bool, at time.Time) error {
	return r.q.RecordApprovalNotification(ctx, id, sent, at.UTC())
}

func (r *approvalsRepo) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]string, error) {
	return r.q.ListExpiredPendingApprovals(ctx, now.UTC(), limit)
}

func (r *approvalsRepo) FindApproved(ctx context.Context, firstName, lastName, birthdate string) ([]domain.ParentApproval, error) {
	rows, err := r.q.FindApprovedApprovals(ctx, firstName, lastName, birthdate)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ParentApproval, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapApproval(row))
	}
	return out, nil
}

func mapApproval(row queries.ParentApproval) domain.ParentApproval {
	return domain.ParentApproval{
		ID:                    row.ID,
		TokenHash:             row.TokenHash,
		ChildFirstName:        row.ChildFirstName,
		ChildLastName:         row.ChildLastName,
		ChildBirthdate:        row.ChildBirthdate,
		ParentEmail:           row.ParentEmail,
		ParentEmailNormalized: row.ParentEmailNormalized,
		ParentState:           domain.ParentState(row.ParentState),
		Context:               domain.ApprovalContext(row.Context),
		InviteID:              mapNullString(row.InviteID),
		CliqID:                mapNullString(row.CliqID),
		InviterName:           row.InviterName,
		CliqName:              row.CliqName,
		Status:                domain.ApprovalStatus(row.Status),
		ExpiresAt:             row.ExpiresAt.UTC(),
		ApprovedAt:            mapNullTimePtr(row.ApprovedAt),
		DeclinedAt:            mapNullTimePtr(row.DeclinedAt),
		ExpiredAt:             mapNullTimePtr(row.ExpiredAt),
		ProvisionedChildID:    mapNullString(row.ProvisionedChildID),
		ProvisionedAt:         mapNullTimePtr(row.ProvisionedAt),
		NotifiedAt:            mapNullTimePtr(row.NotifiedAt),
		NotifyAttempts:        int(row.NotifyAttempts),
		CreatedAt:             row.CreatedAt.UTC(),
		UpdatedAt:             row.UpdatedAt.UTC(),
	}
}
