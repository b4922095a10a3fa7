package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/store/drivers/sqlite/queries"
)

type cliqsRepo struct {
	q *queries.Queries
}

func (r *cliqsRepo) CreateCliq(ctx context.Context, c domain.Cliq) error {
	return mapConstraint(r.q.CreateCliq(ctx, queries.Cliq{
		ID:        c.ID,
		Name:      c.Name,
		OwnerID:   c.OwnerID,
		CreatedAt: c.CreatedAt.UTC(),
	}))
}

func (r *cliqsRepo) GetCliq(ctx context.Context, id string) (domain.Cliq, error) {
	row, err := r.q.GetCliq(ctx, id)
	if err != nil {
		return domain.Cliq{}, mapNotFound(err)
	}
	return domain.Cliq{ID: row.ID, Name: row.Name, OwnerID: row.OwnerID, CreatedAt: row.CreatedAt.UTC()}, nil
}

type membershipsRepo struct {
	q *queries.Queries
}

func (r *membershipsRepo) AddMembership(ctx context.Context, m domain.Membership) (bool, error) {
	return r.q.AddMembership(ctx, queries.Membership{
		ID:       m.ID,
		UserID:   m.UserID,
		CliqID:   m.CliqID,
		Role:     string(m.Role),
		JoinedAt: m.JoinedAt.UTC(),
	})
}

func (r *membershipsRepo) GetMembership(ctx context.Context, userID, cliqID string) (domain.Membership, error) {
	row, err := r.q.GetMembership(ctx, userID, cliqID)
	if err != nil {
		return domain.Membership{}, mapNotFound(err)
	}
	return mapMembership(row), nil
}

func (r *membershipsRepo) ListByCliq(ctx context.Context, cliqID string) ([]domain.Membership, error) {
	rows, err := r.q.ListMembershipsByCliq(ctx, cliqID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Membership, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapMembership(row))
	}
	return out, nil
}

func mapMembership(row queries.Membership) domain.Membership {
	return domain.Membership{
		ID:       row.ID,
		UserID:   row.UserID,
		CliqID:   row.CliqID,
		Role:     domain.MembershipRole(row.Role),
		JoinedAt: row.JoinedAt.UTC(),
	}
}

type auditRepo struct {
	q *queries.Queries
}

func (r *auditRepo) Record(ctx context.Context, e domain.AuditEntry) error {
	meta := []byte("{}")
	if len(e.Metadata) > 0 {
		var err error
		if meta, err = json.Marshal(e.Metadata); err != nil {
			return fmt.Errorf("sqlite: encode audit metadata: %w", err)
		}
	}
	return r.q.InsertAuditLog(ctx, queries.AuditLog{
		ID:         e.ID,
		ActorID:    e.ActorID,
		Action:     e.Action,
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		Metadata:   string(meta),
		CreatedAt:  e.CreatedAt.UTC(),
	})
}

func (r *auditRepo) ListByTarget(ctx context.Context, targetType, targetID string) ([]domain.AuditEntry, error) {
	rows, err := r.q.ListAuditLogByTarget(ctx, targetType, targetID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AuditEntry, 0, len(rows))
	for _, row := range rows {
		var meta map[string]any
		if err := json.Unmarshal([]byte(row.Metadata), &meta); err != nil {
			return nil, fmt.Errorf("sqlite: decode audit metadata: %w", err)
		}
		out = append(out, domain.AuditEntry{
			ID:         row.ID,
			ActorID:    row.ActorID,
			Action:     row.Action,
			TargetType: row.TargetType,
			TargetID:   row.TargetID,
			Metadata:   meta,
			CreatedAt:  row.CreatedAt.UTC(),
		})
	}
	return out, nil
}
