package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/internal/invites/store"
	"github.com/aussiebroadwan/cliq/internal/invites/store/drivers/sqlite/queries"
)

type usersRepo struct {
	q *queries.Queries
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, normalized string) (domain.User, error) {
	row, err := r.q.GetUserByEmail(ctx, normalized)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	plan := u.Plan
	if plan == "" {
		plan = domain.PlanFree
	}
	created, err := r.q.CreateUser(ctx, queries.CreateUserParams{
		ID:              u.ID,
		EmailNormalized: mapStringNull(u.EmailNormalized),
		Username:        mapStringNull(u.Username),
		PasswordHash:    mapStringNull(u.PasswordHash),
		DisplayName:     u.DisplayName,
		Role:            string(u.Role),
		Plan:            string(plan),
		CreatedAt:       u.CreatedAt.UTC(),
	})
	if err != nil {
		return mapConstraint(err)
	}
	if !created {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *usersRepo) UpdatePlan(ctx context.Context, id string, plan domain.Plan) error {
	return mustAffect(r.q.UpdateUserPlan(ctx, id, string(plan), time.Now().UTC()))
}

func (r *usersRepo) UpdateRole(ctx context.Context, id string, role domain.UserRole) error {
	return mustAffect(r.q.UpdateUserRole(ctx, id, string(role), time.Now().UTC()))
}

func (r *usersRepo) MarkContactVerified(ctx context.Context, id string, at time.Time) error {
	return mustAffect(r.q.MarkContactVerified(ctx, id, at.UTC()))
}

func (r *usersRepo) SetIdentitySecret(ctx context.Context, id, secret string) error {
	return mustAffect(r.q.SetIdentitySecret(ctx, id, secret, time.Now().UTC()))
}

func (r *usersRepo) MarkIdentityVerified(ctx context.Context, id string, at time.Time) error {
	return mustAffect(r.q.MarkIdentityVerified(ctx, id, at.UTC()))
}

func mapUser(row queries.User) domain.User {
	return domain.User{
		ID:                 row.ID,
		EmailNormalized:    mapNullString(row.EmailNormalized),
		Username:           mapNullString(row.Username),
		PasswordHash:       mapNullString(row.PasswordHash),
		DisplayName:        row.DisplayName,
		Role:               domain.UserRole(row.Role),
		Plan:               domain.Plan(row.Plan),
		ContactVerifiedAt:  mapNullTimePtr(row.ContactVerifiedAt),
		IdentitySecret:     mapNullString(row.IdentitySecret),
		IdentityVerifiedAt: mapNullTimePtr(row.IdentityVerifiedAt),
		CreatedAt:          row.CreatedAt.UTC(),
		UpdatedAt:          row.UpdatedAt.UTC(),
	}
}
