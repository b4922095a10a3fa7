package queries

import (
	"context"
	"database/sql"
	"time"
)

const userColumns = `id, email_normalized, username, password_hash, display_name, role, plan,
	contact_verified_at, identity_secret, identity_verified_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.EmailNormalized, &u.Username, &u.PasswordHash, &u.DisplayName, &u.Role, &u.Plan,
		&u.ContactVerifiedAt, &u.IdentitySecret, &u.IdentityVerifiedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_normalized = ?`, email))
}

type CreateUserParams struct {
	ID              string
	EmailNormalized sql.NullString
	Username        sql.NullString
	PasswordHash    sql.NullString
	DisplayName     string
	Role            string
	Plan            string
	CreatedAt       time.Time
}

// CreateUser inserts unless the username or email is already held. It
// reports whether the row was written.
func (q *Queries) CreateUser(ctx context.Context, p CreateUserParams) (bool, error) {
	return affected(q.db.ExecContext(ctx, `
		INSERT INTO users (id, email_normalized, username, password_hash, display_name, role, plan, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		p.ID, p.EmailNormalized, p.Username, p.PasswordHash, p.DisplayName, p.Role, p.Plan, p.CreatedAt, p.CreatedAt,
	))
}

func (q *Queries) UpdateUserPlan(ctx context.Context, id, plan string, at time.Time) (bool, error) {
	return affected(q.db.ExecContext(ctx,
		`UPDATE users SET plan = ?, updated_at = ? WHERE id = ?`, plan, at, id))
}

func (q *Queries) UpdateUserRole(ctx context.Context, id, role string, at time.Time) (bool, error) {
	return affected(q.db.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`, role, at, id))
}

// MarkContactVerified keeps the first verification time.
func (q *Queries) MarkContactVerified(ctx context.Context, id string, at time.Time) (bool, error) {
	return affected(q.db.ExecContext(ctx, `
		UPDATE users SET contact_verified_at = COALESCE(contact_verified_at, ?), updated_at = ?
		WHERE id = ?`, at, at, id))
}

func (q *Queries) SetIdentitySecret(ctx context.Context, id, secret string, at time.Time) (bool, error) {
	return affected(q.db.ExecContext(ctx,
		`UPDATE users SET identity_secret = ?, updated_at = ? WHERE id = ?`, secret, at, id))
}

func (q *Queries) MarkIdentityVerified(ctx context.Context, id string, at time.Time) (bool, error) {
	return affected(q.db.ExecContext(ctx, `
		UPDATE users SET identity_verified_at = COALESCE(identity_verified_at, ?), updated_at = ?
		WHERE id = ?`, at, at, id))
}
