package queries

import "context"

func (q *Queries) CreateCliq(ctx context.Context, c Cliq) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO cliqs (id, name, owner_id, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.OwnerID, c.CreatedAt)
	return err
}

func (q *Queries) GetCliq(ctx context.Context, id string) (Cliq, error) {
	var c Cliq
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, created_at FROM cliqs WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt)
	return c, err
}

// AddMembership is a no-op on an existing (user_id, cliq_id) pair.
func (q *Queries) AddMembership(ctx context.Context, m Membership) (bool, error) {
	return affected(q.db.ExecContext(ctx, `
		INSERT INTO memberships (id, user_id, cliq_id, role, joined_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, cliq_id) DO NOTHING`,
		m.ID, m.UserID, m.CliqID, m.Role, m.JoinedAt))
}

func (q *Queries) GetMembership(ctx context.Context, userID, cliqID string) (Membership, error) {
	var m Membership
	err := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, cliq_id, role, joined_at FROM memberships
		WHERE user_id = ? AND cliq_id = ?`, userID, cliqID,
	).Scan(&m.ID, &m.UserID, &m.CliqID, &m.Role, &m.JoinedAt)
	return m, err
}

func (q *Queries) ListMembershipsByCliq(ctx context.Context, cliqID string) ([]Membership, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, user_id, cliq_id, role, joined_at FROM memberships
		WHERE cliq_id = ? ORDER BY joined_at, id`, cliqID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.ID, &m.UserID, &m.CliqID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
