package queries

import (
	"context"
	"strings"
	"time"
)

const inviteColumns = `i.id, i.code, i.join_code, i.inviter_id, i.cliq_id, i.invitee_email, i.target_email_normalized,
	i.invited_role, i.invite_type, i.target_state, i.status, i.used, i.invited_user_id, i.max_uses, i.use_count,
	i.friend_first_name, i.friend_last_name, i.trusted_adult_contact, i.invite_note, i.parent_account_exists,
	i.expires_at, i.created_at, i.updated_at, i.accepted_at, i.completed_at, i.canceled_at`

func scanInvite(row interface{ Scan(...any) error }) (Invite, error) {
	var i Invite
	err := row.Scan(
		&i.ID, &i.Code, &i.JoinCode, &i.InviterID, &i.CliqID, &i.InviteeEmail, &i.TargetEmailNormalized,
		&i.InvitedRole, &i.InviteType, &i.TargetState, &i.Status, &i.Used, &i.InvitedUserID, &i.MaxUses, &i.UseCount,
		&i.FriendFirstName, &i.FriendLastName, &i.TrustedAdultContact, &i.InviteNote, &i.ParentAccountExists,
		&i.ExpiresAt, &i.CreatedAt, &i.UpdatedAt, &i.AcceptedAt, &i.CompletedAt, &i.CanceledAt,
	)
	return i, err
}

func (q *Queries) CreateInvite(ctx context.Context, i Invite) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO invites (
			id, code, join_code, inviter_id, cliq_id, invitee_email, target_email_normalized,
			invited_role, invite_type, target_state, max_uses,
			friend_first_name, friend_last_name, trusted_adult_contact, invite_note, parent_account_exists,
			expires_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.Code, i.JoinCode, i.InviterID, i.CliqID, i.InviteeEmail, i.TargetEmailNormalized,
		i.InvitedRole, i.InviteType, i.TargetState, i.MaxUses,
		i.FriendFirstName, i.FriendLastName, i.TrustedAdultContact, i.InviteNote, i.ParentAccountExists,
		i.ExpiresAt, i.CreatedAt, i.CreatedAt,
	)
	return err
}

// CreateInviteAlias fails on the alias_hash primary key when any invite
// already holds the value.
func (q *Queries) CreateInviteAlias(ctx context.Context, hash, inviteID, kind string) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO invite_aliases (alias_hash, invite_id, kind) VALUES (?, ?, ?)`,
		hash, inviteID, kind)
	return err
}

func (q *Queries) GetInviteByID(ctx context.Context, id string) (Invite, error) {
	return scanInvite(q.db.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM invites i WHERE i.id = ?`, id))
}

// FindInvitesByAliases resolves any number of alias hashes in one query and
// returns each matching invite once.
func (q *Queries) FindInvitesByAliases(ctx context.Context, hashes []string) ([]Invite, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	args := make([]any, len(hashes))
	for n, h := range hashes {
		args[n] = h
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(hashes)), ", ")

	rows, err := q.db.QueryContext(ctx, `
		SELECT DISTINCT `+inviteColumns+`
		FROM invite_aliases a JOIN invites i ON i.id = a.invite_id
		WHERE a.alias_hash IN (`+placeholders+`)
		ORDER BY i.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// AcceptInviteFinal consumes the last use of a pending invite.
func (q *Queries) AcceptInviteFinal(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	return affected(q.db.ExecContext(ctx, `
		UPDATE invites
		SET status = 'accepted', used = 1, invited_user_id = ?, use_count = use_count + 1,
		    accepted_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending' AND used = 0 AND use_count < max_uses`,
		userID, at, at, id))
}

// AcceptInviteUse counts one use of a multi-use invite without closing it.
func (q *Queries) AcceptInviteUse(ctx context.Context, id string, at time.Time) (bool, error) {
	return affected(q.db.ExecContext(ctx, `
		UPDATE invites
		SET use_count = use_count + 1, updated_at = ?
		WHERE id = ? AND status = 'pending' AND used = 0 AND use_count + 1 < max_uses`,
		at, id))
}

func (q *Queries) CancelInvite(ctx context.Context, id string, at time.Time) (bool, error) {
	return affected(q.db.ExecContext(ctx, `
		UPDATE invites SET status = 'canceled', canceled_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending' AND used = 0`,
		at, at, id))
}

func (q *Queries) CompleteInvite(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	return affected(q.db.ExecContext(ctx, `
		UPDATE invites
		SET status = 'completed', used = 1, invited_user_id = COALESCE(invited_user_id, ?),
		    use_count = CASE WHEN status = 'pending' THEN use_count + 1 ELSE use_count END,
		    completed_at = ?, updated_at = ?
		WHERE id = ? AND status IN ('pending', 'accepted')`,
		userID, at, at, id))
}
