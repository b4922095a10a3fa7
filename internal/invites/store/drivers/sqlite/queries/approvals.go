package queries

import (
	"context"
	"time"
)

const approvalColumns = `id, token_hash, child_first_name, child_last_name, child_birthdate,
	parent_email, parent_email_normalized, parent_state, context, invite_id, cliq_id, inviter_name, cliq_name,
	status, expires_at, approved_at, declined_at, expired_at, provisioned_child_id, provisioned_at,
	notified_at, notify_attempts, created_at, updated_at`

func scanApproval(row interface{ Scan(...any) error }) (ParentApproval, error) {
	var a ParentApproval
	err := row.Scan(
		&a.ID, &a.TokenHash, &a.ChildFirstName, &a.ChildLastName, &a.ChildBirthdate,
		&a.ParentEmail, &a.ParentEmailNormalized, &a.ParentState, &a.Context, &a.InviteID, &a.CliqID, &a.InviterName, &a.CliqName,
		&a.Status, &a.ExpiresAt, &a.ApprovedAt, &a.DeclinedAt, &a.ExpiredAt, &a.ProvisionedChildID, &a.ProvisionedAt,
		&a.NotifiedAt, &a.NotifyAttempts, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func (q *Queries) CreateApproval(ctx context.Context, a ParentApproval) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO parent_approvals (
			id, token_hash, child_first_name, child_last_name, child_birthdate,
			parent_email, parent_email_normalized, parent_state, context, invite_id, cliq_id, inviter_name, cliq_name,
			status, expires_at, approved_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.TokenHash, a.ChildFirstName, a.ChildLastName, a.ChildBirthdate,
		a.ParentEmail, a.ParentEmailNormalized, a.ParentState, a.Context, a.InviteID, a.CliqID, a.InviterName, a.CliqName,
		a.Status, a.ExpiresAt, a.ApprovedAt, a.CreatedAt, a.CreatedAt,
	)
	return err
}

func (q *Queries) GetApprovalByID(ctx context.Context, id string) (ParentApproval, error) {
	return scanApproval(q.db.QueryRowContext(ctx,
		`SELECT `+approvalColumns+` FROM parent_approvals WHERE id = ?`, id))
}

func (q *Queries) GetApprovalByTokenHash(ctx context.Context, hash string) (ParentApproval, error) {
	return scanApproval(q.db.QueryRowContext(ctx,
		`SELECT `+approvalColumns+` FROM parent_approvals WHERE token_hash = ?`, hash))
}

func (q *Queries) ApproveApproval(ctx context.Context, id string, at time.Time) (bool, error) {
	return affected(q.db.ExecContext(ctx, `
		UPDATE parent_approvals SET status = 'approved', approved_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`, at, at, id))
}

func (q *Queries) DeclineApproval(ctx context.Context, id string, at time.Time) (bool, error) {
	return affected(q.db.ExecContext(ctx, `
		UPDATE parent_approvals SET status = 'declined', declined_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`, at, at, id))
}

func (q *Queries) ExpireApproval(ctx context.Context, id string, at time.Time) (bool, error) {
	return affected(q.db.ExecContext(ctx, `
		UPDATE parent_approvals SET status = 'expired', expired_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`, at, at, id))
}

func (q *Queries) MarkApprovalProvisioned(ctx context.Context, id, childID string, at time.Time) (bool, error) {
	return affected(q.db.ExecContext(ctx, `
		UPDATE parent_approvals SET provisioned_child_id = ?, provisioned_at = ?, updated_at = ?
		WHERE id = ? AND status = 'approved' AND provisioned_child_id IS NULL`,
		childID, at, at, id))
}

func (q *Queries) RecordApprovalNotification(ctx context.Context, id string, sent bool, at time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE parent_approvals
		SET notify_attempts = notify_attempts + 1,
		    notified_at = CASE WHEN ? THEN ? ELSE notified_at END,
		    updated_at = ?
		WHERE id = ?`, sent, at, at, id)
	return err
}

func (q *Queries) ListExpiredPendingApprovals(ctx context.Context, now time.Time, limit int) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id FROM parent_approvals
		WHERE status = 'pending' AND expires_at <= ?
		ORDER BY expires_at LIMIT ?`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (q *Queries) FindApprovedApprovals(ctx context.Context, firstName, lastName, birthdate string) ([]ParentApproval, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+approvalColumns+` FROM parent_approvals
		WHERE status = 'approved' AND child_first_name = ? AND child_last_name = ? AND child_birthdate = ?
		ORDER BY id`, firstName, lastName, birthdate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ParentApproval
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
