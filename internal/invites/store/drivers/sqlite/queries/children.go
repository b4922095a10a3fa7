package queries

import (
	"context"
	"time"
)

func (q *Queries) CreateChildProfile(ctx context.Context, p ChildProfile) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO child_profiles (user_id, first_name, last_name, birthdate) VALUES (?, ?, ?, ?)`,
		p.UserID, p.FirstName, p.LastName, p.Birthdate)
	return err
}

func (q *Queries) GetChildProfile(ctx context.Context, userID string) (ChildProfile, error) {
	var p ChildProfile
	err := q.db.QueryRowContext(ctx,
		`SELECT user_id, first_name, last_name, birthdate FROM child_profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.FirstName, &p.LastName, &p.Birthdate)
	return p, err
}

func (q *Queries) CreateChildSettings(ctx context.Context, s ChildSetting) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO child_settings (user_id, invites_enabled, require_approval_invites, require_approval_posts, moderation_level)
		VALUES (?, ?, ?, ?, ?)`,
		s.UserID, s.InvitesEnabled, s.RequireApprovalInvites, s.RequireApprovalPosts, s.ModerationLevel)
	return err
}

func (q *Queries) GetChildSettings(ctx context.Context, userID string) (ChildSetting, error) {
	var s ChildSetting
	err := q.db.QueryRowContext(ctx, `
		SELECT user_id, invites_enabled, require_approval_invites, require_approval_posts, moderation_level
		FROM child_settings WHERE user_id = ?`, userID,
	).Scan(&s.UserID, &s.InvitesEnabled, &s.RequireApprovalInvites, &s.RequireApprovalPosts, &s.ModerationLevel)
	return s, err
}

func (q *Queries) LinkParent(ctx context.Context, parentID, childID string, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO parent_links (parent_id, child_id, created_at) VALUES (?, ?, ?)`,
		parentID, childID, at)
	return err
}

func (q *Queries) IsParentOf(ctx context.Context, parentID, childID string) (bool, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM parent_links WHERE parent_id = ? AND child_id = ?`, parentID, childID,
	).Scan(&n)
	return n > 0, err
}
