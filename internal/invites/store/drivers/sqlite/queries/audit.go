package queries

import "context"

func (q *Queries) InsertAuditLog(ctx context.Context, a AuditLog) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, actor_id, action, target_type, target_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ActorID, a.Action, a.TargetType, a.TargetID, a.Metadata, a.CreatedAt)
	return err
}

func (q *Queries) ListAuditLogByTarget(ctx context.Context, targetType, targetID string) ([]AuditLog, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, actor_id, action, target_type, target_id, metadata, created_at FROM audit_log
		WHERE target_type = ? AND target_id = ? ORDER BY id`, targetType, targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditLog
	for rows.Next() {
		var a AuditLog
		if err := rows.Scan(&a.ID, &a.ActorID, &a.Action, &a.TargetType, &a.TargetID, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
