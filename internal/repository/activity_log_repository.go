package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/visitor-management/internal/model"
)

// ActivityLogRepo persists audit rows written by the event consumer.
type ActivityLogRepo struct {
	db *sql.DB
}

// NewActivityLogRepo returns a new ActivityLogRepo bound to the given
// database.
func NewActivityLogRepo(db *sql.DB) *ActivityLogRepo { return &ActivityLogRepo{db: db} }

// Create inserts an audit row and fills in the generated ID and
// creation timestamp on the provided record.
func (r *ActivityLogRepo) Create(ctx context.Context, l *model.ActivityLog) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO activity_logs (id, type, visit_id, visitor_id, actor,
		old_status, new_status, detail, created_at) VALUES (?,?,?,?,?,?,?,?,?)`
	_, err := r.db.ExecContext(ctx, q,
		l.ID, l.Type, l.VisitID, l.VisitorID, l.Actor,
		l.OldStatus, l.NewStatus, l.Detail, l.CreatedAt)
	return err
}

// ListRecent returns the latest audit rows, newest first, capped at
// limit.
func (r *ActivityLogRepo) ListRecent(ctx context.Context, limit int) ([]*model.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT id, type, visit_id, visitor_id, actor, old_status, new_status,
		detail, created_at FROM activity_logs ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	logs := make([]*model.ActivityLog, 0)
	for rows.Next() {
		var (
			l         model.ActivityLog
			oldStatus sql.NullString
			newStatus sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.Type, &l.VisitID, &l.VisitorID, &l.Actor,
			&oldStatus, &newStatus, &l.Detail, &l.CreatedAt); err != nil {
			return nil, err
		}
		if oldStatus.Valid {
			s := oldStatus.String
			l.OldStatus = &s
		}
		if newStatus.Valid {
			s := newStatus.String
			l.NewStatus = &s
		}
		logs = append(logs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// DeleteBefore deletes up to limit audit rows created before the cutoff
// and reports how many rows went away. The cleanup sweep calls this in
// a loop until a short page signals the backlog drained.
func (r *ActivityLogRepo) DeleteBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	const q = `DELETE FROM activity_logs WHERE created_at < ? LIMIT ?`
	res, err := r.db.ExecContext(ctx, q, cutoff, limit)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
