package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/visitor-management/internal/model"
)

// NotificationRepo persists the durable notification log. One row is
// written for every dispatch regardless of push outcome; the cleanup
// sweep deletes read rows past the retention threshold in bounded pages.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo returns a new NotificationRepo bound to the given
// database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

const notificationColumns = `id, user_id, title, body, type, related_visit_id,
	is_read, created_at`

func scanNotification(s interface{ Scan(...interface{}) error }) (*model.Notification, error) {
	var (
		n       model.Notification
		related sql.NullString
	)
	err := s.Scan(
		&n.ID, &n.UserID, &n.Title, &n.Body, &n.Type, &related,
		&n.IsRead, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if related.Valid {
		rv := related.String
		n.RelatedVisitID = &rv
	}
	return &n, nil
}

// Create inserts a notification row and fills in the generated ID and
// creation timestamp on the provided record.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now().UTC()
	const q = `INSERT INTO notifications (id, user_id, title, body, type,
		related_visit_id, is_read, created_at) VALUES (?,?,?,?,?,?,?,?)`
	_, err := r.db.ExecContext(ctx, q,
		n.ID, n.UserID, n.Title, n.Body, n.Type,
		n.RelatedVisitID, n.IsRead, n.CreatedAt)
	return err
}

// ListByUser returns a user's notifications, newest first, capped at
// limit.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + notificationColumns + ` FROM notifications
		WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]*model.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// MarkRead flags one notification as read, scoped to its owner so one
// user cannot mark another's rows.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	const q = `UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReadBefore deletes up to limit read notifications created before
// the cutoff and reports how many rows went away. The cleanup sweep
// calls this in a loop until a short page signals the backlog drained.
func (r *NotificationRepo) DeleteReadBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	const q = `DELETE FROM notifications WHERE is_read = 1 AND created_at < ? LIMIT ?`
	res, err := r.db.ExecContext(ctx, q, cutoff, limit)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
