package db

import (
	"context"
	"database/sql"

	"github.com/sekolahku/poin-api/internal/models"
)

func InsertNotification(ctx context.Context, database *sql.DB, userID int64, title, message string) error {
	_, err := database.ExecContext(ctx, `
INSERT INTO notifications (user_id, title, message) VALUES ($1, $2, $3)`, userID, title, message)
	return err
}

func ListNotifications(ctx context.Context, database *sql.DB, userID int64) ([]models.Notification, error) {
	rows, err := database.QueryContext(ctx, `
SELECT id, user_id, title, message, is_read, created_at
FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead is scoped to the recipient: a notification id
// belonging to somebody else counts as not found.
func MarkNotificationRead(ctx context.Context, database *sql.DB, id, userID int64) error {
	res, err := database.ExecContext(ctx, `
UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func MarkAllNotificationsRead(ctx context.Context, database *sql.DB, userID int64) error {
	_, err := database.ExecContext(ctx, `
UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	return err
}
