package models

import "time"

// Notification is fire-and-forget: it keeps no reference back to the
// record that produced it, so record history never depends on it.
type Notification struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Title     string    `db:"title"`
	Message   string    `db:"message"`
	IsRead    bool      `db:"is_read"`
	CreatedAt time.Time `db:"created_at"`
}
