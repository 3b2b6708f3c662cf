package db

import (
	"context"
	"database/sql"

	"github.com/sekolahku/poin-api/internal/models"
)

func GetUserByID(ctx context.Context, database *sql.DB, id int64) (*models.User, error) {
	var u models.User
	err := database.QueryRowContext(ctx, `
SELECT id, name, username, role, is_active FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Username, &u.Role, &u.IsActive)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func CreateUser(ctx context.Context, database *sql.DB, u models.User) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
INSERT INTO users (name, username, role, is_active) VALUES ($1, $2, $3, TRUE) RETURNING id`,
		u.Name, u.Username, string(u.Role)).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListUserIDsByRole returns active users only; deactivated accounts drop
// out of every notification pool.
func ListUserIDsByRole(ctx context.Context, database *sql.DB, role models.Role) ([]int64, error) {
	rows, err := database.QueryContext(ctx, `
SELECT id FROM users WHERE role = $1 AND is_active = TRUE ORDER BY id`, string(role))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func SetUserActiveTx(ctx context.Context, tx *sql.Tx, id int64, active bool) error {
	_, err := tx.ExecContext(ctx, `UPDATE users SET is_active = $1 WHERE id = $2`, active, id)
	return err
}
