package db

import (
	"context"
	"database/sql"

	"github.com/sekolahku/poin-api/internal/models"
)

func CreateCategory(ctx context.Context, database *sql.DB, c models.Category) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
INSERT INTO categories (name, kind, default_points) VALUES ($1, $2, $3) RETURNING id`,
		c.Name, string(c.Kind), c.DefaultPoints).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func GetCategoryByID(ctx context.Context, database *sql.DB, id int64) (*models.Category, error) {
	var c models.Category
	err := database.QueryRowContext(ctx, `
SELECT id, name, kind, default_points FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Kind, &c.DefaultPoints)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func ListCategories(ctx context.Context, database *sql.DB, kind models.RecordKind) ([]models.Category, error) {
	query := `SELECT id, name, kind, default_points FROM categories`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = $1`
		args = append(args, string(kind))
	}
	query += ` ORDER BY name`

	rows, err := database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &c.DefaultPoints); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCategory hard-deletes. The records FK is RESTRICT, so a category
// still referenced by records fails with a FK violation the caller
// reports as "in use".
func DeleteCategory(ctx context.Context, database *sql.DB, id int64) error {
	res, err := database.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}
