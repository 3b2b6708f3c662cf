package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sekolahku/poin-api/internal/models"
)

func CreateStudent(ctx context.Context, database *sql.DB, s models.Student) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
INSERT INTO students (name, nis, class_name, homeroom_teacher_id, parent_id, user_id, total_points, is_active)
VALUES ($1, $2, $3, $4, $5, $6, 0, TRUE)
RETURNING id`,
		s.Name, s.NIS, s.ClassName, s.HomeroomTeacherID, s.ParentID, s.UserID).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func GetStudentByID(ctx context.Context, database *sql.DB, id int64) (*models.Student, error) {
	var s models.Student
	err := database.QueryRowContext(ctx, `
SELECT id, name, nis, class_name, homeroom_teacher_id, parent_id, user_id, total_points, is_active
FROM students WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.NIS, &s.ClassName, &s.HomeroomTeacherID, &s.ParentID, &s.UserID, &s.TotalPoints, &s.IsActive)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetStudentByUserID resolves the student row behind a siswa login.
func GetStudentByUserID(ctx context.Context, database *sql.DB, userID int64) (*models.Student, error) {
	var s models.Student
	err := database.QueryRowContext(ctx, `
SELECT id, name, nis, class_name, homeroom_teacher_id, parent_id, user_id, total_points, is_active
FROM students WHERE user_id = $1`, userID).
		Scan(&s.ID, &s.Name, &s.NIS, &s.ClassName, &s.HomeroomTeacherID, &s.ParentID, &s.UserID, &s.TotalPoints, &s.IsActive)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetStudentsByParentID lists the children linked to an ortu account.
func GetStudentsByParentID(ctx context.Context, database *sql.DB, parentID int64) ([]models.Student, error) {
	rows, err := database.QueryContext(ctx, `
SELECT id, name, nis, class_name, homeroom_teacher_id, parent_id, user_id, total_points, is_active
FROM students WHERE parent_id = $1 ORDER BY name`, parentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanStudents(rows)
}

// ListStudentIDsByHomeroom scopes a wali kelas to their own class.
func ListStudentIDsByHomeroom(ctx context.Context, database *sql.DB, teacherID int64) ([]int64, error) {
	rows, err := database.QueryContext(ctx, `
SELECT id FROM students WHERE homeroom_teacher_id = $1 AND is_active = TRUE`, teacherID)
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

func ListStudents(ctx context.Context, database *sql.DB) ([]models.Student, error) {
	rows, err := database.QueryContext(ctx, `
SELECT id, name, nis, class_name, homeroom_teacher_id, parent_id, user_id, total_points, is_active
FROM students WHERE is_active = TRUE ORDER BY class_name, name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanStudents(rows)
}

func UpdateStudent(ctx context.Context, database *sql.DB, s models.Student) error {
	res, err := database.ExecContext(ctx, `
UPDATE students SET name = $1, nis = $2, class_name = $3, homeroom_teacher_id = $4, parent_id = $5, user_id = $6
WHERE id = $7`,
		s.Name, s.NIS, s.ClassName, s.HomeroomTeacherID, s.ParentID, s.UserID, s.ID)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeactivateStudent soft-deletes the student and the linked login
// account in one transaction. Records stay.
func DeactivateStudent(ctx context.Context, database *sql.DB, id int64) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var userID *int64
	err = tx.QueryRowContext(ctx, `
UPDATE students SET is_active = FALSE WHERE id = $1 RETURNING user_id`, id).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return sql.ErrNoRows
	}
	if err != nil {
		return err
	}
	if userID != nil {
		if err := SetUserActiveTx(ctx, tx, *userID, false); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ApplyPointsDeltaTx adjusts the cached ledger total. Must run in the
// same transaction as the record status write.
func ApplyPointsDeltaTx(ctx context.Context, tx *sql.Tx, studentID int64, delta int) error {
	res, err := tx.ExecContext(ctx, `
UPDATE students SET total_points = total_points + $1 WHERE id = $2`, delta, studentID)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Ranking returns active students sorted by total_points descending.
// The id tiebreak keeps ties in stable listing order.
func Ranking(ctx context.Context, database *sql.DB, className string) ([]models.Student, error) {
	query := `
SELECT id, name, nis, class_name, homeroom_teacher_id, parent_id, user_id, total_points, is_active
FROM students WHERE is_active = TRUE`
	args := []any{}
	if className != "" {
		query += ` AND class_name = $1`
		args = append(args, className)
	}
	query += ` ORDER BY total_points DESC, id`

	rows, err := database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanStudents(rows)
}

func scanStudents(rows *sql.Rows) ([]models.Student, error) {
	var out []models.Student
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.NIS, &s.ClassName, &s.HomeroomTeacherID, &s.ParentID, &s.UserID, &s.TotalPoints, &s.IsActive); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
