package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sekolahku/poin-api/internal/models"
)

const recordCols = `
r.id, r.kind, r.student_id, r.category_id, r.recorded_by, r.description, r.photo_url,
r.point_value, r.status, r.counselor_note, r.appeal_text, r.homeroom_approver_id,
r.homeroom_approved_at, r.created_at`

func CreateRecord(ctx context.Context, database *sql.DB, r models.Record) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
INSERT INTO records (kind, student_id, category_id, recorded_by, description, photo_url, point_value, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`,
		string(r.Kind), r.StudentID, r.CategoryID, r.RecordedBy, r.Description, r.PhotoURL,
		r.PointValue, string(r.Status)).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func GetRecordByID(ctx context.Context, database *sql.DB, id int64) (*models.Record, error) {
	var r models.Record
	err := database.QueryRowContext(ctx, `
SELECT `+recordCols+` FROM records r WHERE r.id = $1`, id).Scan(
		&r.ID, &r.Kind, &r.StudentID, &r.CategoryID, &r.RecordedBy, &r.Description, &r.PhotoURL,
		&r.PointValue, &r.Status, &r.CounselorNote, &r.AppealText, &r.HomeroomApproverID,
		&r.HomeroomApprovedAt, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// RecordFilter narrows the listing per the caller's visibility.
type RecordFilter struct {
	Kind       models.RecordKind
	ClassName  string
	StudentIDs []int64
	Status     models.RecordStatus
}

func ListRecords(ctx context.Context, database *sql.DB, f RecordFilter) ([]models.RecordWithStudent, error) {
	query := `
SELECT ` + recordCols + `, st.name AS student_name, st.class_name, c.name AS category_name, u.name AS recorded_by_name
FROM records r
JOIN students st ON st.id = r.student_id
JOIN categories c ON c.id = r.category_id
JOIN users u ON u.id = r.recorded_by
WHERE 1=1`
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return placeholder(len(args))
	}
	if f.Kind != "" {
		query += ` AND r.kind = ` + arg(string(f.Kind))
	}
	if f.ClassName != "" {
		query += ` AND st.class_name = ` + arg(f.ClassName)
	}
	if f.Status != "" {
		query += ` AND r.status = ` + arg(string(f.Status))
	}
	if f.StudentIDs != nil {
		if len(f.StudentIDs) == 0 {
			return nil, nil
		}
		ph := make([]string, len(f.StudentIDs))
		for i, id := range f.StudentIDs {
			ph[i] = arg(id)
		}
		query += ` AND r.student_id IN (` + strings.Join(ph, ", ") + `)`
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`

	rows, err := database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.RecordWithStudent
	for rows.Next() {
		var r models.RecordWithStudent
		if err := rows.Scan(
			&r.ID, &r.Kind, &r.StudentID, &r.CategoryID, &r.RecordedBy, &r.Description, &r.PhotoURL,
			&r.PointValue, &r.Status, &r.CounselorNote, &r.AppealText, &r.HomeroomApproverID,
			&r.HomeroomApprovedAt, &r.CreatedAt,
			&r.StudentName, &r.ClassName, &r.CategoryName, &r.RecordedByName); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecordUpdate is the mutable slice of a record a transition may touch.
type RecordUpdate struct {
	Status             models.RecordStatus
	CounselorNote      *string
	AppealText         *string
	HomeroomApproverID *int64
	SetHomeroomStamp   bool
}

// TransitionRecordTx performs the optimistic status move: the UPDATE is
// keyed on the expected current status and reports whether a row was
// actually claimed. Zero rows means a concurrent transition won.
func TransitionRecordTx(ctx context.Context, tx *sql.Tx, id int64, from models.RecordStatus, upd RecordUpdate) (bool, error) {
	query := `
UPDATE records SET status = $1,
    counselor_note = COALESCE($2, counselor_note),
    appeal_text = COALESCE($3, appeal_text),
    homeroom_approver_id = COALESCE($4, homeroom_approver_id)`
	if upd.SetHomeroomStamp {
		query += `, homeroom_approved_at = NOW()`
	}
	query += ` WHERE id = $5 AND status = $6`

	res, err := tx.ExecContext(ctx, query,
		string(upd.Status), upd.CounselorNote, upd.AppealText, upd.HomeroomApproverID, id, string(from))
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff == 1, nil
}

// CountStalePending counts records sitting in a pending status for
// longer than the given interval, for the reminder job.
func CountStalePending(ctx context.Context, database *sql.DB, olderThanHours int) (int, error) {
	var n int
	err := database.QueryRowContext(ctx, `
SELECT COUNT(*) FROM records
WHERE status IN ('pending', 'pending_homeroom')
  AND created_at < NOW() - make_interval(hours => $1)`, olderThanHours).Scan(&n)
	return n, err
}

func placeholder(n int) string { return fmt.Sprintf("$%d", n) }
