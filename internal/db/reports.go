package db

import (
	"context"
	"database/sql"

	"github.com/sekolahku/poin-api/internal/models"
)

// ClassReports aggregates per class: student head count, approved
// violation/achievement counts, and the cached point total. Reads the
// ledger cache, never recomputes from record history.
func ClassReports(ctx context.Context, database *sql.DB) ([]models.ClassReport, error) {
	rows, err := database.QueryContext(ctx, `
SELECT st.class_name,
       COUNT(*) AS student_count,
       COALESCE(SUM(rc.violation_count), 0) AS violation_count,
       COALESCE(SUM(rc.achievement_count), 0) AS achievement_count,
       SUM(st.total_points) AS total_points
FROM students st
LEFT JOIN (
    SELECT student_id,
           COUNT(*) FILTER (WHERE kind = 'violation' AND status = 'approved') AS violation_count,
           COUNT(*) FILTER (WHERE kind = 'achievement' AND status = 'approved') AS achievement_count
    FROM records
    GROUP BY student_id
) rc ON rc.student_id = st.id
WHERE st.is_active = TRUE
GROUP BY st.class_name
ORDER BY st.class_name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.ClassReport
	for rows.Next() {
		var c models.ClassReport
		if err := rows.Scan(&c.ClassName, &c.StudentCount, &c.ViolationCount, &c.AchievementCount, &c.TotalPoints); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
