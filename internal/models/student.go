package models

type Student struct {
	ID                int64  `db:"id"`
	Name              string `db:"name"`
	NIS               string `db:"nis"`
	ClassName         string `db:"class_name"`
	HomeroomTeacherID *int64 `db:"homeroom_teacher_id"`
	ParentID          *int64 `db:"parent_id"`
	UserID            *int64 `db:"user_id"`
	TotalPoints       int    `db:"total_points"`
	IsActive          bool   `db:"is_active"`
}

// ClassReport is one row of the per-class aggregation.
type ClassReport struct {
	ClassName        string `db:"class_name"`
	StudentCount     int    `db:"student_count"`
	ViolationCount   int    `db:"violation_count"`
	AchievementCount int    `db:"achievement_count"`
	TotalPoints      int    `db:"total_points"`
}
