package models

type RecordKind string

const (
	KindViolation   RecordKind = "violation"
	KindAchievement RecordKind = "achievement"
)

func (k RecordKind) Valid() bool {
	return k == KindViolation || k == KindAchievement
}

// Sign returns the ledger direction for the kind: violations subtract,
// achievements add.
func (k RecordKind) Sign() int {
	if k == KindViolation {
		return -1
	}
	return 1
}

// Category prices a named violation/achievement type. Kind is immutable
// after creation; records copy DefaultPoints at submit time and never
// re-read it.
type Category struct {
	ID            int64      `db:"id"`
	Name          string     `db:"name"`
	Kind          RecordKind `db:"kind"`
	DefaultPoints int        `db:"default_points"`
}
