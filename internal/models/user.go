package models

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleGuruMapel Role = "guru_mapel"
	RoleWaliKelas Role = "wali_kelas"
	RoleBK        Role = "bk"
	RoleOrtu      Role = "ortu"
	RoleSiswa     Role = "siswa"
)

// TeachingStaff reports whether the role may submit records.
func (r Role) TeachingStaff() bool {
	switch r {
	case RoleAdmin, RoleGuruMapel, RoleWaliKelas, RoleBK:
		return true
	}
	return false
}

type User struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	Username string `db:"username"`
	Role     Role   `db:"role"`
	IsActive bool   `db:"is_active"`
}

// Actor is the authenticated caller of a core operation. It is threaded
// explicitly into every transition instead of being read from ambient
// session state.
type Actor struct {
	UserID int64
	Role   Role
	Name   string
}
