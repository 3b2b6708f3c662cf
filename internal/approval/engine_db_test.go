//go:build testutil
// +build testutil

package approval_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/sekolahku/poin-api/internal/apperr"
	"github.com/sekolahku/poin-api/internal/approval"
	"github.com/sekolahku/poin-api/internal/db"
	"github.com/sekolahku/poin-api/internal/models"
	"github.com/sekolahku/poin-api/internal/notify"
	"github.com/sekolahku/poin-api/internal/testutil/testdb"
)

var seq int64

func mustSeedUser(t *testing.T, dbx *sql.DB, name string, role models.Role) int64 {
	t.Helper()
	n := atomic.AddInt64(&seq, 1)
	var id int64
	err := dbx.QueryRow(`
		INSERT INTO users (name, username, role, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id`, name, fmt.Sprintf("%s_%d", role, n), string(role)).Scan(&id)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func mustSeedStudent(t *testing.T, dbx *sql.DB, name string, homeroomID, parentID, userID *int64) int64 {
	t.Helper()
	n := atomic.AddInt64(&seq, 1)
	id, err := db.CreateStudent(context.Background(), dbx, models.Student{
		Name:              name,
		NIS:               fmt.Sprintf("NIS%05d", n),
		ClassName:         "7A",
		HomeroomTeacherID: homeroomID,
		ParentID:          parentID,
		UserID:            userID,
	})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func mustSeedCategory(t *testing.T, dbx *sql.DB, name string, kind models.RecordKind, points int) int64 {
	t.Helper()
	id, err := db.CreateCategory(context.Background(), dbx, models.Category{
		Name: name, Kind: kind, DefaultPoints: points,
	})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func newEngine(dbx *sql.DB) *approval.Engine {
	sugar := zap.NewNop().Sugar()
	return approval.NewEngine(dbx, notify.New(dbx, sugar), sugar)
}

func totalPoints(t *testing.T, dbx *sql.DB, studentID int64) int {
	t.Helper()
	st, err := db.GetStudentByID(context.Background(), dbx, studentID)
	if err != nil {
		t.Fatal(err)
	}
	return st.TotalPoints
}

func ptr[T any](v T) *T { return &v }

func TestWorkflow_EndToEnd(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	waliID := mustSeedUser(t, h.DB, "Bu Sari", models.RoleWaliKelas)
	guruID := mustSeedUser(t, h.DB, "Pak Budi", models.RoleGuruMapel)
	bkID := mustSeedUser(t, h.DB, "Bu Rina", models.RoleBK)
	parentID := mustSeedUser(t, h.DB, "Ayah Andi", models.RoleOrtu)
	siswaID := mustSeedUser(t, h.DB, "Andi", models.RoleSiswa)
	studentID := mustSeedStudent(t, h.DB, "Andi", &waliID, &parentID, &siswaID)
	catID := mustSeedCategory(t, h.DB, "Terlambat masuk", models.KindViolation, 10)

	engine := newEngine(h.DB)
	guru := models.Actor{UserID: guruID, Role: models.RoleGuruMapel}
	wali := models.Actor{UserID: waliID, Role: models.RoleWaliKelas}
	bk := models.Actor{UserID: bkID, Role: models.RoleBK}
	siswa := models.Actor{UserID: siswaID, Role: models.RoleSiswa}

	// subject teacher submits: homeroom gate engages, parent notified
	rec, err := engine.Submit(ctx, guru, approval.SubmitInput{
		Kind:        models.KindViolation,
		StudentID:   studentID,
		CategoryID:  catID,
		Description: "terlambat 20 menit",
		PointValue:  10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != models.StatusPendingHomeroom {
		t.Fatalf("status = %s, want pending_homeroom", rec.Status)
	}
	parentNotifs, err := db.ListNotifications(ctx, h.DB, parentID)
	if err != nil {
		t.Fatal(err)
	}
	if len(parentNotifs) != 1 {
		t.Fatalf("parent notifications = %d, want 1", len(parentNotifs))
	}

	// counselor cannot bypass the gate
	if _, err := engine.Apply(ctx, rec.ID, bk, approval.Request{Event: approval.EventApprove}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("gate bypass: err = %v, want conflict", err)
	}

	// homeroom clears the gate
	rec, err = engine.Apply(ctx, rec.ID, wali, approval.Request{Event: approval.EventHomeroomApprove})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != models.StatusPending {
		t.Fatalf("status = %s, want pending", rec.Status)
	}
	if rec.HomeroomApproverID == nil || *rec.HomeroomApproverID != waliID || rec.HomeroomApprovedAt == nil {
		t.Fatal("homeroom approval not stamped")
	}
	bkNotifs, _ := db.ListNotifications(ctx, h.DB, bkID)
	if len(bkNotifs) != 1 {
		t.Fatalf("bk notifications = %d, want 1", len(bkNotifs))
	}

	// counselor approves: ledger drops by 10
	rec, err = engine.Apply(ctx, rec.ID, bk, approval.Request{Event: approval.EventApprove, Note: ptr("terbukti")})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != models.StatusApproved {
		t.Fatalf("status = %s, want approved", rec.Status)
	}
	if got := totalPoints(t, h.DB, studentID); got != -10 {
		t.Fatalf("total = %d, want -10", got)
	}

	// appeal re-opens and reverses the delta
	rec, err = engine.Apply(ctx, rec.ID, siswa, approval.Request{Event: approval.EventAppeal, AppealText: "saya tidak terlambat"})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != models.StatusPending {
		t.Fatalf("status = %s, want pending", rec.Status)
	}
	if rec.AppealText == nil || *rec.AppealText != "saya tidak terlambat" {
		t.Fatal("appeal text not stored")
	}
	if got := totalPoints(t, h.DB, studentID); got != 0 {
		t.Fatalf("total after appeal = %d, want 0", got)
	}

	// second counselor pass rejects: ledger stays reversed
	rec, err = engine.Apply(ctx, rec.ID, bk, approval.Request{Event: approval.EventReject, Note: ptr("banding diterima")})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != models.StatusRejected {
		t.Fatalf("status = %s, want rejected", rec.Status)
	}
	if got := totalPoints(t, h.DB, studentID); got != 0 {
		t.Fatalf("total after reject = %d, want 0", got)
	}

	// ledger equals the sum of currently approved records
	var approvedSum int
	err = h.DB.QueryRow(`
		SELECT COALESCE(SUM(CASE WHEN kind = 'violation' THEN -point_value ELSE point_value END), 0)
		FROM records WHERE student_id = $1 AND status = 'approved'`, studentID).Scan(&approvedSum)
	if err != nil {
		t.Fatal(err)
	}
	if got := totalPoints(t, h.DB, studentID); got != approvedSum {
		t.Fatalf("ledger %d diverged from approved sum %d", got, approvedSum)
	}
}

func TestApprove_ConcurrentDoubleApproval(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	bkID := mustSeedUser(t, h.DB, "Bu Rina", models.RoleBK)
	waliID := mustSeedUser(t, h.DB, "Bu Sari", models.RoleWaliKelas)
	studentID := mustSeedStudent(t, h.DB, "Andi", &waliID, nil, nil)
	catID := mustSeedCategory(t, h.DB, "Membolos", models.KindViolation, 25)

	engine := newEngine(h.DB)
	wali := models.Actor{UserID: waliID, Role: models.RoleWaliKelas}
	bk := models.Actor{UserID: bkID, Role: models.RoleBK}

	rec, err := engine.Submit(ctx, wali, approval.SubmitInput{
		Kind:        models.KindViolation,
		StudentID:   studentID,
		CategoryID:  catID,
		Description: "tidak hadir tanpa keterangan",
		PointValue:  25,
	})
	if err != nil {
		t.Fatal(err)
	}

	const attempts = 8
	var ok, conflict int64
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Apply(ctx, rec.ID, bk, approval.Request{Event: approval.EventApprove})
			switch {
			case err == nil:
				atomic.AddInt64(&ok, 1)
			case apperr.Is(err, apperr.KindConflict):
				atomic.AddInt64(&conflict, 1)
			default:
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || conflict != attempts-1 {
		t.Fatalf("ok = %d, conflict = %d; want 1 and %d", ok, conflict, attempts-1)
	}
	if got := totalPoints(t, h.DB, studentID); got != -25 {
		t.Fatalf("total = %d, want -25 (delta applied exactly once)", got)
	}
}

func TestSubmit_Validation(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	guruID := mustSeedUser(t, h.DB, "Pak Budi", models.RoleGuruMapel)
	studentID := mustSeedStudent(t, h.DB, "Andi", nil, nil, nil)
	vioID := mustSeedCategory(t, h.DB, "Terlambat", models.KindViolation, 10)
	achID := mustSeedCategory(t, h.DB, "Juara lomba", models.KindAchievement, 50)

	engine := newEngine(h.DB)
	guru := models.Actor{UserID: guruID, Role: models.RoleGuruMapel}
	ortu := models.Actor{UserID: guruID, Role: models.RoleOrtu}

	cases := []struct {
		name string
		in   approval.SubmitInput
		act  models.Actor
		kind apperr.Kind
	}{
		{"non-staff", approval.SubmitInput{Kind: models.KindViolation, StudentID: studentID, CategoryID: vioID, Description: "x", PointValue: 10}, ortu, apperr.KindForbidden},
		{"empty description", approval.SubmitInput{Kind: models.KindViolation, StudentID: studentID, CategoryID: vioID, Description: "  ", PointValue: 10}, guru, apperr.KindValidation},
		{"kind mismatch", approval.SubmitInput{Kind: models.KindViolation, StudentID: studentID, CategoryID: achID, Description: "x", PointValue: 10}, guru, apperr.KindValidation},
		{"photo on achievement", approval.SubmitInput{Kind: models.KindAchievement, StudentID: studentID, CategoryID: achID, Description: "x", PointValue: 50, PhotoURL: ptr("http://foto")}, guru, apperr.KindValidation},
		{"missing category", approval.SubmitInput{Kind: models.KindViolation, StudentID: studentID, CategoryID: 99999, Description: "x", PointValue: 10}, guru, apperr.KindNotFound},
		{"missing student", approval.SubmitInput{Kind: models.KindViolation, StudentID: 99999, CategoryID: vioID, Description: "x", PointValue: 10}, guru, apperr.KindNotFound},
	}
	for _, tc := range cases {
		if _, err := engine.Submit(ctx, tc.act, tc.in); !apperr.Is(err, tc.kind) {
			t.Errorf("%s: err = %v, want kind %d", tc.name, err, tc.kind)
		}
	}

	// zero points is a legal warning for violations
	rec, err := engine.Submit(ctx, guru, approval.SubmitInput{
		Kind: models.KindViolation, StudentID: studentID, CategoryID: vioID,
		Description: "peringatan lisan", PointValue: 0,
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.PointValue != 0 {
		t.Fatalf("point value = %d, want 0", rec.PointValue)
	}
}
