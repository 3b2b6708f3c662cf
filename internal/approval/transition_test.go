package approval

import (
	"testing"

	"github.com/sekolahku/poin-api/internal/apperr"
	"github.com/sekolahku/poin-api/internal/models"
)

func ptr[T any](v T) *T { return &v }

func violation(status models.RecordStatus) models.Record {
	return models.Record{
		ID:         1,
		Kind:       models.KindViolation,
		StudentID:  10,
		PointValue: 10,
		Status:     status,
	}
}

func achievement(status models.RecordStatus) models.Record {
	r := violation(status)
	r.Kind = models.KindAchievement
	return r
}

func student() models.Student {
	return models.Student{
		ID:                10,
		Name:              "Andi",
		HomeroomTeacherID: ptr(int64(100)),
		ParentID:          ptr(int64(200)),
		UserID:            ptr(int64(300)),
	}
}

var (
	wali      = models.Actor{UserID: 100, Role: models.RoleWaliKelas}
	otherWali = models.Actor{UserID: 101, Role: models.RoleWaliKelas}
	bk        = models.Actor{UserID: 400, Role: models.RoleBK}
	guru      = models.Actor{UserID: 500, Role: models.RoleGuruMapel}
	parent    = models.Actor{UserID: 200, Role: models.RoleOrtu}
	siswa     = models.Actor{UserID: 300, Role: models.RoleSiswa}
	stranger  = models.Actor{UserID: 999, Role: models.RoleOrtu}
)

func TestInitialStatus(t *testing.T) {
	cases := []struct {
		kind models.RecordKind
		role models.Role
		want models.RecordStatus
	}{
		{models.KindViolation, models.RoleGuruMapel, models.StatusPendingHomeroom},
		{models.KindViolation, models.RoleWaliKelas, models.StatusPending},
		{models.KindViolation, models.RoleBK, models.StatusPending},
		{models.KindViolation, models.RoleAdmin, models.StatusPending},
		{models.KindAchievement, models.RoleGuruMapel, models.StatusPending},
		{models.KindAchievement, models.RoleWaliKelas, models.StatusPending},
	}
	for _, tc := range cases {
		if got := InitialStatus(tc.kind, tc.role); got != tc.want {
			t.Errorf("InitialStatus(%s, %s) = %s, want %s", tc.kind, tc.role, got, tc.want)
		}
	}
}

func TestHomeroomApprove(t *testing.T) {
	out, err := Decide(violation(models.StatusPendingHomeroom), student(), wali, Request{Event: EventHomeroomApprove})
	if err != nil {
		t.Fatal(err)
	}
	if out.Next != models.StatusPending {
		t.Fatalf("next = %s, want pending", out.Next)
	}
	if !out.ClearGate {
		t.Error("gate should be stamped")
	}
	if out.LedgerDelta != 0 {
		t.Errorf("homeroom approval must not touch the ledger, got %d", out.LedgerDelta)
	}
	if !out.NotifyBKPool || !out.NotifyRecorder {
		t.Error("BK pool and recorder must be notified")
	}
}

func TestHomeroomReject_SetsNote(t *testing.T) {
	out, err := Decide(violation(models.StatusPendingHomeroom), student(), wali, Request{Event: EventHomeroomReject})
	if err != nil {
		t.Fatal(err)
	}
	if out.Next != models.StatusRejected {
		t.Fatalf("next = %s, want rejected", out.Next)
	}
	if out.Note == nil || *out.Note != homeroomRejectNote {
		t.Errorf("note = %v, want auto note", out.Note)
	}
}

func TestHomeroom_WrongActor(t *testing.T) {
	rec := violation(models.StatusPendingHomeroom)
	for _, actor := range []models.Actor{otherWali, bk, guru, parent} {
		if _, err := Decide(rec, student(), actor, Request{Event: EventHomeroomApprove}); !apperr.Is(err, apperr.KindForbidden) {
			t.Errorf("actor %d/%s: err = %v, want forbidden", actor.UserID, actor.Role, err)
		}
	}
}

func TestHomeroom_UnassignedStudent(t *testing.T) {
	st := student()
	st.HomeroomTeacherID = nil
	if _, err := Decide(violation(models.StatusPendingHomeroom), st, wali, Request{Event: EventHomeroomApprove}); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("err = %v, want forbidden", err)
	}
}

func TestCounselorApprove_AppliesDelta(t *testing.T) {
	out, err := Decide(violation(models.StatusPending), student(), bk, Request{Event: EventApprove, Note: ptr("terbukti")})
	if err != nil {
		t.Fatal(err)
	}
	if out.Next != models.StatusApproved {
		t.Fatalf("next = %s, want approved", out.Next)
	}
	if out.LedgerDelta != -10 {
		t.Errorf("delta = %d, want -10", out.LedgerDelta)
	}
	if !out.NotifyParent {
		t.Error("parent must be notified")
	}

	out, err = Decide(achievement(models.StatusPending), student(), bk, Request{Event: EventApprove})
	if err != nil {
		t.Fatal(err)
	}
	if out.LedgerDelta != 10 {
		t.Errorf("achievement delta = %d, want +10", out.LedgerDelta)
	}
}

func TestCounselorReject_NoDelta(t *testing.T) {
	out, err := Decide(violation(models.StatusPending), student(), bk, Request{Event: EventReject})
	if err != nil {
		t.Fatal(err)
	}
	if out.Next != models.StatusRejected || out.LedgerDelta != 0 {
		t.Fatalf("got (%s, %d), want (rejected, 0)", out.Next, out.LedgerDelta)
	}
}

func TestCounselor_GateStillClosed(t *testing.T) {
	for _, ev := range []Event{EventApprove, EventReject} {
		if _, err := Decide(violation(models.StatusPendingHomeroom), student(), bk, Request{Event: ev}); !apperr.Is(err, apperr.KindConflict) {
			t.Errorf("%s on gated record: err = %v, want conflict", ev, err)
		}
	}
}

func TestCounselor_AlreadyDecided(t *testing.T) {
	for _, status := range []models.RecordStatus{models.StatusApproved, models.StatusRejected} {
		if _, err := Decide(violation(status), student(), bk, Request{Event: EventApprove}); !apperr.Is(err, apperr.KindConflict) {
			t.Errorf("approve from %s: err = %v, want conflict", status, err)
		}
	}
}

func TestCounselor_WrongRole(t *testing.T) {
	for _, actor := range []models.Actor{wali, guru, parent, {UserID: 1, Role: models.RoleAdmin}} {
		if _, err := Decide(violation(models.StatusPending), student(), actor, Request{Event: EventApprove}); !apperr.Is(err, apperr.KindForbidden) {
			t.Errorf("role %s: err = %v, want forbidden", actor.Role, err)
		}
	}
}

func TestAppeal_ReversesDelta(t *testing.T) {
	for _, actor := range []models.Actor{siswa, parent} {
		out, err := Decide(violation(models.StatusApproved), student(), actor, Request{Event: EventAppeal, AppealText: "saya tidak terlambat"})
		if err != nil {
			t.Fatal(err)
		}
		if out.Next != models.StatusPending {
			t.Fatalf("next = %s, want pending", out.Next)
		}
		if out.LedgerDelta != 10 {
			t.Errorf("delta = %d, want +10 (reversal)", out.LedgerDelta)
		}
		if out.Appeal == nil || *out.Appeal != "saya tidak terlambat" {
			t.Errorf("appeal text = %v", out.Appeal)
		}
		if !out.NotifyBKPool || !out.NotifyHomeroom {
			t.Error("BK pool and homeroom must be notified")
		}
	}
}

func TestAppeal_Guards(t *testing.T) {
	st := student()

	if _, err := Decide(achievement(models.StatusApproved), st, siswa, Request{Event: EventAppeal, AppealText: "x"}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("achievement appeal: err = %v, want validation", err)
	}
	if _, err := Decide(violation(models.StatusPending), st, siswa, Request{Event: EventAppeal, AppealText: "x"}); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("appeal on pending: err = %v, want conflict", err)
	}
	appealed := violation(models.StatusApproved)
	appealed.AppealText = ptr("sudah pernah")
	if _, err := Decide(appealed, st, siswa, Request{Event: EventAppeal, AppealText: "x"}); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("second appeal: err = %v, want conflict", err)
	}
	if _, err := Decide(violation(models.StatusApproved), st, stranger, Request{Event: EventAppeal, AppealText: "x"}); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("stranger appeal: err = %v, want forbidden", err)
	}
	if _, err := Decide(violation(models.StatusApproved), st, siswa, Request{Event: EventAppeal, AppealText: "  "}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("blank appeal text: err = %v, want validation", err)
	}
}

func TestUnknownEvent(t *testing.T) {
	if _, err := Decide(violation(models.StatusPending), student(), bk, Request{Event: "promote"}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("err = %v, want validation", err)
	}
}
