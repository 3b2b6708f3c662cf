package approval

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sekolahku/poin-api/internal/apperr"
	"github.com/sekolahku/poin-api/internal/ctxutil"
	"github.com/sekolahku/poin-api/internal/db"
	"github.com/sekolahku/poin-api/internal/metrics"
	"github.com/sekolahku/poin-api/internal/models"
	"github.com/sekolahku/poin-api/internal/notify"
)

// Engine owns every record mutation after creation. The status write and
// the ledger delta share one transaction; a transition that loses the
// optimistic status check mutates nothing and reports a conflict.
type Engine struct {
	db       *sql.DB
	notifier *notify.Notifier
	log      *zap.SugaredLogger
}

func NewEngine(database *sql.DB, notifier *notify.Notifier, log *zap.SugaredLogger) *Engine {
	return &Engine{db: database, notifier: notifier, log: log}
}

type SubmitInput struct {
	Kind        models.RecordKind
	StudentID   int64
	CategoryID  int64
	Description string
	PointValue  int
	PhotoURL    *string
}

// Submit validates and creates a record, then tells the parent.
func (e *Engine) Submit(ctx context.Context, actor models.Actor, in SubmitInput) (*models.Record, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if !actor.Role.TeachingStaff() {
		return nil, apperr.Forbidden("hanya staf pengajar yang dapat mencatat")
	}
	if !in.Kind.Valid() {
		return nil, apperr.Validation("jenis catatan tidak dikenal: %s", in.Kind)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, apperr.Validation("deskripsi wajib diisi")
	}
	if in.PointValue < 0 {
		return nil, apperr.Validation("poin tidak boleh negatif")
	}
	if in.PhotoURL != nil && in.Kind != models.KindViolation {
		return nil, apperr.Validation("foto hanya untuk catatan pelanggaran")
	}

	cat, err := db.GetCategoryByID(ctx, e.db, in.CategoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("kategori")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if cat.Kind != in.Kind {
		return nil, apperr.Validation("kategori %q bukan kategori %s", cat.Name, in.Kind)
	}

	st, err := db.GetStudentByID(ctx, e.db, in.StudentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("siswa")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !st.IsActive {
		return nil, apperr.Conflict("siswa sudah tidak aktif")
	}

	rec := models.Record{
		Kind:        in.Kind,
		StudentID:   in.StudentID,
		CategoryID:  in.CategoryID,
		RecordedBy:  actor.UserID,
		Description: strings.TrimSpace(in.Description),
		PhotoURL:    in.PhotoURL,
		PointValue:  in.PointValue,
		Status:      InitialStatus(in.Kind, actor.Role),
	}
	id, err := db.CreateRecord(ctx, e.db, rec)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if st.ParentID != nil {
		e.notifier.Send(ctx, notify.Message{
			Target: notify.Target{UserID: *st.ParentID},
			Title:  "Catatan baru",
			Text:   fmt.Sprintf("%s baru dicatat untuk %s: %s", kindLabel(in.Kind), st.Name, cat.Name),
		})
	}

	created, err := db.GetRecordByID(ctx, e.db, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return created, nil
}

// Apply runs one transition of the state machine against a record.
func (e *Engine) Apply(ctx context.Context, recordID int64, actor models.Actor, req Request) (*models.Record, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rec, err := db.GetRecordByID(ctx, e.db, recordID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("catatan")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	st, err := db.GetStudentByID(ctx, e.db, rec.StudentID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	out, err := Decide(*rec, *st, actor, req)
	if err != nil {
		metrics.Transitions.WithLabelValues(string(req.Event), outcomeLabel(err)).Inc()
		return nil, err
	}

	if err := e.commit(ctx, rec, st.ID, out, actor); err != nil {
		metrics.Transitions.WithLabelValues(string(req.Event), outcomeLabel(err)).Inc()
		return nil, err
	}
	metrics.Transitions.WithLabelValues(string(req.Event), "ok").Inc()

	e.fanout(ctx, *rec, *st, out)

	updated, err := db.GetRecordByID(ctx, e.db, recordID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return updated, nil
}

func (e *Engine) commit(ctx context.Context, rec *models.Record, studentID int64, out Outcome, actor models.Actor) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Internal(err)
	}
	defer func() { _ = tx.Rollback() }()

	upd := db.RecordUpdate{
		Status:        out.Next,
		CounselorNote: out.Note,
		AppealText:    out.Appeal,
	}
	if out.ClearGate {
		upd.HomeroomApproverID = &actor.UserID
		upd.SetHomeroomStamp = true
	}
	claimed, err := db.TransitionRecordTx(ctx, tx, rec.ID, rec.Status, upd)
	if err != nil {
		return apperr.Internal(err)
	}
	if !claimed {
		// Somebody else moved the record first.
		return apperr.Conflict("catatan sudah diproses")
	}
	if out.LedgerDelta != 0 {
		if err := db.ApplyPointsDeltaTx(ctx, tx, studentID, out.LedgerDelta); err != nil {
			return apperr.Internal(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// fanout runs after commit. Failures are logged and dropped, never
// rolled into the transition result.
func (e *Engine) fanout(ctx context.Context, rec models.Record, st models.Student, out Outcome) {
	label := kindLabel(rec.Kind)
	var msgs []notify.Message
	if out.NotifyParent && st.ParentID != nil {
		msgs = append(msgs, notify.Message{
			Target: notify.Target{UserID: *st.ParentID},
			Title:  "Catatan diperbarui",
			Text:   fmt.Sprintf("%s atas nama %s kini berstatus %s", label, st.Name, statusLabel(out.Next)),
		})
	}
	if out.NotifyRecorder {
		text := fmt.Sprintf("%s untuk %s ditolak oleh wali kelas", label, st.Name)
		if out.Next == models.StatusPending {
			text = fmt.Sprintf("%s untuk %s disetujui wali kelas dan diteruskan ke BK", label, st.Name)
		}
		msgs = append(msgs, notify.Message{
			Target: notify.Target{UserID: rec.RecordedBy},
			Title:  "Tindak lanjut wali kelas",
			Text:   text,
		})
	}
	if out.NotifyBKPool {
		msgs = append(msgs, notify.Message{
			Target: notify.Target{Role: models.RoleBK},
			Title:  "Catatan menunggu keputusan",
			Text:   fmt.Sprintf("%s untuk %s menunggu keputusan BK", label, st.Name),
		})
	}
	if out.NotifyHomeroom && st.HomeroomTeacherID != nil {
		msgs = append(msgs, notify.Message{
			Target: notify.Target{UserID: *st.HomeroomTeacherID},
			Title:  "Banding diajukan",
			Text:   fmt.Sprintf("Banding diajukan atas %s untuk %s", strings.ToLower(label), st.Name),
		})
	}
	if len(msgs) > 0 {
		e.notifier.Send(ctx, msgs...)
	}
}

func outcomeLabel(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindConflict:
		return "conflict"
	case apperr.KindForbidden:
		return "forbidden"
	case apperr.KindValidation:
		return "invalid"
	}
	return "error"
}

func kindLabel(k models.RecordKind) string {
	if k == models.KindViolation {
		return "Pelanggaran"
	}
	return "Prestasi"
}

func statusLabel(s models.RecordStatus) string {
	switch s {
	case models.StatusApproved:
		return "disetujui"
	case models.StatusRejected:
		return "ditolak"
	case models.StatusPending:
		return "menunggu keputusan BK"
	case models.StatusPendingHomeroom:
		return "menunggu wali kelas"
	}
	return string(s)
}
