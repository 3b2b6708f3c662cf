package approval

import (
	"strings"

	"github.com/sekolahku/poin-api/internal/apperr"
	"github.com/sekolahku/poin-api/internal/models"
)

type Event string

const (
	EventHomeroomApprove Event = "homeroom_approve"
	EventHomeroomReject  Event = "homeroom_reject"
	EventApprove         Event = "approve"
	EventReject          Event = "reject"
	EventAppeal          Event = "appeal"
)

// Request carries the event plus its payload.
type Request struct {
	Event      Event
	Note       *string // counselor note, approve/reject only
	AppealText string  // appeal only
}

// Outcome is what a permitted transition does. LedgerDelta is the signed
// adjustment to the student's cached total; entering approved applies
// the record's delta, leaving approved reverses it, so the total always
// equals the sum of currently approved records.
type Outcome struct {
	Next           models.RecordStatus
	LedgerDelta    int
	Note           *string
	Appeal         *string
	ClearGate      bool // stamps homeroom approver + time
	NotifyParent   bool
	NotifyRecorder bool
	NotifyBKPool   bool
	NotifyHomeroom bool
}

const homeroomRejectNote = "Ditolak oleh wali kelas"

// Decide is the whole transition table: (status, event, actor) in,
// (next status, side effects) out. It touches nothing; Engine.Apply
// executes the outcome transactionally.
func Decide(rec models.Record, st models.Student, actor models.Actor, req Request) (Outcome, error) {
	switch req.Event {
	case EventHomeroomApprove, EventHomeroomReject:
		if actor.Role != models.RoleWaliKelas {
			return Outcome{}, apperr.Forbidden("hanya wali kelas yang dapat memproses tahap ini")
		}
		if st.HomeroomTeacherID == nil || *st.HomeroomTeacherID != actor.UserID {
			return Outcome{}, apperr.Forbidden("bukan wali kelas siswa ini")
		}
		if rec.Status != models.StatusPendingHomeroom {
			return Outcome{}, apperr.Conflict("catatan tidak sedang menunggu persetujuan wali kelas")
		}
		if req.Event == EventHomeroomApprove {
			return Outcome{
				Next:           models.StatusPending,
				ClearGate:      true,
				NotifyBKPool:   true,
				NotifyRecorder: true,
			}, nil
		}
		note := homeroomRejectNote
		return Outcome{
			Next:           models.StatusRejected,
			Note:           &note,
			NotifyRecorder: true,
		}, nil

	case EventApprove, EventReject:
		if actor.Role != models.RoleBK {
			return Outcome{}, apperr.Forbidden("hanya guru BK yang dapat memutuskan catatan")
		}
		if rec.Status == models.StatusPendingHomeroom {
			return Outcome{}, apperr.Conflict("catatan masih menunggu persetujuan wali kelas")
		}
		if rec.Status != models.StatusPending {
			return Outcome{}, apperr.Conflict("catatan sudah diputuskan")
		}
		out := Outcome{Note: req.Note, NotifyParent: true}
		if req.Event == EventApprove {
			out.Next = models.StatusApproved
			out.LedgerDelta = rec.SignedPoints()
		} else {
			out.Next = models.StatusRejected
		}
		return out, nil

	case EventAppeal:
		if rec.Kind != models.KindViolation {
			return Outcome{}, apperr.Validation("hanya catatan pelanggaran yang dapat dibanding")
		}
		if !isOwnRecord(st, actor) {
			return Outcome{}, apperr.Forbidden("banding hanya oleh siswa bersangkutan atau orang tuanya")
		}
		if rec.Status != models.StatusApproved {
			return Outcome{}, apperr.Conflict("banding hanya untuk catatan yang sudah disetujui")
		}
		if rec.AppealText != nil {
			return Outcome{}, apperr.Conflict("catatan sudah pernah dibanding")
		}
		text := strings.TrimSpace(req.AppealText)
		if text == "" {
			return Outcome{}, apperr.Validation("alasan banding wajib diisi")
		}
		return Outcome{
			Next:           models.StatusPending,
			LedgerDelta:    -rec.SignedPoints(),
			Appeal:         &text,
			NotifyBKPool:   true,
			NotifyHomeroom: true,
		}, nil
	}
	return Outcome{}, apperr.Validation("event tidak dikenal: %s", req.Event)
}

// InitialStatus gates violations submitted by subject teachers behind
// homeroom review; everything else goes straight to the counselor.
func InitialStatus(kind models.RecordKind, recorder models.Role) models.RecordStatus {
	if kind == models.KindViolation && recorder == models.RoleGuruMapel {
		return models.StatusPendingHomeroom
	}
	return models.StatusPending
}

func isOwnRecord(st models.Student, actor models.Actor) bool {
	switch actor.Role {
	case models.RoleSiswa:
		return st.UserID != nil && *st.UserID == actor.UserID
	case models.RoleOrtu:
		return st.ParentID != nil && *st.ParentID == actor.UserID
	}
	return false
}
