package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sekolahku/poin-api/internal/apperr"
	"github.com/sekolahku/poin-api/internal/approval"
	"github.com/sekolahku/poin-api/internal/db"
	"github.com/sekolahku/poin-api/internal/models"
)

type recordHandler struct {
	db     *sql.DB
	engine *approval.Engine
}

type createRecordReq struct {
	Kind        string  `json:"kind" validate:"required,oneof=violation achievement"`
	StudentID   int64   `json:"studentId" validate:"required"`
	CategoryID  int64   `json:"categoryId" validate:"required"`
	Description string  `json:"description" validate:"required"`
	PointValue  *int    `json:"pointValue" validate:"required"`
	PhotoURL    *string `json:"photoUrl"`
}

func (h *recordHandler) Create(c echo.Context) error {
	var req createRecordReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "body tidak valid")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	rec, err := h.engine.Submit(c.Request().Context(), actorFrom(c), approval.SubmitInput{
		Kind:        models.RecordKind(req.Kind),
		StudentID:   req.StudentID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		PointValue:  *req.PointValue,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *recordHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	actor := actorFrom(c)

	filter := db.RecordFilter{
		Kind:      models.RecordKind(c.QueryParam("kind")),
		ClassName: c.QueryParam("class"),
		Status:    models.RecordStatus(c.QueryParam("status")),
	}

	// Visibility: wali kelas sees their class, siswa/ortu their own
	// records, everybody else the full set.
	switch actor.Role {
	case models.RoleWaliKelas:
		ids, err := db.ListStudentIDsByHomeroom(ctx, h.db, actor.UserID)
		if err != nil {
			return apperr.Internal(err)
		}
		filter.StudentIDs = ids
		if ids == nil {
			filter.StudentIDs = []int64{}
		}
	case models.RoleSiswa:
		st, err := db.GetStudentByUserID(ctx, h.db, actor.UserID)
		if errors.Is(err, sql.ErrNoRows) {
			filter.StudentIDs = []int64{}
		} else if err != nil {
			return apperr.Internal(err)
		} else {
			filter.StudentIDs = []int64{st.ID}
		}
	case models.RoleOrtu:
		children, err := db.GetStudentsByParentID(ctx, h.db, actor.UserID)
		if err != nil {
			return apperr.Internal(err)
		}
		ids := make([]int64, 0, len(children))
		for _, ch := range children {
			ids = append(ids, ch.ID)
		}
		filter.StudentIDs = ids
	}

	records, err := db.ListRecords(ctx, h.db, filter)
	if err != nil {
		return apperr.Internal(err)
	}
	if records == nil {
		records = []models.RecordWithStudent{}
	}
	return c.JSON(http.StatusOK, records)
}

type homeroomDecisionReq struct {
	Approved *bool `json:"approved" validate:"required"`
}

func (h *recordHandler) HomeroomDecision(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req homeroomDecisionReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "body tidak valid")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	event := approval.EventHomeroomReject
	if *req.Approved {
		event = approval.EventHomeroomApprove
	}
	rec, err := h.engine.Apply(c.Request().Context(), id, actorFrom(c), approval.Request{Event: event})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

type counselorDecisionReq struct {
	Status string  `json:"status" validate:"required,oneof=approved rejected"`
	Note   *string `json:"note"`
}

func (h *recordHandler) CounselorDecision(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req counselorDecisionReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "body tidak valid")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	event := approval.EventReject
	if req.Status == string(models.StatusApproved) {
		event = approval.EventApprove
	}
	rec, err := h.engine.Apply(c.Request().Context(), id, actorFrom(c), approval.Request{
		Event: event,
		Note:  req.Note,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

type appealReq struct {
	AppealText string `json:"appealText" validate:"required"`
}

func (h *recordHandler) Appeal(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req appealReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "body tidak valid")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	rec, err := h.engine.Apply(c.Request().Context(), id, actorFrom(c), approval.Request{
		Event:      approval.EventAppeal,
		AppealText: req.AppealText,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

// pathID parses the :id segment shared by every resource route.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id tidak valid")
	}
	return id, nil
}
