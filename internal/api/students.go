package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sekolahku/poin-api/internal/apperr"
	"github.com/sekolahku/poin-api/internal/db"
	"github.com/sekolahku/poin-api/internal/models"
)

type studentHandler struct {
	db *sql.DB
}

type studentReq struct {
	Name              string `json:"name" validate:"required"`
	NIS               string `json:"nis" validate:"required"`
	ClassName         string `json:"className" validate:"required"`
	HomeroomTeacherID *int64 `json:"homeroomTeacherId"`
	ParentID          *int64 `json:"parentId"`
	UserID            *int64 `json:"userId"`
}

func (h *studentHandler) Create(c echo.Context) error {
	var req studentReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "body tidak valid")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	id, err := db.CreateStudent(c.Request().Context(), h.db, models.Student{
		Name:              req.Name,
		NIS:               req.NIS,
		ClassName:         req.ClassName,
		HomeroomTeacherID: req.HomeroomTeacherID,
		ParentID:          req.ParentID,
		UserID:            req.UserID,
	})
	if db.IsUniqueViolation(err) {
		return apperr.Conflict("NIS sudah terdaftar")
	}
	if db.IsFKViolation(err) {
		return apperr.Validation("referensi wali/orang tua/akun tidak ditemukan")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	st, err := db.GetStudentByID(c.Request().Context(), h.db, id)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *studentHandler) List(c echo.Context) error {
	students, err := db.ListStudents(c.Request().Context(), h.db)
	if err != nil {
		return apperr.Internal(err)
	}
	if students == nil {
		students = []models.Student{}
	}
	return c.JSON(http.StatusOK, students)
}

func (h *studentHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req studentReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "body tidak valid")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	upd := models.Student{
		ID:                id,
		Name:              req.Name,
		NIS:               req.NIS,
		ClassName:         req.ClassName,
		HomeroomTeacherID: req.HomeroomTeacherID,
		ParentID:          req.ParentID,
		UserID:            req.UserID,
	}
	err = db.UpdateStudent(c.Request().Context(), h.db, upd)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("siswa")
	}
	if db.IsUniqueViolation(err) {
		return apperr.Conflict("NIS sudah terdaftar")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	st, err := db.GetStudentByID(c.Request().Context(), h.db, id)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *studentHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	err = db.DeactivateStudent(c.Request().Context(), h.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("siswa")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return c.NoContent(http.StatusNoContent)
}
