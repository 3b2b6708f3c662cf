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

type categoryHandler struct {
	db *sql.DB
}

type createCategoryReq struct {
	Name          string `json:"name" validate:"required"`
	Kind          string `json:"kind" validate:"required,oneof=violation achievement"`
	DefaultPoints int    `json:"defaultPoints" validate:"required,gt=0"`
}

func (h *categoryHandler) Create(c echo.Context) error {
	var req createCategoryReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "body tidak valid")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	id, err := db.CreateCategory(c.Request().Context(), h.db, models.Category{
		Name:          req.Name,
		Kind:          models.RecordKind(req.Kind),
		DefaultPoints: req.DefaultPoints,
	})
	if db.IsUniqueViolation(err) {
		return apperr.Conflict("kategori dengan nama itu sudah ada")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	cat, err := db.GetCategoryByID(c.Request().Context(), h.db, id)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *categoryHandler) List(c echo.Context) error {
	kind := models.RecordKind(c.QueryParam("kind"))
	if kind != "" && !kind.Valid() {
		return apperr.Validation("jenis kategori tidak dikenal: %s", kind)
	}
	cats, err := db.ListCategories(c.Request().Context(), h.db, kind)
	if err != nil {
		return apperr.Internal(err)
	}
	if cats == nil {
		cats = []models.Category{}
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *categoryHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	err = db.DeleteCategory(c.Request().Context(), h.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("kategori")
	}
	if db.IsFKViolation(err) {
		return apperr.InUse("kategori masih dipakai oleh catatan")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return c.NoContent(http.StatusNoContent)
}
