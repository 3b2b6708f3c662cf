package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sekolahku/poin-api/internal/apperr"
	"github.com/sekolahku/poin-api/internal/db"
	"github.com/sekolahku/poin-api/internal/export"
	"github.com/sekolahku/poin-api/internal/models"
)

type reportHandler struct {
	db *sql.DB
}

func (h *reportHandler) Ranking(c echo.Context) error {
	students, err := db.Ranking(c.Request().Context(), h.db, c.QueryParam("class"))
	if err != nil {
		return apperr.Internal(err)
	}
	if students == nil {
		students = []models.Student{}
	}
	return c.JSON(http.StatusOK, students)
}

func (h *reportHandler) Classes(c echo.Context) error {
	reports, err := db.ClassReports(c.Request().Context(), h.db)
	if err != nil {
		return apperr.Internal(err)
	}
	if reports == nil {
		reports = []models.ClassReport{}
	}
	return c.JSON(http.StatusOK, reports)
}

func (h *reportHandler) Export(c echo.Context) error {
	ctx := c.Request().Context()
	students, err := db.Ranking(ctx, h.db, "")
	if err != nil {
		return apperr.Internal(err)
	}
	reports, err := db.ClassReports(ctx, h.db)
	if err != nil {
		return apperr.Internal(err)
	}

	wb, err := export.NewReportWorkbook([]export.SheetSpec{
		export.RankingSheet(students),
		export.ClassReportSheet(reports),
	})
	if err != nil {
		return apperr.Internal(err)
	}
	data, err := wb.Bytes()
	if err != nil {
		return apperr.Internal(err)
	}

	filename := fmt.Sprintf("laporan_poin_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
