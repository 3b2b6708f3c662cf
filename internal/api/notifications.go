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

type notificationHandler struct {
	db *sql.DB
}

func (h *notificationHandler) List(c echo.Context) error {
	actor := actorFrom(c)
	items, err := db.ListNotifications(c.Request().Context(), h.db, actor.UserID)
	if err != nil {
		return apperr.Internal(err)
	}
	if items == nil {
		items = []models.Notification{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *notificationHandler) MarkRead(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	actor := actorFrom(c)
	err = db.MarkNotificationRead(c.Request().Context(), h.db, id, actor.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("notifikasi")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *notificationHandler) MarkAllRead(c echo.Context) error {
	actor := actorFrom(c)
	if err := db.MarkAllNotificationsRead(c.Request().Context(), h.db, actor.UserID); err != nil {
		return apperr.Internal(err)
	}
	return c.NoContent(http.StatusNoContent)
}
