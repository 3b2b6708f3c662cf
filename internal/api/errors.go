package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/sekolahku/poin-api/internal/apperr"
	"github.com/sekolahku/poin-api/internal/ctxutil"
	"github.com/sekolahku/poin-api/internal/metrics"
	"github.com/sekolahku/poin-api/internal/observability"
)

// statusFor maps an error to its HTTP status. countRequests uses it too,
// so the request counter and the written response always agree.
func statusFor(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		return http.StatusBadRequest
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindInUse:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// httpErrorHandler maps the application error taxonomy onto HTTP.
// Internal errors are logged and captured; the caller only sees an
// opaque message.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := statusFor(err)
	var message any = echo.Map{"error": "terjadi kesalahan pada server"}

	var he *echo.HTTPError
	var vErrs validator.ValidationErrors
	var ae *apperr.Error

	switch {
	case errors.As(err, &he):
		message = echo.Map{"error": he.Message}
	case errors.As(err, &vErrs):
		fields := make(map[string]string, len(vErrs))
		for _, fe := range vErrs {
			fields[fe.Field()] = "gagal validasi " + fe.Tag()
		}
		message = echo.Map{"error": "data tidak valid", "fields": fields}
	case errors.As(err, &ae):
		if code != http.StatusInternalServerError {
			message = echo.Map{"error": ae.Msg}
		}
	}

	if code == http.StatusInternalServerError {
		metrics.HandlerErrors.Inc()
		observability.CaptureErr(err)
		fields := []any{"method", c.Request().Method, "path", c.Path(), "err", err}
		if actor, ok := ctxutil.Actor(c.Request().Context()); ok {
			fields = append(fields, "actor", actor.UserID, "role", actor.Role)
		}
		s.log.Errorw("request failed", fields...)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	if jsonErr := c.JSON(code, message); jsonErr != nil {
		s.log.Errorw("error response write failed", "err", jsonErr)
	}
}
