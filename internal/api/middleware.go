package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/sekolahku/poin-api/internal/ctxutil"
	"github.com/sekolahku/poin-api/internal/metrics"
	"github.com/sekolahku/poin-api/internal/models"
)

const actorKey = "actor"

// Claims issued by the identity provider. The service trusts verified
// claims as the acting user; it does no credential handling itself.
type Claims struct {
	Role string `json:"role"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

func extractBearer(c echo.Context) (string, error) {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if h == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}

// RequireAuth verifies the HS256 bearer token and threads the actor into
// both the echo context and the request context.
func RequireAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := extractBearer(c)
			if err != nil {
				return err
			}
			token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.NewHTTPError(http.StatusUnauthorized, "unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			claims, ok := token.Claims.(*Claims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid claims")
			}
			uid, err := strconv.ParseInt(claims.Subject, 10, 64)
			if err != nil || uid == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
			}

			actor := models.Actor{UserID: uid, Role: models.Role(claims.Role), Name: claims.Name}
			c.Set(actorKey, actor)
			c.SetRequest(c.Request().WithContext(ctxutil.WithActor(c.Request().Context(), actor)))
			return next(c)
		}
	}
}

func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := allowed[actorFrom(c).Role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}

func actorFrom(c echo.Context) models.Actor {
	a, _ := c.Get(actorKey).(models.Actor)
	return a
}

// countRequests feeds the per-route request counter. Failed requests
// are labeled with the status the error handler will write, not the
// not-yet-mapped response status.
func countRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		code := c.Response().Status
		if err != nil {
			code = statusFor(err)
		}
		metrics.HTTPRequests.WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(code)).Inc()
		return err
	}
}
