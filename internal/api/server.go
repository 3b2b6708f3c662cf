package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/sekolahku/poin-api/internal/approval"
	"github.com/sekolahku/poin-api/internal/config"
	"github.com/sekolahku/poin-api/internal/metrics"
	"github.com/sekolahku/poin-api/internal/models"
)

type Server struct {
	echo *echo.Echo
	db   *sql.DB
	log  *zap.SugaredLogger
	addr string
}

type reqValidator struct{ v *validator.Validate }

func (rv *reqValidator) Validate(i any) error { return rv.v.Struct(i) }

func New(cfg *config.Config, database *sql.DB, engine *approval.Engine, log *zap.SugaredLogger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &reqValidator{v: validator.New()}

	s := &Server{echo: e, db: database, log: log, addr: cfg.HTTPAddr}
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(countRequests)

	e.GET("/healthz", s.healthz)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	auth := RequireAuth(cfg.JWTSecret)
	rec := &recordHandler{db: database, engine: engine}
	cat := &categoryHandler{db: database}
	std := &studentHandler{db: database}
	ntf := &notificationHandler{db: database}
	rep := &reportHandler{db: database}

	staff := RequireRole(models.RoleAdmin, models.RoleGuruMapel, models.RoleWaliKelas, models.RoleBK)
	counselorOrAdmin := RequireRole(models.RoleBK, models.RoleAdmin)

	g := e.Group("", auth)
	g.POST("/records", rec.Create, staff)
	g.GET("/records", rec.List)
	g.POST("/records/:id/homeroom", rec.HomeroomDecision, RequireRole(models.RoleWaliKelas))
	g.POST("/records/:id/decision", rec.CounselorDecision, RequireRole(models.RoleBK))
	g.POST("/records/:id/appeal", rec.Appeal, RequireRole(models.RoleSiswa, models.RoleOrtu))

	g.GET("/categories", cat.List)
	g.POST("/categories", cat.Create, counselorOrAdmin)
	g.DELETE("/categories/:id", cat.Delete, counselorOrAdmin)

	g.GET("/students", std.List, staff)
	g.POST("/students", std.Create, RequireRole(models.RoleAdmin))
	g.PUT("/students/:id", std.Update, RequireRole(models.RoleAdmin))
	g.DELETE("/students/:id", std.Delete, RequireRole(models.RoleAdmin))

	g.GET("/ranking", rep.Ranking)
	g.GET("/reports/classes", rep.Classes, staff)
	g.GET("/reports/export", rep.Export, staff)

	g.GET("/notifications", ntf.List)
	g.POST("/notifications/:id/read", ntf.MarkRead)
	g.POST("/notifications/read-all", ntf.MarkAllRead)

	return s
}

func (s *Server) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 800*time.Millisecond)
	defer cancel()
	t0 := time.Now()
	if err := s.db.PingContext(ctx); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "db not ok: "+err.Error())
	}
	metrics.ObserveDBPing(time.Since(t0))
	return c.String(http.StatusOK, "ok")
}

func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.echo }
