package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	appconfig "github.com/mohammad-safakhou/docportal/config"
	"github.com/mohammad-safakhou/docportal/internal/docstore"
	"github.com/mohammad-safakhou/docportal/internal/ingest"
	"github.com/mohammad-safakhou/docportal/internal/telemetry"
	"github.com/mohammad-safakhou/docportal/provider"
)

// Run wires the HTTP API and blocks serving it.
func Run(cfg *appconfig.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	tele := telemetry.New(cfg.Telemetry, nil)
	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(tele.Handler()))

	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}

	if cfg.Retention.SweepCron != "" {
		sweeper, err := docstore.NewSweeper(
			cfg.Retention.SweepCron,
			[]string{cfg.Storage.AnalysisDir, cfg.Storage.CompareDir},
			cfg.Retention.KeepLatest,
			log.New(log.Writer(), "[SWEEPER] ", log.LstdFlags),
		)
		if err != nil {
			return fmt.Errorf("invalid retention.sweep_cron: %w", err)
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	api := e.Group("/api")

	ah := &AnalysisHandler{
		Cfg:    cfg,
		LLM:    llm,
		Tele:   tele,
		Logger: log.New(log.Writer(), "[ANALYSIS] ", log.LstdFlags),
	}
	ah.Register(api.Group("/analysis"))

	ch := &CompareHandler{
		Cfg:    cfg,
		LLM:    llm,
		Tele:   tele,
		Logger: log.New(log.Writer(), "[COMPARE] ", log.LstdFlags),
	}
	ch.Register(api.Group("/compare"))

	return e.Start(cfg.Server.Address)
}

// httpStatusFor maps ingestion error kinds onto HTTP status codes so
// callers can distinguish bad input from server-side failure.
func httpStatusFor(err error) int {
	switch {
	case ingest.IsKind(err, ingest.KindValidation), ingest.IsKind(err, ingest.KindFormat):
		return http.StatusBadRequest
	case ingest.IsKind(err, ingest.KindSizeLimit):
		return http.StatusRequestEntityTooLarge
	case ingest.IsKind(err, ingest.KindPartialBatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
