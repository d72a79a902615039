package server

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	appconfig "github.com/mohammad-safakhou/docportal/config"
	"github.com/mohammad-safakhou/docportal/internal/docstore"
	"github.com/mohammad-safakhou/docportal/internal/ingest"
	"github.com/mohammad-safakhou/docportal/internal/telemetry"
	"github.com/mohammad-safakhou/docportal/provider"
)

// AnalysisHandler serves the single-document analysis flow: upload a PDF
// into a session, extract its text and run the metadata callout.
type AnalysisHandler struct {
	Cfg    *appconfig.Config
	LLM    provider.Provider
	Tele   *telemetry.Telemetry
	Logger *log.Logger
}

// Register mounts the analysis routes on g.
func (h *AnalysisHandler) Register(g *echo.Group) {
	g.POST("/documents", h.analyzeDocument)
	g.DELETE("/sessions/:id", h.cleanupSession)
}

func (h *AnalysisHandler) analyzeDocument(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field 'file' is required")
	}

	maxPages := h.Cfg.Extract.MaxPages
	if v := c.FormValue("max_pages"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "max_pages must be a non-negative integer")
		}
		maxPages = n
	}

	handler, err := ingest.NewDocumentHandler(
		h.Cfg.Storage.AnalysisDir,
		c.FormValue("session_id"),
		h.Cfg.Extract.MaxTextBytes,
		h.Logger,
	)
	if err != nil {
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}
	handler.WithTelemetry(h.Tele)

	path, err := handler.Save(ingest.NewMultipartUpload(fh), h.Cfg.Upload.MaxSizeMB)
	if err != nil {
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}

	text, err := handler.Read(path, maxPages)
	if err != nil {
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}

	meta, err := h.LLM.AnalyzeDocument(c.Request().Context(), text)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": handler.Session().ID(),
		"document":   path,
		"metadata":   meta,
	})
}

func (h *AnalysisHandler) cleanupSession(c echo.Context) error {
	id := c.Param("id")
	ok, err := docstore.Exists(h.Cfg.Storage.AnalysisDir, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	handler, err := ingest.NewDocumentHandler(
		h.Cfg.Storage.AnalysisDir,
		id,
		h.Cfg.Extract.MaxTextBytes,
		h.Logger,
	)
	if err != nil {
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}
	deleted, err := handler.CleanupSession()
	if err != nil {
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id":    handler.Session().ID(),
		"files_deleted": deleted,
	})
}
