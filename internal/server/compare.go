package server

import (
	"log"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	appconfig "github.com/mohammad-safakhou/docportal/config"
	"github.com/mohammad-safakhou/docportal/internal/ingest"
	"github.com/mohammad-safakhou/docportal/internal/telemetry"
	"github.com/mohammad-safakhou/docportal/provider"
)

// CompareHandler serves the document comparison flow: upload a
// reference/actual PDF pair, combine their texts and run the page-diff
// callout.
type CompareHandler struct {
	Cfg    *appconfig.Config
	LLM    provider.Provider
	Tele   *telemetry.Telemetry
	Logger *log.Logger
}

// Register mounts the comparison routes on g.
func (h *CompareHandler) Register(g *echo.Group) {
	g.POST("/documents", h.compareDocuments)
}

func (h *CompareHandler) compareDocuments(c echo.Context) error {
	ref, err := formFile(c, "reference")
	if err != nil {
		return err
	}
	actual, err := formFile(c, "actual")
	if err != nil {
		return err
	}

	ci, err := ingest.NewCompareIngestor(h.Cfg.Storage.CompareDir, c.FormValue("session_id"), h.Logger)
	if err != nil {
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}
	ci.WithTelemetry(h.Tele)

	refPath, actualPath, err := ci.SavePair(
		ingest.NewMultipartUpload(ref),
		ingest.NewMultipartUpload(actual),
		h.Cfg.Upload.MaxSizeMB,
	)
	if err != nil {
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}

	combined, err := ci.Combine()
	if err != nil {
		return echo.NewHTTPError(httpStatusFor(err), err.Error())
	}

	changes, err := h.LLM.CompareDocuments(c.Request().Context(), combined)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": ci.Session().ID(),
		"reference":  refPath,
		"actual":     actualPath,
		"changes":    changes,
	})
}

func formFile(c echo.Context, field string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "multipart field '"+field+"' is required")
	}
	return fh, nil
}
