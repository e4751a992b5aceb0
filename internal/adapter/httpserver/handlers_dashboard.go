package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/app"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/ingest"
	apperrors "github.com/nine420421/bilibili-sentiment-analysis/internal/platform/errors"
)

const maxDatasetNameLen = 200

func (s *Server) registerDashboardRoutes(csrfMiddleware, rateLimiter echo.MiddlewareFunc) {
	s.echo.POST("/datasets", s.handleUpload, rateLimiter, s.setupBodyLimitMiddleware(), csrfMiddleware)
	s.echo.GET("/datasets/:id", s.handleDashboard, csrfMiddleware)
}

func (s *Server) handleLanding(c echo.Context) error {
	ctx := c.Request().Context()

	datasets, err := s.app.ListDatasets(ctx)
	if err != nil {
		return apperrors.InternalError("failed to list datasets", err)
	}

	data := map[string]any{
		"Datasets":       datasets,
		"MaxUploadMB":    s.config.MaxUploadBytes / (1 << 20),
		"MaxRows":        s.config.MaxRows,
		"CSRFToken":      c.Get("csrf"),
		"RequiredColumn": ingest.ColumnText,
		"WordsColumn":    ingest.ColumnWords,
	}
	return s.renderTemplate(c, "landing.html", data)
}

func isXHR(c echo.Context) bool {
	return c.Request().Header.Get("X-Requested-With") == "XMLHttpRequest" ||
		strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

func formBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "on", "true", "yes":
		return true
	default:
		return false
	}
}

func datasetName(formName, fileName string) string {
	name := strings.TrimSpace(formName)
	if name == "" {
		base := filepath.Base(fileName)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if len([]rune(name)) > maxDatasetNameLen {
		name = string([]rune(name)[:maxDatasetNameLen])
	}
	return name
}

func (s *Server) handleUpload(c echo.Context) error {
	ctx := c.Request().Context()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		return apperrors.ValidationError("a CSV file is required").WithCause(err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.InternalError("failed to open upload", err)
	}
	defer func() { _ = file.Close() }()

	req := app.ImportRequest{
		Name:   datasetName(c.FormValue("name"), fileHeader.Filename),
		Reader: file,
		Strict: formBool(c.FormValue("strict")),
	}

	dataset, err := s.app.ImportDataset(ctx, req)
	if err != nil {
		return apperrors.AsStructuredError(err).
			WithField("file", fileHeader.Filename).
			WithField("strict", req.Strict)
	}

	slog.InfoContext(ctx, "Dataset uploaded", "dataset_id", dataset.ID.String(), "file", fileHeader.Filename, "size", fileHeader.Size)

	// AJAX requests get the summary; browser form submissions get a redirect
	if isXHR(c) {
		response := map[string]any{
			"dataset": dataset.Summary(),
			"report":  dataset.Report,
			"url":     "/datasets/" + dataset.ID.String(),
		}
		if err := c.JSON(http.StatusCreated, response); err != nil {
			return fmt.Errorf("failed to send JSON response: %w", err)
		}
		return nil
	}

	if err := c.Redirect(http.StatusSeeOther, "/datasets/"+dataset.ID.String()); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}

func parseDatasetID(c echo.Context) (uuid.UUID, error) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid dataset ID").WithField("id", raw)
	}
	return id, nil
}

func (s *Server) handleDashboard(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseDatasetID(c)
	if err != nil {
		return err
	}

	report, err := s.app.Report(ctx, id)
	if err != nil {
		return apperrors.AsStructuredError(err).WithField("dataset_id", id.String())
	}

	data := map[string]any{
		"Dataset":       report.Dataset,
		"Report":        report.Report,
		"HasTimestamps": report.Report.HasColumn(ingest.ColumnTime),
		"HasLikes":      report.Report.HasColumn(ingest.ColumnLikes),
		"Prefs":         s.loadPreferences(c),
		"CSRFToken":     c.Get("csrf"),
	}
	return s.renderTemplate(c, "dashboard.html", data)
}
