package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	apperrors "github.com/nine420421/bilibili-sentiment-analysis/internal/platform/errors"
)

func (s *Server) registerAPIRoutes(csrfMiddleware, rateLimiter echo.MiddlewareFunc) {
	api := s.echo.Group("/api/datasets")
	api.GET("", s.handleListDatasets)
	api.DELETE("/:id", s.handleDeleteDataset, rateLimiter, csrfMiddleware)
	api.GET("/:id/overview", s.handleOverview)
	api.GET("/:id/trend", s.handleTrend)
	api.GET("/:id/words", s.handleWords)
	api.GET("/:id/comments", s.handleComments)
	api.GET("/:id/report", s.handleReport)
}

func sendJSON(c echo.Context, v any) error {
	if err := c.JSON(http.StatusOK, v); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleListDatasets(c echo.Context) error {
	datasets, err := s.app.ListDatasets(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list datasets", err)
	}
	return sendJSON(c, map[string]any{"datasets": datasets})
}

func (s *Server) handleDeleteDataset(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseDatasetID(c)
	if err != nil {
		return err
	}

	if err := s.app.DeleteDataset(ctx, id); err != nil {
		return apperrors.AsStructuredError(err).WithField("dataset_id", id.String())
	}

	slog.InfoContext(ctx, "Dataset deleted", "dataset_id", id.String())
	if err := c.NoContent(http.StatusNoContent); err != nil {
		return fmt.Errorf("failed to send no-content response: %w", err)
	}
	return nil
}

func (s *Server) handleOverview(c echo.Context) error {
	id, err := parseDatasetID(c)
	if err != nil {
		return err
	}

	var q filterQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	filter, err := q.toFilter()
	if err != nil {
		return err
	}

	view, err := s.app.Overview(c.Request().Context(), id, filter)
	if err != nil {
		return apperrors.AsStructuredError(err).WithField("dataset_id", id.String())
	}
	return sendJSON(c, view)
}

func (s *Server) handleTrend(c echo.Context) error {
	id, err := parseDatasetID(c)
	if err != nil {
		return err
	}

	var q filterQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	filter, err := q.toFilter()
	if err != nil {
		return err
	}

	view, err := s.app.Trend(c.Request().Context(), id, filter)
	if err != nil {
		return apperrors.AsStructuredError(err).WithField("dataset_id", id.String())
	}
	return sendJSON(c, view)
}

func (s *Server) handleWords(c echo.Context) error {
	id, err := parseDatasetID(c)
	if err != nil {
		return err
	}

	var q wordsQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	req, err := q.toRequest()
	if err != nil {
		return err
	}

	view, err := s.app.WordView(c.Request().Context(), id, req)
	if err != nil {
		return apperrors.AsStructuredError(err).WithField("dataset_id", id.String())
	}

	s.rememberWords(c, q)
	return sendJSON(c, view)
}

func (s *Server) handleComments(c echo.Context) error {
	id, err := parseDatasetID(c)
	if err != nil {
		return err
	}

	var q commentsQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	req, err := q.toRequest()
	if err != nil {
		return err
	}

	page, err := s.app.BrowseComments(c.Request().Context(), id, req)
	if err != nil {
		return apperrors.AsStructuredError(err).
			WithField("dataset_id", id.String()).
			WithField("page", req.Page)
	}

	s.rememberBrowse(c, q)
	return sendJSON(c, page)
}

func (s *Server) handleReport(c echo.Context) error {
	id, err := parseDatasetID(c)
	if err != nil {
		return err
	}

	report, err := s.app.Report(c.Request().Context(), id)
	if err != nil {
		return apperrors.AsStructuredError(err).WithField("dataset_id", id.String())
	}
	return sendJSON(c, report)
}
