package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/platform/version"
	"golang.org/x/sync/errgroup"
)

const (
	startupCheckTimeout   = 2 * time.Second
	readinessCheckTimeout = 5 * time.Second
	checkPassed           = "ok"
)

// HealthCheck is a named dependency check, for example a Postgres ping.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Failed []string          `json:"failed,omitempty"`
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/startup", s.healthHandler(startupCheckTimeout))
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.healthHandler(readinessCheckTimeout))
	s.echo.GET("/version", s.handleVersion)
}

func (s *Server) healthHandler(timeout time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		defer cancel()

		report := s.checkDependencies(ctx)
		status := http.StatusOK
		if len(report.Failed) > 0 {
			status = http.StatusServiceUnavailable
		}
		if err := c.JSON(status, report); err != nil {
			return fmt.Errorf("failed to write health report: %w", err)
		}
		return nil
	}
}

// checkDependencies runs every check concurrently so one slow dependency
// does not hide the state of the others.
func (s *Server) checkDependencies(ctx context.Context) healthReport {
	results := make([]error, len(s.healthChecks))

	var g errgroup.Group
	for i, hc := range s.healthChecks {
		g.Go(func() error {
			results[i] = hc.Check(ctx)
			return nil
		})
	}
	_ = g.Wait()

	report := healthReport{Status: "ready", Checks: make(map[string]string, len(results))}
	for i, hc := range s.healthChecks {
		if results[i] == nil {
			report.Checks[hc.Name] = checkPassed
			continue
		}
		report.Checks[hc.Name] = results[i].Error()
		report.Failed = append(report.Failed, hc.Name)
	}
	if len(report.Failed) > 0 {
		report.Status = "unhealthy"
		slices.Sort(report.Failed)
	}
	return report
}

func (s *Server) handleLiveness(c echo.Context) error {
	response := map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"version":        version.Get().Version,
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
