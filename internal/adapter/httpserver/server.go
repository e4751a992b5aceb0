package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/adapter/metrics"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/app"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/platform/config"
	"github.com/nine420421/bilibili-sentiment-analysis/web"
)

type appService interface {
	ImportDataset(ctx context.Context, req app.ImportRequest) (*domain.Dataset, error)
	ListDatasets(ctx context.Context) ([]domain.DatasetSummary, error)
	DeleteDataset(ctx context.Context, id uuid.UUID) error
	Overview(ctx context.Context, id uuid.UUID, filter domain.CommentFilter) (app.OverviewView, error)
	Trend(ctx context.Context, id uuid.UUID, filter domain.CommentFilter) (app.TrendView, error)
	WordView(ctx context.Context, id uuid.UUID, req app.WordViewRequest) (app.WordViewResult, error)
	BrowseComments(ctx context.Context, id uuid.UUID, req app.BrowseRequest) (app.BrowseResult, error)
	Report(ctx context.Context, id uuid.UUID) (app.ReportView, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app appService

	templates      *template.Template
	sessionStore   *sessions.CookieStore
	healthChecks   []HealthCheck
	httpMetrics    *metrics.HTTPMetrics
	metricsHandler http.Handler
	startTime      time.Time
}

// NewServer builds the HTTP shell. m may be nil to run without /metrics.
func NewServer(cfg *config.Config, app appService, m *metrics.Collectors, healthChecks []HealthCheck) (*Server, error) {
	templates, err := template.New("").Funcs(templateFuncs).ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		sessionStore: setupSessionStore(cfg),
		templates:    templates,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}
	if m != nil {
		srv.httpMetrics = m.HTTP
		srv.metricsHandler = m.Handler()
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

const sessionName = "commentpulse-session"

var templateFuncs = template.FuncMap{
	"percent": func(ratio float64) string { return fmt.Sprintf("%.1f%%", ratio*100) },
	"date":    func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	"list":    func(items ...string) []string { return items },
}

func (s *Server) renderTemplate(c echo.Context, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("Template execution failed", "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(http.StatusOK, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}

func setupSessionStore(cfg *config.Config) *sessions.CookieStore {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	return sessionStore
}
