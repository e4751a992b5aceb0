package httpserver

import (
	"context"
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/app"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/platform/config"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockAppService struct {
	importDatasetFn  func(ctx context.Context, req app.ImportRequest) (*domain.Dataset, error)
	listDatasetsFn   func(ctx context.Context) ([]domain.DatasetSummary, error)
	deleteDatasetFn  func(ctx context.Context, id uuid.UUID) error
	overviewFn       func(ctx context.Context, id uuid.UUID, filter domain.CommentFilter) (app.OverviewView, error)
	trendFn          func(ctx context.Context, id uuid.UUID, filter domain.CommentFilter) (app.TrendView, error)
	wordViewFn       func(ctx context.Context, id uuid.UUID, req app.WordViewRequest) (app.WordViewResult, error)
	browseCommentsFn func(ctx context.Context, id uuid.UUID, req app.BrowseRequest) (app.BrowseResult, error)
	reportFn         func(ctx context.Context, id uuid.UUID) (app.ReportView, error)
}

func (m *mockAppService) ImportDataset(ctx context.Context, req app.ImportRequest) (*domain.Dataset, error) {
	if m.importDatasetFn != nil {
		return m.importDatasetFn(ctx, req)
	}
	return &domain.Dataset{ID: uuid.New(), Name: req.Name, CreatedAt: time.Now()}, nil
}

func (m *mockAppService) ListDatasets(ctx context.Context) ([]domain.DatasetSummary, error) {
	if m.listDatasetsFn != nil {
		return m.listDatasetsFn(ctx)
	}
	return nil, nil
}

func (m *mockAppService) DeleteDataset(ctx context.Context, id uuid.UUID) error {
	if m.deleteDatasetFn != nil {
		return m.deleteDatasetFn(ctx, id)
	}
	return nil
}

func (m *mockAppService) Overview(ctx context.Context, id uuid.UUID, filter domain.CommentFilter) (app.OverviewView, error) {
	if m.overviewFn != nil {
		return m.overviewFn(ctx, id, filter)
	}
	return app.OverviewView{}, domain.ErrDatasetNotFound
}

func (m *mockAppService) Trend(ctx context.Context, id uuid.UUID, filter domain.CommentFilter) (app.TrendView, error) {
	if m.trendFn != nil {
		return m.trendFn(ctx, id, filter)
	}
	return app.TrendView{}, domain.ErrDatasetNotFound
}

func (m *mockAppService) WordView(ctx context.Context, id uuid.UUID, req app.WordViewRequest) (app.WordViewResult, error) {
	if m.wordViewFn != nil {
		return m.wordViewFn(ctx, id, req)
	}
	return app.WordViewResult{}, domain.ErrDatasetNotFound
}

func (m *mockAppService) BrowseComments(ctx context.Context, id uuid.UUID, req app.BrowseRequest) (app.BrowseResult, error) {
	if m.browseCommentsFn != nil {
		return m.browseCommentsFn(ctx, id, req)
	}
	return app.BrowseResult{}, domain.ErrDatasetNotFound
}

func (m *mockAppService) Report(ctx context.Context, id uuid.UUID) (app.ReportView, error) {
	if m.reportFn != nil {
		return m.reportFn(ctx, id)
	}
	return app.ReportView{}, domain.ErrDatasetNotFound
}

// --- Test helpers ---

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()

	tmpl := template.Must(template.New("landing.html").Funcs(templateFuncs).Parse(
		`Landing {{len .Datasets}} {{.CSRFToken}}`))
	template.Must(tmpl.New("dashboard.html").Parse(
		`Dashboard {{.Dataset.Name}} label={{.Prefs.Label}} viz={{.Prefs.Viz}} max={{.Prefs.MaxWords}} sort={{.Prefs.Sort}}`))

	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	store.Options = &sessions.Options{
		Path:   "/",
		MaxAge: 3600,
	}

	e := echo.New()
	e.Validator = newRequestValidator()

	srv := &Server{
		echo: e,
		config: &config.Config{
			MaxUploadBytes:     1 << 20,
			MaxRows:            1000,
			RateLimitPerSecond: 100,
			RateLimitBurst:     100,
			SessionMaxAge:      time.Hour,
		},
		app:          app,
		sessionStore: store,
		templates:    tmpl,
		startTime:    time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return ErrorHandlingMiddleware()(handler)(c)
}

// fetchCSRF loads the landing page and returns the CSRF token plus the cookie
// that must accompany it.
func fetchCSRF(t *testing.T, srv *Server) (string, *http.Cookie) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == csrfTokenCookieName {
			return cookie.Value, cookie
		}
	}
	t.Fatal("no CSRF cookie issued")
	return "", nil
}

func testDatasetSummary(id uuid.UUID) domain.DatasetSummary {
	return domain.DatasetSummary{
		ID:           id,
		Name:         "episode 12",
		CreatedAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		CommentCount: 42,
	}
}
