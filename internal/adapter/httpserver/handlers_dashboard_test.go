package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/app"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/ingest"
	apperrors "github.com/nine420421/bilibili-sentiment-analysis/internal/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleUpload = "content_cleaned,sentiment_score\n太好看了,0.9\n一般般,0.5\n"

func multipartUpload(t *testing.T, filename, content string, fields map[string]string) (io.Reader, string) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func newUploadContext(t *testing.T, srv *Server, body io.Reader, contentType string, xhr bool) (*httptest.ResponseRecorder, func() error) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/datasets", body)
	req.Header.Set("Content-Type", contentType)
	if xhr {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	return rec, func() error { return callHandler(srv.handleUpload, c) }
}

// --- landing ---

func TestHandleLanding(t *testing.T) {
	srv := newTestServer(t, &mockAppService{
		listDatasetsFn: func(_ context.Context) ([]domain.DatasetSummary, error) {
			return []domain.DatasetSummary{testDatasetSummary(uuid.New()), testDatasetSummary(uuid.New())}, nil
		},
	})

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Landing 2 "))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "https://cdn.plot.ly")
}

// --- upload ---

func TestHandleUpload_XHR(t *testing.T) {
	id := uuid.New()
	var got app.ImportRequest
	var content string

	srv := newTestServer(t, &mockAppService{
		importDatasetFn: func(_ context.Context, req app.ImportRequest) (*domain.Dataset, error) {
			got = req
			raw, err := io.ReadAll(req.Reader)
			require.NoError(t, err)
			content = string(raw)
			return &domain.Dataset{
				ID:     id,
				Name:   req.Name,
				Report: domain.ImportReport{TotalRows: 2, Accepted: 2},
			}, nil
		},
	})

	body, contentType := multipartUpload(t, "episode-12.csv", sampleUpload, map[string]string{"strict": "on"})
	rec, run := newUploadContext(t, srv, body, contentType, true)

	require.NoError(t, run())

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "episode-12", got.Name)
	assert.True(t, got.Strict)
	assert.Equal(t, sampleUpload, content)

	var resp struct {
		Dataset domain.DatasetSummary `json:"dataset"`
		Report  domain.ImportReport   `json:"report"`
		URL     string                `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.Dataset.ID)
	assert.Equal(t, 2, resp.Report.Accepted)
	assert.Equal(t, "/datasets/"+id.String(), resp.URL)
}

func TestHandleUpload_FormRedirects(t *testing.T) {
	id := uuid.New()
	var got app.ImportRequest

	srv := newTestServer(t, &mockAppService{
		importDatasetFn: func(_ context.Context, req app.ImportRequest) (*domain.Dataset, error) {
			got = req
			return &domain.Dataset{ID: id, Name: req.Name}, nil
		},
	})

	body, contentType := multipartUpload(t, "comments.csv", sampleUpload, map[string]string{"name": "  Launch trailer  "})
	rec, run := newUploadContext(t, srv, body, contentType, false)

	require.NoError(t, run())

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/datasets/"+id.String(), rec.Header().Get("Location"))
	assert.Equal(t, "Launch trailer", got.Name)
	assert.False(t, got.Strict)
}

func TestHandleUpload_MissingFile(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	body, contentType := multipartUpload(t, "", "", map[string]string{"name": "nothing"})
	rec, run := newUploadContext(t, srv, body, contentType, true)

	require.NoError(t, run())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "a CSV file is required", decodeError(t, rec).Error)
}

func TestHandleUpload_InputErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "empty", err: domain.ErrEmptyInput, want: "input contains no data"},
		{name: "missing columns", err: domain.ErrMissingColumns, want: "input has neither"},
		{
			name: "malformed row in strict mode",
			err:  fmt.Errorf("%w: %w", domain.ErrInvalidDataset, &ingest.MalformedRowError{Row: domain.RowError{Line: 3, Column: "like_count", Message: "not a number"}}),
			want: "invalid dataset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &mockAppService{
				importDatasetFn: func(_ context.Context, _ app.ImportRequest) (*domain.Dataset, error) {
					return nil, tt.err
				},
			})

			body, contentType := multipartUpload(t, "comments.csv", sampleUpload, nil)
			rec, run := newUploadContext(t, srv, body, contentType, true)

			require.NoError(t, run())

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, apperrors.TypeValidation, resp.Type)
			assert.Contains(t, resp.Error, tt.want)
			assert.Equal(t, "comments.csv", resp.Context["file"])
		})
	}
}

func TestHandleUpload_TooLarge(t *testing.T) {
	srv := newTestServer(t, &mockAppService{}, func(s *Server) {
		s.config.MaxUploadBytes = 64
	})

	token, cookie := fetchCSRF(t, srv)
	body, contentType := multipartUpload(t, "comments.csv", strings.Repeat("x", 512), map[string]string{"csrf_token": token})
	req := httptest.NewRequest(http.MethodPost, "/datasets", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)

	rec := serve(srv, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestDatasetName(t *testing.T) {
	assert.Equal(t, "given", datasetName(" given ", "file.csv"))
	assert.Equal(t, "BV1xx411c7mD", datasetName("", "/tmp/BV1xx411c7mD.csv"))
	assert.Len(t, []rune(datasetName(strings.Repeat("评", 300), "")), maxDatasetNameLen)
}

// --- dashboard ---

func TestHandleDashboard(t *testing.T) {
	id := uuid.New()
	srv := newTestServer(t, &mockAppService{
		reportFn: func(_ context.Context, got uuid.UUID) (app.ReportView, error) {
			return app.ReportView{Dataset: testDatasetSummary(got)}, nil
		},
	})

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/datasets/"+id.String(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dashboard episode 12 label=all viz=bar max=25 sort=default", rec.Body.String())
}

func TestHandleDashboard_NotFound(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/datasets/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
