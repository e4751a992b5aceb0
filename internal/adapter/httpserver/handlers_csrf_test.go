package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const csrfTokenCookieName = "csrf_token"

// TestCSRFProtection_Upload verifies CSRF protection on the upload endpoint
func TestCSRFProtection_Upload(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	t.Run("rejects POST without CSRF token", func(t *testing.T) {
		body, contentType := multipartUpload(t, "comments.csv", sampleUpload, nil)
		req := httptest.NewRequest(http.MethodPost, "/datasets", body)
		req.Header.Set("Content-Type", contentType)

		rec := serve(srv, req)

		// Echo's CSRF middleware returns 400, not 403
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects POST with mismatched token", func(t *testing.T) {
		_, cookie := fetchCSRF(t, srv)

		body, contentType := multipartUpload(t, "comments.csv", sampleUpload, map[string]string{"csrf_token": "forged"})
		req := httptest.NewRequest(http.MethodPost, "/datasets", body)
		req.Header.Set("Content-Type", contentType)
		req.AddCookie(cookie)

		rec := serve(srv, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("accepts POST with valid CSRF token in form", func(t *testing.T) {
		token, cookie := fetchCSRF(t, srv)

		body, contentType := multipartUpload(t, "comments.csv", sampleUpload, map[string]string{"csrf_token": token})
		req := httptest.NewRequest(http.MethodPost, "/datasets", body)
		req.Header.Set("Content-Type", contentType)
		req.AddCookie(cookie)

		rec := serve(srv, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})
}

// TestCSRFProtection_Delete verifies CSRF protection on the dataset delete endpoint
func TestCSRFProtection_Delete(t *testing.T) {
	id := uuid.New()
	var deleted []uuid.UUID

	srv := newTestServer(t, &mockAppService{
		deleteDatasetFn: func(_ context.Context, got uuid.UUID) error {
			deleted = append(deleted, got)
			return nil
		},
	})

	t.Run("rejects DELETE without CSRF token", func(t *testing.T) {
		rec := serve(srv, httptest.NewRequest(http.MethodDelete, "/api/datasets/"+id.String(), nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, deleted)
	})

	t.Run("accepts DELETE with valid CSRF token in header", func(t *testing.T) {
		token, cookie := fetchCSRF(t, srv)

		req := httptest.NewRequest(http.MethodDelete, "/api/datasets/"+id.String(), nil)
		req.Header.Set("X-CSRF-Token", token)
		req.AddCookie(cookie)

		rec := serve(srv, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, []uuid.UUID{id}, deleted)
	})
}

func TestCSRFCookie_Attributes(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	_, cookie := fetchCSRF(t, srv)

	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.False(t, cookie.Secure, "secure cookies are only required in production")
}
