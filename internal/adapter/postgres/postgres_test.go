package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSSLMode(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"postgres://user:pw@localhost:5432/comments?sslmode=disable", "disable"},
		{"postgres://user:pw@db.internal/comments?sslmode=VERIFY-FULL", "verify-full"},
		{"postgres://user:pw@localhost/comments", "prefer (default)"},
		{"://broken", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, extractSSLMode(tt.url))
		})
	}
}
