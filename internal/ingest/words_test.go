package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSegmented(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
		{"list literal single quotes", "['视频', '好看', 'up主']", []string{"视频", "好看", "up主"}},
		{"list literal double quotes", `["a", "b"]`, []string{"a", "b"}},
		{"list literal with blanks", "['a', '', ' ', 'b']", []string{"a", "b"}},
		{"escaped whitespace markers dropped", `['a', '\n', '\t', 'b']`, []string{"a", "b"}},
		{"space separated", "视频  好看 \t 弹幕", []string{"视频", "好看", "弹幕"}},
		{"empty list", "[]", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSegmented(tt.in))
		})
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"great", "video", "10", "10"}, Tokenize("Great video!! 10/10"))
	assert.Equal(t, []string{"太好看了", "up主"}, Tokenize("太好看了，UP主"))
	assert.Nil(t, Tokenize("?!  ..."))
}
