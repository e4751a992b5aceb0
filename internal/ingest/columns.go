package ingest

import (
	"strings"
	"unicode/utf8"
)

// Canonical column names. Input headers are mapped onto these via aliases.
const (
	ColumnID     = "comment_id"
	ColumnAuthor = "user_name"
	ColumnText   = "content_cleaned"
	ColumnWords  = "segmented_words"
	ColumnLabel  = "sentiment_label"
	ColumnScore  = "sentiment_score"
	ColumnLikes  = "like_count"
	ColumnTime   = "post_time"
)

var columnAliases = map[string]string{
	"comment_id":      ColumnID,
	"id":              ColumnID,
	"rpid":            ColumnID,
	"user_name":       ColumnAuthor,
	"username":        ColumnAuthor,
	"author":          ColumnAuthor,
	"user":            ColumnAuthor,
	"uname":           ColumnAuthor,
	"content_cleaned": ColumnText,
	"content":         ColumnText,
	"text":            ColumnText,
	"message":         ColumnText,
	"comment":         ColumnText,
	"segmented_words": ColumnWords,
	"words":           ColumnWords,
	"tokens":          ColumnWords,
	"sentiment_label": ColumnLabel,
	"label":           ColumnLabel,
	"sentiment":       ColumnLabel,
	"sentiment_score": ColumnScore,
	"score":           ColumnScore,
	"like_count":      ColumnLikes,
	"likes":           ColumnLikes,
	"like":            ColumnLikes,
	"post_time":       ColumnTime,
	"time":            ColumnTime,
	"created_at":      ColumnTime,
	"ctime":           ColumnTime,
}

// columnIndex maps canonical column names to their position in a record.
type columnIndex map[string]int

// mapHeader resolves a header row. The first header matching a canonical
// column wins; unknown headers are ignored.
func mapHeader(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		canonical, ok := columnAliases[name]
		if !ok {
			continue
		}
		if _, seen := idx[canonical]; seen {
			continue
		}
		idx[canonical] = i
	}
	return idx
}

func (c columnIndex) has(name string) bool {
	_, ok := c[name]
	return ok
}

// cell returns the trimmed value of a column, or "" when absent.
func (c columnIndex) cell(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// names lists the present canonical columns in a stable order.
func (c columnIndex) names() []string {
	order := []string{ColumnID, ColumnAuthor, ColumnText, ColumnWords, ColumnLabel, ColumnScore, ColumnLikes, ColumnTime}
	var out []string
	for _, n := range order {
		if c.has(n) {
			out = append(out, n)
		}
	}
	return out
}

// firstInvalidUTF8 returns the first mapped column whose cell is not valid
// UTF-8, as produced by exports saved in a legacy code page such as GBK.
func (c columnIndex) firstInvalidUTF8(record []string) (string, bool) {
	for _, name := range c.names() {
		if i := c[name]; i < len(record) && !utf8.ValidString(record[i]) {
			return name, true
		}
	}
	return "", false
}
