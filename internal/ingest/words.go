package ingest

import (
	"strings"
	"unicode"

	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
)

// ParseSegmented extracts tokens from a pre-segmented cell. Two layouts are
// understood: a list literal such as ['好看', "up主"] and plain whitespace
// separated tokens. Blank tokens and escaped whitespace markers are dropped.
func ParseSegmented(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var parts []string
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		content := s[1 : len(s)-1]
		content = strings.NewReplacer("'", "", `"`, "").Replace(content)
		parts = strings.Split(content, ",")
	} else {
		parts = strings.Fields(s)
	}

	words := make([]string, 0, len(parts))
	for _, p := range parts {
		w := strings.TrimSpace(p)
		if w == "" || w == `\n` || w == `\t` {
			continue
		}
		words = append(words, w)
	}
	return words
}

// Tokenize splits free text into runs of letters and digits, lowercasing
// Latin script. It is the fallback when a comment has no segmentation; Han
// runs are kept whole because proper CJK segmentation is out of scope.
func Tokenize(text string) []string {
	var (
		words []string
		b     strings.Builder
	)
	flush := func() {
		if b.Len() > 0 {
			words = append(words, b.String())
			b.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return words
}

// Tokens returns the words of a comment: its segmentation when present,
// otherwise the tokenized text.
func Tokens(c domain.Comment) []string {
	if len(c.Words) > 0 {
		return c.Words
	}
	return Tokenize(c.Text)
}
