package analysis

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/ingest"
)

// Stopwords decides which tokens are left out of frequency tables.
// *sentiment.Lexicon satisfies it.
type Stopwords interface {
	IsStopword(word string) bool
}

// Words builds a ranked frequency table over the tokens of comments.
// Ranking is by count descending; equal counts keep the order in which the
// words were first seen. Stopwords and pure punctuation are dropped;
// numeric tokens such as "666" are kept. A nil stopwords keeps every token.
func Words(comments []domain.TaggedComment, stopwords Stopwords) domain.WordFrequencies {
	counts := make(map[string]int)
	var order []string
	total := 0

	for _, c := range comments {
		for _, raw := range ingest.Tokens(c.Comment) {
			w := strings.TrimSpace(raw)
			if !isWord(w) {
				continue
			}
			if stopwords != nil && stopwords.IsStopword(w) {
				continue
			}
			if _, seen := counts[w]; !seen {
				order = append(order, w)
			}
			counts[w]++
			total++
		}
	}

	ranked := make([]domain.WordCount, len(order))
	for i, w := range order {
		ranked[i] = domain.WordCount{Word: w, Count: counts[w]}
	}
	slices.SortStableFunc(ranked, func(a, b domain.WordCount) int {
		return cmp.Compare(b.Count, a.Count)
	})

	return domain.WordFrequencies{
		TotalWords:    total,
		DistinctWords: len(order),
		Ranked:        ranked,
	}
}

func isWord(w string) bool {
	for _, r := range w {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
