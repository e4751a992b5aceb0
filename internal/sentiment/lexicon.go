package sentiment

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexiconYAML []byte

// Lexicon holds the word lists used by the fallback classifier.
type Lexicon struct {
	positive  map[string]struct{}
	negative  map[string]struct{}
	negators  map[string]struct{}
	stopwords map[string]struct{}
}

type lexiconFile struct {
	Positive  []string `yaml:"positive"`
	Negative  []string `yaml:"negative"`
	Negators  []string `yaml:"negators"`
	Stopwords []string `yaml:"stopwords"`
}

// DefaultLexicon returns the embedded lexicon.
func DefaultLexicon() *Lexicon {
	lex, err := ParseLexicon(defaultLexiconYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon is invalid: %v", err))
	}
	return lex
}

// LoadLexicon reads a YAML lexicon from path.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon: %w", err)
	}
	lex, err := ParseLexicon(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse lexicon %s: %w", path, err)
	}
	return lex, nil
}

// ParseLexicon decodes a YAML lexicon. A word listed as both positive and
// negative is rejected.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var f lexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode lexicon: %w", err)
	}
	if len(f.Positive) == 0 && len(f.Negative) == 0 {
		return nil, errors.New("lexicon has no positive or negative words")
	}

	lex := &Lexicon{
		positive:  toSet(f.Positive),
		negative:  toSet(f.Negative),
		negators:  toSet(f.Negators),
		stopwords: toSet(f.Stopwords),
	}
	for w := range lex.positive {
		if _, ok := lex.negative[w]; ok {
			return nil, fmt.Errorf("word %q is both positive and negative", w)
		}
	}
	return lex, nil
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = normalize(w)
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

func normalize(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}

// IsStopword reports whether w should be left out of word frequency tables.
func (l *Lexicon) IsStopword(w string) bool {
	_, ok := l.stopwords[normalize(w)]
	return ok
}

// Score rates words in [0, 1]. Each lexicon hit counts once; a negator flips
// the polarity of the next hit. With no hits the result is 0.5.
func (l *Lexicon) Score(words []string) (score float64, hits int) {
	var pos, neg int
	negate := false
	for _, raw := range words {
		w := normalize(raw)
		if _, ok := l.negators[w]; ok {
			negate = true
			continue
		}

		polarity := 0
		if _, ok := l.positive[w]; ok {
			polarity = 1
		} else if _, ok := l.negative[w]; ok {
			polarity = -1
		}
		if polarity == 0 {
			continue
		}

		if negate {
			polarity = -polarity
			negate = false
		}
		if polarity > 0 {
			pos++
		} else {
			neg++
		}
	}

	hits = pos + neg
	if hits == 0 {
		return 0.5, 0
	}
	return 0.5 + 0.5*float64(pos-neg)/float64(hits), hits
}
