package sentiment

import (
	"fmt"

	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/ingest"
)

const (
	DefaultPositiveThreshold = 0.6
	DefaultNegativeThreshold = 0.4
)

// Thresholds map a score in [0, 1] onto a label.
type Thresholds struct {
	Positive float64
	Negative float64
}

// DefaultThresholds places the neutral band around 0.5.
func DefaultThresholds() Thresholds {
	return Thresholds{Positive: DefaultPositiveThreshold, Negative: DefaultNegativeThreshold}
}

func (t Thresholds) Validate() error {
	if t.Negative < 0 || t.Positive > 1 || t.Negative >= t.Positive {
		return fmt.Errorf("thresholds must satisfy 0 <= negative < positive <= 1, got negative=%v positive=%v", t.Negative, t.Positive)
	}
	return nil
}

// Label maps a score: score >= Positive is positive, score <= Negative is
// negative, anything in between is neutral.
func (t Thresholds) Label(score float64) domain.Label {
	switch {
	case score >= t.Positive:
		return domain.LabelPositive
	case score <= t.Negative:
		return domain.LabelNegative
	default:
		return domain.LabelNeutral
	}
}

// Tagger assigns exactly one label to every comment.
type Tagger struct {
	lexicon    *Lexicon
	thresholds Thresholds
}

func NewTagger(lexicon *Lexicon, thresholds Thresholds) (*Tagger, error) {
	if lexicon == nil {
		return nil, fmt.Errorf("tagger requires a lexicon")
	}
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &Tagger{lexicon: lexicon, thresholds: thresholds}, nil
}

func (t *Tagger) Lexicon() *Lexicon { return t.lexicon }

// Tag labels comments in order; len(result) == len(comments) always.
// A label already present in the data wins, then a provided score, then
// the lexicon classifier.
func (t *Tagger) Tag(comments []domain.Comment) []domain.TaggedComment {
	tagged := make([]domain.TaggedComment, len(comments))
	for i, c := range comments {
		tagged[i] = t.TagOne(c)
	}
	return tagged
}

func (t *Tagger) TagOne(c domain.Comment) domain.TaggedComment {
	tc := domain.TaggedComment{Comment: c}

	switch {
	case c.RawLabel != nil && c.RawLabel.Valid():
		tc.Label = *c.RawLabel
		tc.LabelSource = domain.SourceDataset
		if c.Score != nil {
			tc.Score = *c.Score
		} else {
			tc.Score = tc.Label.CanonicalScore()
		}

	case c.Score != nil:
		tc.Score = *c.Score
		tc.Label = t.thresholds.Label(tc.Score)
		tc.LabelSource = domain.SourceScore

	default:
		tc.Score, _ = t.lexicon.Score(ingest.Tokens(c))
		tc.Label = t.thresholds.Label(tc.Score)
		tc.LabelSource = domain.SourceLexicon
	}

	return tc
}
