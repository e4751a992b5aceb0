package domain

import (
	"fmt"
	"strings"
)

// Label is the sentiment category assigned to a comment.
type Label string

const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
)

// Labels lists every label in display order.
var Labels = []Label{LabelPositive, LabelNegative, LabelNeutral}

// ParseLabel accepts English names, short forms and the Chinese labels
// used by Bilibili exports (积极/消极/中性).
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive", "pos", "积极", "正面":
		return LabelPositive, nil
	case "negative", "neg", "消极", "负面":
		return LabelNegative, nil
	case "neutral", "neu", "中性":
		return LabelNeutral, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLabel, s)
	}
}

// Valid reports whether l is one of the three labels.
func (l Label) Valid() bool {
	switch l {
	case LabelPositive, LabelNegative, LabelNeutral:
		return true
	default:
		return false
	}
}

// Color is the display color used by every chart for the label.
func (l Label) Color() string {
	switch l {
	case LabelPositive:
		return "#2E8B57"
	case LabelNegative:
		return "#DC143C"
	default:
		return "#1E90FF"
	}
}

// CanonicalScore is the score assumed for a labelled comment that has no score.
func (l Label) CanonicalScore() float64 {
	switch l {
	case LabelPositive:
		return 1
	case LabelNegative:
		return 0
	default:
		return 0.5
	}
}

// LabelSource records which rule produced a comment's label.
type LabelSource string

const (
	SourceDataset LabelSource = "dataset"
	SourceScore   LabelSource = "score"
	SourceLexicon LabelSource = "lexicon"
)
