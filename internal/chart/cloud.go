package chart

import (
	"math"

	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
)

const (
	MinFontSize = 14
	MaxFontSize = 64

	placeholderMessage = "No words to show for this selection"
)

var cloudPalette = []string{
	"#2E8B57", "#1E90FF", "#DC143C", "#FF8C00", "#8A2BE2",
	"#20B2AA", "#D2691E", "#4682B4", "#C71585", "#556B2F",
}

// WordCloud is rendered client side as sized text. An empty selection
// yields a placeholder instead of an error.
type WordCloud struct {
	Placeholder bool        `json:"placeholder"`
	Message     string      `json:"message,omitempty"`
	Words       []CloudWord `json:"words"`
}

type CloudWord struct {
	Text     string  `json:"text"`
	Count    int     `json:"count"`
	Weight   float64 `json:"weight"`
	FontSize int     `json:"font_size"`
	Color    string  `json:"color"`
}

// Cloud lays out at most maxWords ranked words. Weight is count relative to
// the most frequent word, and font size grows linearly with it.
func Cloud(words []domain.WordCount, maxWords int) WordCloud {
	n := min(len(words), Limit(domain.WordViewCloud, maxWords))
	if n == 0 {
		return WordCloud{Placeholder: true, Message: placeholderMessage, Words: []CloudWord{}}
	}

	top := 0
	for _, w := range words[:n] {
		top = max(top, w.Count)
	}
	if top <= 0 {
		return WordCloud{Placeholder: true, Message: placeholderMessage, Words: []CloudWord{}}
	}

	cloud := WordCloud{Words: make([]CloudWord, 0, n)}
	for i, w := range words[:n] {
		if w.Count <= 0 {
			continue
		}
		weight := float64(w.Count) / float64(top)
		cloud.Words = append(cloud.Words, CloudWord{
			Text:     w.Word,
			Count:    w.Count,
			Weight:   weight,
			FontSize: MinFontSize + int(math.Round(weight*(MaxFontSize-MinFontSize))),
			Color:    cloudPalette[i%len(cloudPalette)],
		})
	}
	return cloud
}
