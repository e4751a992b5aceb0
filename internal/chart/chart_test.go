package chart

import (
	"encoding/json"
	"testing"
	"time"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ranked(n int) []domain.WordCount {
	out := make([]domain.WordCount, n)
	for i := range out {
		out[i] = domain.WordCount{Word: string(rune('a' + i%26)), Count: n - i}
	}
	return out
}

func TestLabelPie_UsesLabelColoursAndSkipsEmpty(t *testing.T) {
	fig := LabelPie(domain.Overview{
		Total: 3,
		Labels: []domain.LabelStat{
			{Label: domain.LabelPositive, Count: 2},
			{Label: domain.LabelNegative, Count: 0},
			{Label: domain.LabelNeutral, Count: 1},
		},
	})

	require.Len(t, fig.Data, 1)
	pie, ok := fig.Data[0].(*grob.Pie)
	require.True(t, ok)
	assert.Equal(t, grob.TraceTypePie, pie.GetType())
	assert.Equal(t, []string{"positive", "neutral"}, pie.Labels)
	assert.Equal(t, []int{2, 1}, pie.Values)
	assert.Equal(t, []string{"#2E8B57", "#1E90FF"}, pie.Marker.Colors)
}

func TestScoreHistogram_HasNeutralLine(t *testing.T) {
	fig := ScoreHistogram([]domain.HistogramBin{
		{Lower: 0, Upper: 0.5, Count: 3},
		{Lower: 0.5, Upper: 1, Count: 1},
	})

	require.Len(t, fig.Data, 2)
	bars := fig.Data[0].(*grob.Bar)
	assert.Equal(t, []float64{0.25, 0.75}, bars.X)
	assert.Equal(t, []int{3, 1}, bars.Y)
	assert.Equal(t, []float64{0.5, 0.5}, bars.Width)

	neutral := fig.Data[1].(*grob.Scatter)
	assert.Equal(t, []float64{0.5, 0.5}, neutral.X)
	assert.Equal(t, []int{0, 3}, neutral.Y, "line reaches the tallest bin")
}

func TestDailyFigures(t *testing.T) {
	stats := []domain.DayStat{
		{Day: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Count: 4, MeanScore: 0.25},
		{Day: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Count: 1, MeanScore: 0.9},
	}

	line := DailyScoreLine(stats).Data[0].(*grob.Scatter)
	assert.Equal(t, []string{"2024-03-01", "2024-03-02"}, line.X)
	assert.Equal(t, []float64{0.25, 0.9}, line.Y)

	bar := DailyCountBar(stats).Data[0].(*grob.Bar)
	assert.Equal(t, []int{4, 1}, bar.Y)
}

func TestWordFigure_RespectsViewCapsAndMaxWords(t *testing.T) {
	words := ranked(60)

	tests := []struct {
		view     domain.WordView
		maxWords int
		want     int
	}{
		{domain.WordViewBar, 50, 30},
		{domain.WordViewBar, 12, 12},
		{domain.WordViewImportance, 50, 25},
		{domain.WordViewHeatmap, 50, 20},
		{domain.WordViewPolar, 50, 15},
		{domain.WordViewPolar, 10, 10},
		{domain.WordViewBar, 0, 25},
	}

	for _, tt := range tests {
		t.Run(string(tt.view), func(t *testing.T) {
			fig, err := WordFigure(tt.view, words, tt.maxWords, "")
			require.NoError(t, err)
			require.Len(t, fig.Data, 1)

			var got int
			switch tr := fig.Data[0].(type) {
			case *grob.Bar:
				if tt.view == domain.WordViewHeatmap {
					got = len(tr.X.([]string))
				} else {
					got = len(tr.Y.([]string))
				}
			case *grob.Scatter:
				got = len(tr.Text.([]string))
			case *grob.Scatterpolar:
				got = len(tr.Theta.([]string))
			default:
				t.Fatalf("unexpected trace %T", tr)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWordFigure_NoWords(t *testing.T) {
	_, err := WordFigure(domain.WordViewBar, nil, 25, "")
	assert.ErrorIs(t, err, domain.ErrNoWords)

	_, err = WordFigure(domain.WordViewCloud, ranked(3), 25, "")
	assert.Error(t, err)
}

func TestEncode_ProducesPlotlyDocument(t *testing.T) {
	fig, err := WordFigure(domain.WordViewPolar, ranked(3), 25, "positive - ")
	require.NoError(t, err)

	encoded, err := Encode(fig)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(encoded, &doc))
	trace := doc["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "scatterpolar", trace["type"])
	assert.Equal(t, "toself", trace["fill"])
	layout := doc["layout"].(map[string]any)
	assert.Equal(t, "positive - word polar chart", layout["title"].(map[string]any)["text"])
	assert.Equal(t, false, layout["showlegend"])
}

func TestFigure_EmbedsAsRawJSON(t *testing.T) {
	encoded, err := Encode(DailyCountBar([]domain.DayStat{
		{Day: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Count: 2},
	}))
	require.NoError(t, err)

	type view struct {
		Chart Figure  `json:"chart"`
		Extra *Figure `json:"extra,omitempty"`
	}
	data, err := json.Marshal(view{Chart: encoded})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "extra")

	var back view
	require.NoError(t, json.Unmarshal(data, &back))
	assert.JSONEq(t, string(encoded), string(back.Chart))
	assert.Contains(t, string(back.Chart), `"2024-03-01"`)
}

func TestCloud_EmptyIsPlaceholder(t *testing.T) {
	cloud := Cloud(nil, 25)
	assert.True(t, cloud.Placeholder)
	assert.NotEmpty(t, cloud.Message)
	assert.Empty(t, cloud.Words)
}

func TestCloud_WeightsAndFontSizes(t *testing.T) {
	words := []domain.WordCount{{"好看", 10}, {"喜欢", 5}, {"up主", 1}}

	cloud := Cloud(words, 25)
	require.False(t, cloud.Placeholder)
	require.Len(t, cloud.Words, 3)

	assert.InDelta(t, 1.0, cloud.Words[0].Weight, 1e-9)
	assert.Equal(t, MaxFontSize, cloud.Words[0].FontSize)
	assert.InDelta(t, 0.5, cloud.Words[1].Weight, 1e-9)
	assert.Equal(t, 39, cloud.Words[1].FontSize)
	for _, w := range cloud.Words {
		assert.GreaterOrEqual(t, w.FontSize, MinFontSize)
		assert.LessOrEqual(t, w.FontSize, MaxFontSize)
		assert.Greater(t, w.Weight, 0.0)
	}

	assert.Len(t, Cloud(ranked(60), 100).Words, MaxMaxWords)
}
