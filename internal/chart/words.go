package chart

import (
	"fmt"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
)

const (
	MinMaxWords     = 10
	MaxMaxWords     = 50
	DefaultMaxWords = 25
)

// ViewCap is the most words a view can show regardless of the requested
// limit.
func ViewCap(view domain.WordView) int {
	switch view {
	case domain.WordViewBar:
		return 30
	case domain.WordViewImportance:
		return 25
	case domain.WordViewHeatmap:
		return 20
	case domain.WordViewPolar:
		return 15
	default:
		return MaxMaxWords
	}
}

// Limit is the number of words a view renders for a requested maxWords.
func Limit(view domain.WordView, maxWords int) int {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	return min(maxWords, ViewCap(view))
}

func split(words []domain.WordCount) ([]string, []int) {
	labels := make([]string, len(words))
	counts := make([]int, len(words))
	for i, w := range words {
		labels[i] = w.Word
		counts[i] = w.Count
	}
	return labels, counts
}

func scaled(counts []int, div float64) []float64 {
	out := make([]float64, len(counts))
	for i, c := range counts {
		out[i] = float64(c) / div
	}
	return out
}

// WordFigure renders ranked words as one of the chart views. Words must be
// ranked already; at most Limit(view, maxWords) are drawn. The cloud view
// is not a figure, use Cloud for it.
func WordFigure(view domain.WordView, words []domain.WordCount, maxWords int, heading string) (*grob.Fig, error) {
	if view == domain.WordViewCloud {
		return nil, fmt.Errorf("word view %q is not a chart", view)
	}

	n := min(len(words), Limit(view, maxWords))
	if n == 0 {
		return nil, domain.ErrNoWords
	}
	labels, counts := split(words[:n])

	switch view {
	case domain.WordViewImportance:
		x := make([]int, n)
		for i := range x {
			x[i] = i
		}
		return &grob.Fig{
			Data: grob.Traces{
				&grob.Scatter{
					Type:         grob.TraceTypeScatter,
					Mode:         "markers+text",
					X:            x,
					Y:            counts,
					Text:         labels,
					Textposition: "top center",
					Textfont:     &grob.ScatterTextfont{Size: 14},
					Marker: &grob.ScatterMarker{
						Size:       scaled(counts, 2),
						Color:      counts,
						Colorscale: "Rainbow",
						Opacity:    0.7,
						Line:       &grob.ScatterMarkerLine{Color: "darkgray", Width: 2},
					},
					Hovertemplate: "<b>%{text}</b><br>count: %{y}<extra></extra>",
				},
			},
			Layout: &grob.Layout{
				Title:       title(heading + "word importance"),
				Xaxis:       &grob.LayoutXaxis{Showticklabels: grob.False, Showgrid: grob.False},
				Yaxis:       &grob.LayoutYaxis{Title: yTitle("count"), Gridcolor: "lightgray"},
				Showlegend:  grob.False,
				Height:      500,
				PlotBgcolor: "white",
			},
		}, nil

	case domain.WordViewHeatmap:
		return &grob.Fig{
			Data: grob.Traces{
				&grob.Bar{
					Type:          grob.TraceTypeBar,
					X:             labels,
					Y:             counts,
					Text:          counts,
					Textposition:  "auto",
					Marker:        &grob.BarMarker{Color: counts, Colorscale: "Hot", Line: &grob.BarMarkerLine{Color: "white", Width: 1}},
					Hovertemplate: "<b>%{x}</b><br>count: %{y}<extra></extra>",
				},
			},
			Layout: &grob.Layout{
				Title:      title(heading + "word frequency heatmap"),
				Xaxis:      &grob.LayoutXaxis{Title: xTitle("word"), Tickangle: 45},
				Yaxis:      &grob.LayoutYaxis{Title: yTitle("count")},
				Showlegend: grob.False,
				Height:     500,
			},
		}, nil

	case domain.WordViewPolar:
		return &grob.Fig{
			Data: grob.Traces{
				&grob.Scatterpolar{
					Type:          grob.TraceTypeScatterpolar,
					R:             counts,
					Theta:         labels,
					Fill:          "toself",
					Text:          counts,
					Line:          &grob.ScatterpolarLine{Color: "blue"},
					Marker:        &grob.ScatterpolarMarker{Size: scaled(counts, 3), Color: counts, Colorscale: "Viridis"},
					Hovertemplate: "<b>%{theta}</b><br>count: %{r}<extra></extra>",
				},
			},
			Layout: &grob.Layout{
				Title: title(heading + "word polar chart"),
				Polar: &grob.LayoutPolar{
					Radialaxis: &grob.LayoutPolarRadialaxis{Visible: grob.True, Range: []float64{0, float64(counts[0])}},
				},
				Showlegend: grob.False,
				Height:     500,
			},
		}, nil

	default:
		return &grob.Fig{
			Data: grob.Traces{
				&grob.Bar{
					Type:          grob.TraceTypeBar,
					Orientation:   "h",
					X:             counts,
					Y:             labels,
					Text:          counts,
					Textposition:  "auto",
					Marker:        &grob.BarMarker{Color: counts, Colorscale: "Viridis", Line: &grob.BarMarkerLine{Color: "white", Width: 1}},
					Hovertemplate: "<b>%{y}</b><br>count: %{x}<extra></extra>",
				},
			},
			Layout: &grob.Layout{
				Title:      title(heading + "top words"),
				Xaxis:      &grob.LayoutXaxis{Title: xTitle("count")},
				Yaxis:      &grob.LayoutYaxis{Title: yTitle("word"), Categoryorder: "total ascending"},
				Showlegend: grob.False,
				Height:     600,
			},
		}, nil
	}
}
