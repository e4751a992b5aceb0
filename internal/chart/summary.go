package chart

import (
	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
)

const (
	dayLayout     = "2006-01-02"
	neutralScore  = 0.5
	histogramBlue = "#636EFA"
)

// LabelPie shows the label distribution with the fixed label colours.
// Labels with a zero count are left out.
func LabelPie(o domain.Overview) *grob.Fig {
	var (
		labels []string
		values []int
		colors []string
	)
	for _, s := range o.Labels {
		if s.Count == 0 {
			continue
		}
		labels = append(labels, string(s.Label))
		values = append(values, s.Count)
		colors = append(colors, s.Label.Color())
	}

	return &grob.Fig{
		Data: grob.Traces{
			&grob.Pie{
				Type:   grob.TraceTypePie,
				Labels: labels,
				Values: values,
				Marker: &grob.PieMarker{Colors: colors},
			},
		},
		Layout: &grob.Layout{Title: title("Sentiment distribution")},
	}
}

// ScoreHistogram draws precomputed bins as bars, with a dashed line trace
// standing at the neutral score.
func ScoreHistogram(bins []domain.HistogramBin) *grob.Fig {
	x := make([]float64, len(bins))
	y := make([]int, len(bins))
	w := make([]float64, len(bins))
	peak := 0
	for i, b := range bins {
		x[i] = (b.Lower + b.Upper) / 2
		y[i] = b.Count
		w[i] = b.Upper - b.Lower
		peak = max(peak, b.Count)
	}

	return &grob.Fig{
		Data: grob.Traces{
			&grob.Bar{
				Type:   grob.TraceTypeBar,
				Name:   "comments",
				X:      x,
				Y:      y,
				Width:  w,
				Marker: &grob.BarMarker{Color: histogramBlue},
			},
			&grob.Scatter{
				Type:      grob.TraceTypeScatter,
				Name:      "neutral",
				Mode:      "lines",
				X:         []float64{neutralScore, neutralScore},
				Y:         []int{0, peak},
				Line:      &grob.ScatterLine{Color: "red", Dash: "dash"},
				Hoverinfo: "skip",
			},
		},
		Layout: &grob.Layout{
			Title:      title("Sentiment score distribution"),
			Xaxis:      &grob.LayoutXaxis{Title: xTitle("score"), Range: []float64{0, 1}},
			Yaxis:      &grob.LayoutYaxis{Title: yTitle("comments")},
			Bargap:     0.05,
			Showlegend: grob.False,
		},
	}
}

func days(stats []domain.DayStat) []string {
	out := make([]string, len(stats))
	for i, s := range stats {
		out[i] = s.Day.Format(dayLayout)
	}
	return out
}

// DailyScoreLine plots the mean score per day.
func DailyScoreLine(stats []domain.DayStat) *grob.Fig {
	y := make([]float64, len(stats))
	for i, s := range stats {
		y[i] = s.MeanScore
	}
	return &grob.Fig{
		Data: grob.Traces{
			&grob.Scatter{Type: grob.TraceTypeScatter, Mode: "lines+markers", X: days(stats), Y: y},
		},
		Layout: &grob.Layout{
			Title: title("Daily mean sentiment score"),
			Xaxis: &grob.LayoutXaxis{Title: xTitle("date"), Type: "date"},
			Yaxis: &grob.LayoutYaxis{Title: yTitle("mean score"), Range: []float64{0, 1}},
		},
	}
}

// DailyCountBar plots the comment count per day.
func DailyCountBar(stats []domain.DayStat) *grob.Fig {
	y := make([]int, len(stats))
	for i, s := range stats {
		y[i] = s.Count
	}
	return &grob.Fig{
		Data: grob.Traces{
			&grob.Bar{Type: grob.TraceTypeBar, X: days(stats), Y: y},
		},
		Layout: &grob.Layout{
			Title: title("Daily comment count"),
			Xaxis: &grob.LayoutXaxis{Title: xTitle("date"), Type: "date"},
			Yaxis: &grob.LayoutYaxis{Title: yTitle("comments")},
		},
	}
}
