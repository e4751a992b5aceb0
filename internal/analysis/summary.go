package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
)

// DefaultHistogramBins is the bin count used by the dashboard.
const DefaultHistogramBins = 20

// Apply returns the comments that satisfy filter, in their original order.
func Apply(comments []domain.TaggedComment, filter domain.CommentFilter) []domain.TaggedComment {
	out := make([]domain.TaggedComment, 0, len(comments))
	for _, c := range comments {
		if filter.Matches(c) {
			out = append(out, c)
		}
	}
	return out
}

// Summarize counts comments per label. Labels are always reported in
// positive, negative, neutral order, including zero counts.
func Summarize(comments []domain.TaggedComment) domain.Overview {
	counts := make(map[domain.Label]int, len(domain.Labels))
	var sum float64
	for _, c := range comments {
		counts[c.Label]++
		sum += c.Score
	}

	o := domain.Overview{
		Total:  len(comments),
		Labels: make([]domain.LabelStat, 0, len(domain.Labels)),
	}
	for _, l := range domain.Labels {
		stat := domain.LabelStat{Label: l, Count: counts[l]}
		if o.Total > 0 {
			stat.Ratio = float64(stat.Count) / float64(o.Total)
		}
		o.Labels = append(o.Labels, stat)
	}
	if o.Total > 0 {
		o.MeanScore = sum / float64(o.Total)
	}
	return o
}

// Histogram buckets scores into equal-width bins over [0, 1].
func Histogram(comments []domain.TaggedComment, bins int) ([]domain.HistogramBin, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("histogram needs at least one bin, got %d", bins)
	}

	width := 1.0 / float64(bins)
	out := make([]domain.HistogramBin, bins)
	for i := range out {
		out[i].Lower = float64(i) * width
		out[i].Upper = float64(i+1) * width
	}

	for _, c := range comments {
		idx := int(c.Score * float64(bins))
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		out[idx].Count++
	}
	return out, nil
}

// Daily groups comments by calendar day of PostedAt, oldest day first.
// Comments without a timestamp are skipped.
func Daily(comments []domain.TaggedComment) []domain.DayStat {
	type acc struct {
		count int
		sum   float64
	}
	days := make(map[time.Time]*acc)
	for _, c := range comments {
		if c.PostedAt == nil {
			continue
		}
		day := domain.CalendarDay(*c.PostedAt)
		a, ok := days[day]
		if !ok {
			a = &acc{}
			days[day] = a
		}
		a.count++
		a.sum += c.Score
	}

	out := make([]domain.DayStat, 0, len(days))
	for day, a := range days {
		out = append(out, domain.DayStat{
			Day:       day,
			Count:     a.count,
			MeanScore: a.sum / float64(a.count),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}
