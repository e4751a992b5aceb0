package domain

import "time"

// LabelStat is the count and share of one label.
type LabelStat struct {
	Label Label   `json:"label"`
	Count int     `json:"count"`
	Ratio float64 `json:"ratio"`
}

// Overview is the headline summary of a (filtered) comment set.
type Overview struct {
	Total     int         `json:"total"`
	Labels    []LabelStat `json:"labels"`
	MeanScore float64     `json:"mean_score"`
}

// Count returns the number of comments carrying l.
func (o Overview) Count(l Label) int {
	for _, s := range o.Labels {
		if s.Label == l {
			return s.Count
		}
	}
	return 0
}

// HistogramBin covers [Lower, Upper); the last bin also includes 1.0.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

type DayStat struct {
	Day       time.Time `json:"day"`
	Count     int       `json:"count"`
	MeanScore float64   `json:"mean_score"`
}

// WordCount is one ranked entry of a frequency table.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// WordFrequencies is a ranked frequency table: count descending, ties in
// first-occurrence order.
type WordFrequencies struct {
	TotalWords    int         `json:"total_words"`
	DistinctWords int         `json:"distinct_words"`
	Ranked        []WordCount `json:"ranked"`
}

// Top returns at most n leading entries.
func (w WordFrequencies) Top(n int) []WordCount {
	if n < 0 || n >= len(w.Ranked) {
		return w.Ranked
	}
	return w.Ranked[:n]
}

// CommentPage is one page of the comment browser.
type CommentPage struct {
	Items      []TaggedComment
	Page       int
	PerPage    int
	TotalItems int
	TotalPages int
}
