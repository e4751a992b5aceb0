package domain

import (
	"slices"
	"time"
)

// CommentFilter selects a subset of a dataset. Zero value matches everything.
type CommentFilter struct {
	Labels   []Label
	MinLikes *int
	MaxLikes *int
	Since    *time.Time
	Until    *time.Time
}

// Matches reports whether c satisfies every constraint of the filter.
// Like bounds treat a missing like count as zero. Date bounds are inclusive
// calendar days; comments without a timestamp never match a date bound.
func (f CommentFilter) Matches(c TaggedComment) bool {
	if len(f.Labels) > 0 && !slices.Contains(f.Labels, c.Label) {
		return false
	}

	likes := c.LikeCount()
	if f.MinLikes != nil && likes < *f.MinLikes {
		return false
	}
	if f.MaxLikes != nil && likes > *f.MaxLikes {
		return false
	}

	if f.Since != nil || f.Until != nil {
		if c.PostedAt == nil {
			return false
		}
		day := CalendarDay(*c.PostedAt)
		if f.Since != nil && day.Before(CalendarDay(*f.Since)) {
			return false
		}
		if f.Until != nil && day.After(CalendarDay(*f.Until)) {
			return false
		}
	}

	return true
}

// CalendarDay returns the date t falls on in its own zone, as midnight UTC.
// Two instants on the same local date map to the same key whatever their
// offsets, so filters and daily trends agree on which day a comment is in.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SortOrder controls comment browser ordering.
type SortOrder string

const (
	SortDefault SortOrder = "default"
	SortLikes   SortOrder = "likes"
	SortScore   SortOrder = "score"
	SortTime    SortOrder = "time"
)

// ParseSortOrder converts a string to a SortOrder, defaulting to load order.
func ParseSortOrder(s string) SortOrder {
	switch s {
	case "likes":
		return SortLikes
	case "score":
		return SortScore
	case "time":
		return SortTime
	default:
		return SortDefault
	}
}

// WordView names a visualization of word frequencies.
type WordView string

const (
	WordViewBar        WordView = "bar"
	WordViewImportance WordView = "importance"
	WordViewHeatmap    WordView = "heatmap"
	WordViewPolar      WordView = "polar"
	WordViewCloud      WordView = "cloud"
)

// ParseWordView converts a string to a WordView, defaulting to bar.
func ParseWordView(s string) WordView {
	switch s {
	case "importance":
		return WordViewImportance
	case "heatmap":
		return WordViewHeatmap
	case "polar":
		return WordViewPolar
	case "cloud":
		return WordViewCloud
	default:
		return WordViewBar
	}
}
