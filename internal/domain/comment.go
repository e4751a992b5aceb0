package domain

import "time"

// Comment is a single raw record as loaded from an export.
// Optional fields are nil when the column is missing or the cell is empty.
type Comment struct {
	Line     int
	ID       string
	Author   string
	Text     string
	Words    []string
	RawLabel *Label
	Score    *float64
	Likes    *int
	PostedAt *time.Time
}

// TaggedComment is a Comment with exactly one assigned label.
// Score is always set: either taken from the data or derived by the tagger.
type TaggedComment struct {
	Comment
	Label       Label
	Score       float64
	LabelSource LabelSource
}

// LikeCount returns the like count, treating a missing value as zero.
func (c TaggedComment) LikeCount() int {
	if c.Likes == nil {
		return 0
	}
	return *c.Likes
}
