package analysis

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
)

// Sort returns a sorted copy of comments. Every non-default order is
// descending and stable; comments missing the sort key go last.
func Sort(comments []domain.TaggedComment, order domain.SortOrder) []domain.TaggedComment {
	out := slices.Clone(comments)

	switch order {
	case domain.SortLikes:
		slices.SortStableFunc(out, func(a, b domain.TaggedComment) int {
			return compareMissingLast(a.Likes, b.Likes)
		})
	case domain.SortScore:
		slices.SortStableFunc(out, func(a, b domain.TaggedComment) int {
			return cmp.Compare(b.Score, a.Score)
		})
	case domain.SortTime:
		slices.SortStableFunc(out, func(a, b domain.TaggedComment) int {
			switch {
			case a.PostedAt == nil && b.PostedAt == nil:
				return 0
			case a.PostedAt == nil:
				return 1
			case b.PostedAt == nil:
				return -1
			}
			return b.PostedAt.Compare(*a.PostedAt)
		})
	}
	return out
}

func compareMissingLast[T cmp.Ordered](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*b, *a)
}

// TotalPages is ceil(n/perPage) but never less than one, so an empty
// selection still has a first page.
func TotalPages(n, perPage int) int {
	if perPage <= 0 || n <= 0 {
		return 1
	}
	return (n + perPage - 1) / perPage
}

// Paginate returns page (1-based) of comments. A page outside
// [1, TotalPages] yields an error wrapping domain.ErrPageOutOfRange.
func Paginate(comments []domain.TaggedComment, page, perPage int) (domain.CommentPage, error) {
	if perPage <= 0 {
		return domain.CommentPage{}, fmt.Errorf("per page must be positive, got %d", perPage)
	}

	total := TotalPages(len(comments), perPage)
	if page < 1 || page > total {
		return domain.CommentPage{}, fmt.Errorf("%w: page %d of %d", domain.ErrPageOutOfRange, page, total)
	}

	start := (page - 1) * perPage
	end := min(start+perPage, len(comments))

	return domain.CommentPage{
		Items:      comments[start:end],
		Page:       page,
		PerPage:    perPage,
		TotalItems: len(comments),
		TotalPages: total,
	}, nil
}
