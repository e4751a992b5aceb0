package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/analysis"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/chart"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/ingest"
)

const (
	viewOverview = "overview"
	viewTrend    = "trend"
	viewWords    = "words"

	DefaultPerPage = 10
	MaxPerPage     = 100
)

// OverviewView is the headline panel: label split and score distribution.
type OverviewView struct {
	Overview  domain.Overview       `json:"overview"`
	Histogram []domain.HistogramBin `json:"histogram"`
	Charts    OverviewCharts        `json:"charts"`
}

type OverviewCharts struct {
	Labels chart.Figure `json:"labels"`
	Scores chart.Figure `json:"scores"`
}

// Overview summarizes the filtered comments of a dataset.
func (s *Service) Overview(ctx context.Context, id uuid.UUID, filter domain.CommentFilter) (OverviewView, error) {
	key := domain.AggregateKey(id.String(), viewOverview, filterKey(filter))
	return cachedView(ctx, s, key, func(ctx context.Context) (OverviewView, error) {
		_, comments, err := s.filtered(ctx, id, filter)
		if err != nil {
			return OverviewView{}, err
		}

		bins, err := analysis.Histogram(comments, analysis.DefaultHistogramBins)
		if err != nil {
			return OverviewView{}, err
		}
		overview := analysis.Summarize(comments)

		labels, err := chart.Encode(chart.LabelPie(overview))
		if err != nil {
			return OverviewView{}, err
		}
		scores, err := chart.Encode(chart.ScoreHistogram(bins))
		if err != nil {
			return OverviewView{}, err
		}

		return OverviewView{
			Overview:  overview,
			Histogram: bins,
			Charts:    OverviewCharts{Labels: labels, Scores: scores},
		}, nil
	})
}

// TrendView is the per-day series. Available is false when the dataset
// has no timestamp column.
type TrendView struct {
	Available bool             `json:"available"`
	Days      []domain.DayStat `json:"days"`
	Charts    *TrendCharts     `json:"charts,omitempty"`
}

type TrendCharts struct {
	Score chart.Figure `json:"score"`
	Count chart.Figure `json:"count"`
}

// Trend aggregates the filtered comments by calendar day.
func (s *Service) Trend(ctx context.Context, id uuid.UUID, filter domain.CommentFilter) (TrendView, error) {
	key := domain.AggregateKey(id.String(), viewTrend, filterKey(filter))
	return cachedView(ctx, s, key, func(ctx context.Context) (TrendView, error) {
		ds, comments, err := s.filtered(ctx, id, filter)
		if err != nil {
			return TrendView{}, err
		}
		if !ds.Report.HasColumn(ingest.ColumnTime) {
			return TrendView{Days: []domain.DayStat{}}, nil
		}

		days := analysis.Daily(comments)
		view := TrendView{Available: true, Days: days}
		if len(days) > 0 {
			score, err := chart.Encode(chart.DailyScoreLine(days))
			if err != nil {
				return TrendView{}, err
			}
			count, err := chart.Encode(chart.DailyCountBar(days))
			if err != nil {
				return TrendView{}, err
			}
			view.Charts = &TrendCharts{Score: score, Count: count}
		}
		return view, nil
	})
}

// WordViewRequest selects a word visualization. A nil Label means every label.
type WordViewRequest struct {
	Filter   domain.CommentFilter
	Label    *domain.Label
	View     domain.WordView
	MaxWords int
}

// WordViewResult carries either a chart figure or a cloud, plus the ranked
// table behind it. An empty selection sets Warning instead of failing.
type WordViewResult struct {
	View          domain.WordView    `json:"view"`
	Label         string             `json:"label"`
	MaxWords      int                `json:"max_words"`
	TotalWords    int                `json:"total_words"`
	DistinctWords int                `json:"distinct_words"`
	Words         []domain.WordCount `json:"words"`
	Figure        *chart.Figure      `json:"figure,omitempty"`
	Cloud         *chart.WordCloud   `json:"cloud,omitempty"`
	Warning       string             `json:"warning,omitempty"`
}

// WordView ranks the words of the selected comments and renders them.
func (s *Service) WordView(ctx context.Context, id uuid.UUID, req WordViewRequest) (WordViewResult, error) {
	req.MaxWords = clampMaxWords(req.MaxWords)
	labelName := "all"
	if req.Label != nil {
		labelName = string(*req.Label)
	}

	params := fmt.Sprintf("%s;view=%s;label=%s;max=%d", filterKey(req.Filter), req.View, labelName, req.MaxWords)
	key := domain.AggregateKey(id.String(), viewWords, params)

	return cachedView(ctx, s, key, func(ctx context.Context) (WordViewResult, error) {
		_, comments, err := s.filtered(ctx, id, req.Filter)
		if err != nil {
			return WordViewResult{}, err
		}
		if req.Label != nil {
			comments = analysis.Apply(comments, domain.CommentFilter{Labels: []domain.Label{*req.Label}})
		}

		freq := analysis.Words(comments, s.tagger.Lexicon())
		result := WordViewResult{
			View:          req.View,
			Label:         labelName,
			MaxWords:      req.MaxWords,
			TotalWords:    freq.TotalWords,
			DistinctWords: freq.DistinctWords,
			Words:         freq.Top(req.MaxWords),
		}
		if result.Words == nil {
			result.Words = []domain.WordCount{}
		}

		if req.View == domain.WordViewCloud {
			cloud := chart.Cloud(freq.Ranked, req.MaxWords)
			result.Cloud = &cloud
			return result, nil
		}

		fig, err := chart.WordFigure(req.View, freq.Ranked, req.MaxWords, wordHeading(labelName))
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrNoWords):
			result.Warning = domain.ErrNoWords.Error()
			return result, nil
		default:
			return WordViewResult{}, err
		}

		encoded, err := chart.Encode(fig)
		if err != nil {
			return WordViewResult{}, err
		}
		result.Figure = &encoded
		return result, nil
	})
}

func clampMaxWords(n int) int {
	if n <= 0 {
		return chart.DefaultMaxWords
	}
	return min(max(n, chart.MinMaxWords), chart.MaxMaxWords)
}

func wordHeading(label string) string {
	if label == "all" {
		return "Most frequent words in all comments"
	}
	return "Most frequent words in " + label + " comments"
}

// BrowseRequest selects one page of the comment browser.
type BrowseRequest struct {
	Filter  domain.CommentFilter
	Sort    domain.SortOrder
	Page    int
	PerPage int
}

// CommentRow is the browser representation of a tagged comment.
type CommentRow struct {
	Line        int                `json:"line"`
	ID          string             `json:"id,omitempty"`
	Author      string             `json:"author,omitempty"`
	Text        string             `json:"text"`
	Label       domain.Label       `json:"label"`
	Score       float64            `json:"score"`
	LabelSource domain.LabelSource `json:"label_source"`
	Likes       *int               `json:"likes,omitempty"`
	PostedAt    *time.Time         `json:"posted_at,omitempty"`
}

type BrowseResult struct {
	Items      []CommentRow     `json:"items"`
	Sort       domain.SortOrder `json:"sort"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	TotalItems int              `json:"total_items"`
	TotalPages int              `json:"total_pages"`
}

// BrowseComments returns one sorted page of the filtered comments. A page
// outside [1, TotalPages] fails with domain.ErrPageOutOfRange.
func (s *Service) BrowseComments(ctx context.Context, id uuid.UUID, req BrowseRequest) (BrowseResult, error) {
	if req.PerPage <= 0 {
		req.PerPage = DefaultPerPage
	}
	req.PerPage = min(req.PerPage, MaxPerPage)
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Sort == "" {
		req.Sort = domain.SortDefault
	}

	_, comments, err := s.filtered(ctx, id, req.Filter)
	if err != nil {
		return BrowseResult{}, err
	}

	page, err := analysis.Paginate(analysis.Sort(comments, req.Sort), req.Page, req.PerPage)
	if err != nil {
		return BrowseResult{}, err
	}

	rows := make([]CommentRow, len(page.Items))
	for i, c := range page.Items {
		rows[i] = CommentRow{
			Line:        c.Line,
			ID:          c.ID,
			Author:      c.Author,
			Text:        c.Text,
			Label:       c.Label,
			Score:       c.Score,
			LabelSource: c.LabelSource,
			Likes:       c.Likes,
			PostedAt:    c.PostedAt,
		}
	}

	return BrowseResult{
		Items:      rows,
		Sort:       req.Sort,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	}, nil
}

// ReportView describes how a dataset was imported.
type ReportView struct {
	Dataset domain.DatasetSummary      `json:"dataset"`
	Report  domain.ImportReport        `json:"report"`
	Sources map[domain.LabelSource]int `json:"label_sources"`
}

// Report returns the import report of a dataset and how its labels were assigned.
func (s *Service) Report(ctx context.Context, id uuid.UUID) (ReportView, error) {
	ds, err := s.datasets.Get(ctx, id)
	if err != nil {
		return ReportView{}, err
	}

	sources := make(map[domain.LabelSource]int)
	for _, c := range ds.Comments {
		sources[c.LabelSource]++
	}

	report := ds.Report
	if report.Rejected == nil {
		report.Rejected = []domain.RowError{}
	}
	return ReportView{Dataset: ds.Summary(), Report: report, Sources: sources}, nil
}

// filterKey encodes a filter canonically: label order and duplicates do
// not change the key.
func filterKey(f domain.CommentFilter) string {
	labels := make([]string, 0, len(f.Labels))
	for _, l := range f.Labels {
		labels = append(labels, string(l))
	}
	slices.Sort(labels)
	labels = slices.Compact(labels)

	var b strings.Builder
	b.WriteString("labels=")
	b.WriteString(strings.Join(labels, ","))
	b.WriteString(";min=")
	if f.MinLikes != nil {
		b.WriteString(strconv.Itoa(*f.MinLikes))
	}
	b.WriteString(";max=")
	if f.MaxLikes != nil {
		b.WriteString(strconv.Itoa(*f.MaxLikes))
	}
	b.WriteString(";since=")
	if f.Since != nil {
		b.WriteString(f.Since.Format(time.DateOnly))
	}
	b.WriteString(";until=")
	if f.Until != nil {
		b.WriteString(f.Until.Format(time.DateOnly))
	}
	return b.String()
}
