// Package ingest loads comment exports into domain comments.
//
// Loading never silently drops data: every data row ends up either as a
// Comment or as a RowError in the import report.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
)

// ErrTooManyRows is returned when the input exceeds Options.MaxRows.
var ErrTooManyRows = errors.New("input exceeds the row limit")

// Options tunes a load.
type Options struct {
	// Strict fails the whole load on the first malformed row.
	Strict bool
	// MaxRows caps the number of data rows; zero means unlimited.
	MaxRows int
	// Location is used for timestamps without a zone; defaults to UTC.
	Location *time.Location
}

// Result is the outcome of a successful load.
type Result struct {
	Comments []domain.Comment
	Report   domain.ImportReport
}

// MalformedRowError is returned in strict mode for the first rejected row.
type MalformedRowError struct {
	Row domain.RowError
}

func (e *MalformedRowError) Error() string {
	if e.Row.Column != "" {
		return fmt.Sprintf("line %d: %s: %s", e.Row.Line, e.Row.Column, e.Row.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Row.Line, e.Row.Message)
}

// Load parses a CSV export. Structural problems (empty input, unusable
// header, I/O failure, row cap) fail the load; per-row problems are
// reported in Result.Report.Rejected unless opts.Strict is set.
func Load(r io.Reader, opts Options) (*Result, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := mapHeader(header)
	if !cols.has(ColumnText) && !cols.has(ColumnWords) {
		return nil, domain.ErrMissingColumns
	}

	result := &Result{
		Report: domain.ImportReport{
			Columns:  cols.names(),
			Rejected: []domain.RowError{},
		},
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		result.Report.TotalRows++
		if opts.MaxRows > 0 && result.Report.TotalRows > opts.MaxRows {
			return nil, fmt.Errorf("%w of %d", ErrTooManyRows, opts.MaxRows)
		}

		var rowErr *domain.RowError
		var comment domain.Comment
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, fmt.Errorf("failed to read input: %w", err)
			}
			rowErr = &domain.RowError{Line: parseErr.StartLine, Message: parseErr.Err.Error()}
		} else {
			line, _ := reader.FieldPos(0)
			comment, rowErr = parseRecord(record, cols, line, loc)
		}

		if rowErr != nil {
			if opts.Strict {
				return nil, &MalformedRowError{Row: *rowErr}
			}
			result.Report.Rejected = append(result.Report.Rejected, *rowErr)
			continue
		}

		result.Comments = append(result.Comments, comment)
	}

	result.Report.Accepted = len(result.Comments)
	return result, nil
}

func parseRecord(record []string, cols columnIndex, line int, loc *time.Location) (domain.Comment, *domain.RowError) {
	reject := func(column, format string, args ...any) (domain.Comment, *domain.RowError) {
		return domain.Comment{}, &domain.RowError{Line: line, Column: column, Message: fmt.Sprintf(format, args...)}
	}

	if column, bad := cols.firstInvalidUTF8(record); bad {
		return reject(column, "cell is not valid UTF-8, re-save the export as UTF-8")
	}

	c := domain.Comment{
		Line:   line,
		ID:     cols.cell(record, ColumnID),
		Author: cols.cell(record, ColumnAuthor),
		Text:   cols.cell(record, ColumnText),
		Words:  ParseSegmented(cols.cell(record, ColumnWords)),
	}

	if c.Text == "" && len(c.Words) == 0 {
		return reject("", "row has neither text nor segmented words")
	}

	if raw := cols.cell(record, ColumnLabel); raw != "" {
		label, err := domain.ParseLabel(raw)
		if err != nil {
			return reject(ColumnLabel, "unknown label %q", raw)
		}
		c.RawLabel = &label
	}

	if raw := cols.cell(record, ColumnScore); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return reject(ColumnScore, "score %q is not a number", raw)
		}
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return reject(ColumnScore, "score %q is not a finite number", raw)
		}
		if score < 0 || score > 1 {
			return reject(ColumnScore, "score %v is outside [0, 1]", score)
		}
		c.Score = &score
	}

	if raw := cols.cell(record, ColumnLikes); raw != "" {
		likes, err := parseLikes(raw)
		if err != nil {
			return reject(ColumnLikes, "%v", err)
		}
		c.Likes = &likes
	}

	if raw := cols.cell(record, ColumnTime); raw != "" {
		t, err := ParseTime(raw, loc)
		if err != nil {
			return reject(ColumnTime, "%v", err)
		}
		c.PostedAt = &t
	}

	return c, nil
}

const maxLikes = 1 << 53

// parseLikes accepts integers and integral floats ("12.0"), which spreadsheet
// round trips commonly produce.
func parseLikes(raw string) (int, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("like count %d is negative", n)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.Abs(f) > maxLikes || f != math.Trunc(f) {
		return 0, fmt.Errorf("like count %q is not an integer", raw)
	}
	if f < 0 {
		return 0, fmt.Errorf("like count %q is negative", raw)
	}
	return int(f), nil
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02",
	"2006/01/02",
}

// ParseTime accepts the timestamp layouts seen in comment exports, plus unix seconds.
func ParseTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).In(loc), nil
	}
	return time.Time{}, fmt.Errorf("timestamp %q has an unsupported format", raw)
}
