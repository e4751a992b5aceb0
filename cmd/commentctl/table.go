package main

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const columnGap = "  "

// textTable prints columns sized by terminal display width, so a CJK word
// occupies two cells per character and numbers still line up beneath it.
type textTable struct {
	headers []string
	rows    [][]string
	right   map[int]bool
}

func newTextTable(headers ...string) *textTable {
	return &textTable{headers: headers, right: make(map[int]bool)}
}

// alignRight right-aligns the given columns, typically counts.
func (t *textTable) alignRight(cols ...int) *textTable {
	for _, c := range cols {
		t.right[c] = true
	}
	return t
}

func (t *textTable) addRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *textTable) widths() []int {
	var widths []int
	grow := func(cells []string) {
		for i, cell := range cells {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	grow(t.headers)
	for _, row := range t.rows {
		grow(row)
	}
	return widths
}

func (t *textTable) render(w io.Writer) error {
	r := lipgloss.NewRenderer(w)
	widths := t.widths()

	var sb strings.Builder
	line := func(cells []string, base lipgloss.Style) {
		var b strings.Builder
		for i, cell := range cells {
			if i > 0 {
				b.WriteString(columnGap)
			}
			style := base.Width(widths[i])
			if t.right[i] {
				style = style.Align(lipgloss.Right)
			}
			b.WriteString(style.Render(cell))
		}
		sb.WriteString(strings.TrimRight(b.String(), " "))
		sb.WriteString("\n")
	}

	if len(t.headers) > 0 {
		line(t.headers, r.NewStyle().Bold(true))
	}
	for _, row := range t.rows {
		line(row, r.NewStyle())
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
