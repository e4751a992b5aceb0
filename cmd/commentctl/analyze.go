package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/nine420421/bilibili-sentiment-analysis/internal/analysis"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/ingest"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/sentiment"
	"github.com/spf13/cobra"
)

// maxListedRejects bounds the rejected rows printed by analyze.
const maxListedRejects = 20

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Print label distribution and mean score of a CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tagger, err := root.tagger()
			if err != nil {
				return err
			}
			comments, report, err := loadTagged(tagger, args[0], strict)
			if err != nil {
				return err
			}
			return printOverview(cmd.OutOrStdout(), analysis.Summarize(comments), report)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on the first malformed row")
	return cmd
}

func loadTagged(tagger *sentiment.Tagger, path string, strict bool) ([]domain.TaggedComment, domain.ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.ImportReport{}, err
	}
	defer func() { _ = f.Close() }()

	result, err := ingest.Load(f, ingest.Options{Strict: strict})
	if err != nil {
		return nil, domain.ImportReport{}, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return tagger.Tag(result.Comments), result.Report, nil
}

func printOverview(w io.Writer, o domain.Overview, report domain.ImportReport) error {
	tbl := newTextTable().alignRight(1, 2)
	tbl.addRow("comments", strconv.Itoa(o.Total))
	for _, stat := range o.Labels {
		tbl.addRow(string(stat.Label), strconv.Itoa(stat.Count), fmt.Sprintf("%.1f%%", stat.Ratio*100))
	}
	tbl.addRow("mean score", fmt.Sprintf("%.3f", o.MeanScore))
	tbl.addRow("rejected rows", strconv.Itoa(len(report.Rejected)))
	if err := tbl.render(w); err != nil {
		return err
	}

	for i, rej := range report.Rejected {
		if i == maxListedRejects {
			fmt.Fprintf(w, "... %d more\n", len(report.Rejected)-maxListedRejects)
			break
		}
		if rej.Column != "" {
			fmt.Fprintf(w, "  line %d (%s): %s\n", rej.Line, rej.Column, rej.Message)
		} else {
			fmt.Fprintf(w, "  line %d: %s\n", rej.Line, rej.Message)
		}
	}
	return nil
}
