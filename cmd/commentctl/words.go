package main

import (
	"fmt"
	"strconv"

	"github.com/nine420421/bilibili-sentiment-analysis/internal/analysis"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
	"github.com/spf13/cobra"
)

func newWordsCmd(root *rootOptions) *cobra.Command {
	var (
		label string
		top   int
	)

	cmd := &cobra.Command{
		Use:   "words FILE",
		Short: "Print the most frequent words of a CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if top < 1 {
				return fmt.Errorf("--top must be positive, got %d", top)
			}

			var filter domain.CommentFilter
			if label != "" && label != "all" {
				l, err := domain.ParseLabel(label)
				if err != nil {
					return err
				}
				filter.Labels = []domain.Label{l}
			}

			tagger, err := root.tagger()
			if err != nil {
				return err
			}
			comments, _, err := loadTagged(tagger, args[0], false)
			if err != nil {
				return err
			}

			freq := analysis.Words(analysis.Apply(comments, filter), tagger.Lexicon())
			if len(freq.Ranked) == 0 {
				return domain.ErrNoWords
			}

			tbl := newTextTable("#", "word", "count").alignRight(0, 2)
			for i, wc := range freq.Top(top) {
				tbl.addRow(strconv.Itoa(i+1), wc.Word, strconv.Itoa(wc.Count))
			}
			tbl.addRow("", fmt.Sprintf("%d distinct", freq.DistinctWords), fmt.Sprintf("%d total", freq.TotalWords))
			return tbl.render(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&label, "label", "all", "restrict to positive, negative or neutral comments")
	cmd.Flags().IntVar(&top, "top", 25, "number of words to print")
	return cmd
}
