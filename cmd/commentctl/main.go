// Command commentctl analyzes comment exports from the terminal and loads
// them into the dashboard database.
package main

import (
	"fmt"
	"os"

	"github.com/nine420421/bilibili-sentiment-analysis/internal/platform/version"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/sentiment"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	lexiconPath string
	positive    float64
	negative    float64
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "commentctl",
		Short:         "Sentiment analysis for exported video comments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.lexiconPath, "lexicon", "", "YAML lexicon replacing the built-in one")
	root.PersistentFlags().Float64Var(&opts.positive, "positive-threshold", sentiment.DefaultPositiveThreshold, "scores at or above are positive")
	root.PersistentFlags().Float64Var(&opts.negative, "negative-threshold", sentiment.DefaultNegativeThreshold, "scores at or below are negative")

	root.AddCommand(newAnalyzeCmd(opts))
	root.AddCommand(newWordsCmd(opts))
	root.AddCommand(newImportCmd(opts))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	})
	return root
}

func (o *rootOptions) tagger() (*sentiment.Tagger, error) {
	lexicon := sentiment.DefaultLexicon()
	if o.lexiconPath != "" {
		var err error
		if lexicon, err = sentiment.LoadLexicon(o.lexiconPath); err != nil {
			return nil, err
		}
	}
	return sentiment.NewTagger(lexicon, sentiment.Thresholds{Positive: o.positive, Negative: o.negative})
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
