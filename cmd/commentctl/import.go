package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/adapter/postgres"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/adapter/redis"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/app"
	"github.com/spf13/cobra"
)

func newImportCmd(root *rootOptions) *cobra.Command {
	var (
		databaseURL string
		name        string
		strict      bool
		maxRows     int
	)

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Tag a CSV export and store it as a dashboard dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}
			if databaseURL == "" {
				return errors.New("--database-url or DATABASE_URL is required")
			}

			tagger, err := root.tagger()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			pool, err := postgres.Connect(ctx, databaseURL, nil)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			if name == "" {
				base := filepath.Base(args[0])
				name = strings.TrimSuffix(base, filepath.Ext(base))
			}

			clock := clockwork.NewRealClock()
			cache := redis.NewAggregateCache(nil, time.Minute, time.Minute, clock, nil)
			svc := app.NewService(postgres.NewDatasetRepo(pool), cache, tagger, nil, clock, maxRows)

			dataset, err := svc.ImportDataset(ctx, app.ImportRequest{Name: name, Reader: f, Strict: strict})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imported %q as %s\n", dataset.Name, dataset.ID)
			fmt.Fprintf(out, "%d comments, %d rejected rows\n", len(dataset.Comments), len(dataset.Report.Rejected))
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres URL (defaults to DATABASE_URL)")
	cmd.Flags().StringVar(&name, "name", "", "dataset name (defaults to the file name)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on the first malformed row")
	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "reject files with more data rows; zero means unlimited")
	return cmd
}
