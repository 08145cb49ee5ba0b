package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Build the corpus index and report length statistics",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			ix, err := buildIndex(cfg)
			if err != nil {
				return err
			}

			stats := ix.Stats()
			out := os.Stdout
			_, _ = fmt.Fprintf(out, "manifest:     %s\n", cfg.Dataset.CSVFile)
			_, _ = fmt.Fprintf(out, "root dir:     %s\n", ix.RootDir())
			_, _ = fmt.Fprintf(out, "instances:    %d\n", stats.Total)
			_, _ = fmt.Fprintf(out, "retained:     %d\n", ix.Len())
			_, _ = fmt.Fprintf(out, "ignored:      %d (min_seq_len %d)\n", stats.Ignored, cfg.Dataset.MinSeqLen)
			_, _ = fmt.Fprintf(out, "max length:   %d\n", stats.MaxLen)
			_, _ = fmt.Fprintf(out, "min length:   %d\n", stats.MinLen)
			_, _ = fmt.Fprintf(out, "mean length:  %.2f\n", stats.MeanLen)

			return nil
		},
	}

	return cmd
}
