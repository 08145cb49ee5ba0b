package main

import (
	"fmt"
	"os"

	"github.com/example/go-world-prep/internal/dataset"
	"github.com/spf13/cobra"
)

func newBatchCmd() *cobra.Command {
	var offset int
	var count int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Assemble one batch and report its tensor shapes",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			ix, err := buildIndex(cfg)
			if err != nil {
				return err
			}

			loader, err := buildLoader(cfg)
			if err != nil {
				return err
			}

			if count <= 0 {
				count = cfg.Batch.Size
			}
			if offset < 0 || offset >= ix.Len() {
				return fmt.Errorf("offset %d outside corpus of %d records", offset, ix.Len())
			}

			end := offset + count
			if end > ix.Len() {
				end = ix.Len()
			}

			recs := make([]dataset.Record, 0, end-offset)
			for i := offset; i < end; i++ {
				recs = append(recs, ix.Record(i))
			}

			examples := loader.LoadBatch(recs)
			if len(examples) == 0 {
				return fmt.Errorf("no loadable examples in records [%d:%d]", offset, end)
			}

			assembler := dataset.Assembler{OutputsPerStep: cfg.Batch.OutputsPerStep}
			batch, err := assembler.Assemble(examples)
			if err != nil {
				return err
			}

			out := os.Stdout
			_, _ = fmt.Fprintf(out, "representative: %s\n", batch.RepresentativeID)
			_, _ = fmt.Fprintf(out, "examples:       %d (of %d requested)\n", len(examples), end-offset)
			_, _ = fmt.Fprintf(out, "tokens:         %v\n", batch.Tokens.Shape())
			_, _ = fmt.Fprintf(out, "token lengths:  %v\n", batch.TokenLengths.Data())
			_, _ = fmt.Fprintf(out, "sp:             %v\n", batch.SP.Shape())
			_, _ = fmt.Fprintf(out, "ap:             %v\n", batch.AP.Shape())
			_, _ = fmt.Fprintf(out, "f0:             %v\n", batch.F0.Shape())
			_, _ = fmt.Fprintf(out, "frame lengths:  %v\n", batch.FrameLengths.Data())
			_, _ = fmt.Fprintf(out, "stop targets:   %v\n", batch.StopTargets.Shape())

			return nil
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "Index of the first record to load")
	cmd.Flags().IntVar(&count, "count", 0, "Records to load (default batch.size)")

	return cmd
}
