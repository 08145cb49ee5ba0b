package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/example/go-world-prep/internal/audio"
	"github.com/example/go-world-prep/internal/config"
	"github.com/example/go-world-prep/internal/dataset"
	"github.com/spf13/cobra"
)

// frameTolerance is the allowed disagreement, in frames, between a feature
// file's frame count and the count implied by the companion recording.
const frameTolerance = 3

type doctorReport struct {
	Checked          int
	Missing          int
	Broken           int
	DurationMismatch int
	WavChecked       int
}

func newDoctorCmd() *cobra.Command {
	var limit int
	var strict bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check feature files against the manifest and companion recordings",
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

			report := runDoctor(cfg, ix, loader, limit, os.Stdout)

			out := os.Stdout
			_, _ = fmt.Fprintf(out, "checked:           %d\n", report.Checked)
			_, _ = fmt.Fprintf(out, "missing/unreadable: %d\n", report.Missing)
			_, _ = fmt.Fprintf(out, "broken shapes:     %d\n", report.Broken)
			_, _ = fmt.Fprintf(out, "duration mismatch: %d (of %d with recordings)\n", report.DurationMismatch, report.WavChecked)

			if strict && (report.Missing > 0 || report.Broken > 0 || report.DurationMismatch > 0) {
				return fmt.Errorf("doctor found %d problems", report.Missing+report.Broken+report.DurationMismatch)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Check at most this many records (0 = all)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any check fails")

	return cmd
}

func runDoctor(cfg config.Config, ix *dataset.Index, loader *dataset.Loader, limit int, out io.Writer) doctorReport {
	params := audio.Params{
		SampleRate:    cfg.Audio.SampleRate,
		NumMels:       cfg.Audio.NumMels,
		MinLevelDB:    cfg.Audio.MinLevelDB,
		FrameShiftMS:  cfg.Audio.FrameShiftMS,
		FrameLengthMS: cfg.Audio.FrameLengthMS,
		Preemphasis:   cfg.Audio.Preemphasis,
		RefLevelDB:    cfg.Audio.RefLevelDB,
		NumFreq:       cfg.Audio.NumFreq,
		Power:         cfg.Audio.Power,
	}
	wavCheck := params.Validate() == nil

	n := ix.Len()
	if limit > 0 && limit < n {
		n = limit
	}

	var report doctorReport

	for i := 0; i < n; i++ {
		rec := ix.Record(i)
		report.Checked++

		ex, err := loader.Load(rec)
		if err != nil {
			report.Missing++
			_, _ = fmt.Fprintf(out, "missing %s: %v\n", rec.ItemID, err)
			continue
		}

		spShape := ex.SP.Shape()
		apShape := ex.AP.Shape()
		if spShape[0] != apShape[0] || spShape[1] != apShape[1] {
			report.Broken++
			_, _ = fmt.Fprintf(out, "broken %s: sp %v vs ap %v\n", rec.ItemID, spShape, apShape)
			continue
		}

		if !wavCheck {
			continue
		}

		wavPath := filepath.Join(ix.RootDir(), rec.ItemID+".wav")
		data, err := os.ReadFile(wavPath)
		if err != nil {
			// Recordings are optional; only the feature triplet is required.
			continue
		}

		samples, err := audio.DecodeWAV(data, params.SampleRate)
		if err != nil {
			report.Broken++
			_, _ = fmt.Fprintf(out, "broken %s: %v\n", rec.ItemID, err)
			continue
		}

		report.WavChecked++

		expected := params.ExpectedFrames(len(samples))
		got := int(spShape[0])
		if got < expected-frameTolerance || got > expected+frameTolerance {
			report.DurationMismatch++
			_, _ = fmt.Fprintf(out, "duration %s: %d frames, recording implies %d\n", rec.ItemID, got, expected)
		}
	}

	return report
}
