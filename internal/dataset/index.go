// Package dataset implements the corpus index, the example loader and the
// batch assembler for WORLD-feature sequence-to-sequence training data.
package dataset

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"unicode/utf8"
)

// Record is one manifest entry: an item identifier and the raw utterance text.
type Record struct {
	ItemID  string
	RawText string
}

// Stats describes the corpus before min_seq_len filtering.
type Stats struct {
	Total   int
	Ignored int
	MaxLen  int
	MinLen  int
	MeanLen float64
}

// IndexOptions configures corpus construction.
type IndexOptions struct {
	// MinSeqLen drops records whose raw text is shorter than this many
	// characters. Zero keeps everything.
	MinSeqLen int
	// Logger receives the construction statistics. Nil uses slog.Default.
	Logger *slog.Logger
}

// Index is the corpus index: manifest records sorted ascending by raw-text
// length. It is immutable after construction and safe for concurrent reads.
type Index struct {
	rootDir string
	records []Record
	stats   Stats
}

// NewIndex parses the pipe-delimited manifest at csvPath and builds the
// sorted, filtered corpus index. Any line without a '|' separator fails the
// whole construction; there is no partial index.
func NewIndex(csvPath, rootDir string, opts IndexOptions) (*Index, error) {
	if opts.MinSeqLen < 0 {
		return nil, fmt.Errorf("dataset: min_seq_len must not be negative, got %d", opts.MinSeqLen)
	}

	raw, err := os.ReadFile(csvPath)
	if err != nil {
		return nil, fmt.Errorf("dataset: read manifest %s: %w", csvPath, err)
	}

	records, err := parseManifest(string(raw))
	if err != nil {
		return nil, fmt.Errorf("dataset: manifest %s: %w", csvPath, err)
	}

	sorted, stats := sortAndFilter(records, opts.MinSeqLen)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("corpus index constructed",
		"root_dir", rootDir,
		"instances", stats.Total,
		"max_len", stats.MaxLen,
		"min_len", stats.MinLen,
		"mean_len", stats.MeanLen,
		"ignored", stats.Ignored,
		"min_seq_len", opts.MinSeqLen,
	)

	return &Index{rootDir: rootDir, records: sorted, stats: stats}, nil
}

// Len returns the number of retained records.
func (ix *Index) Len() int {
	return len(ix.records)
}

// Record returns the i-th retained record in ascending-length order.
func (ix *Index) Record(i int) Record {
	return ix.records[i]
}

// RootDir returns the feature-file root the index was constructed with.
func (ix *Index) RootDir() string {
	return ix.rootDir
}

// Stats returns the length statistics of the corpus before filtering.
func (ix *Index) Stats() Stats {
	return ix.stats
}

func parseManifest(raw string) ([]Record, error) {
	lines := strings.Split(raw, "\n")
	records := make([]Record, 0, len(lines))

	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		fields := strings.Split(line, "|")
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: no '|' separator in %q", i+1, line)
		}

		// Fields beyond the second are ignored.
		records = append(records, Record{ItemID: fields[0], RawText: fields[1]})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no records")
	}

	return records, nil
}

// sortAndFilter orders records ascending by raw-text length, dropping those
// below minSeqLen. Statistics cover the original records. The ascending order
// lets a length-bucketing sampler keep pad overhead low; it is a hint, not a
// correctness requirement.
func sortAndFilter(records []Record, minSeqLen int) ([]Record, Stats) {
	lengths := make([]int, len(records))
	for i, rec := range records {
		lengths[i] = utf8.RuneCountInString(rec.RawText)
	}

	stats := Stats{Total: len(records), MaxLen: lengths[0], MinLen: lengths[0]}

	sum := 0
	for _, l := range lengths {
		sum += l
		if l > stats.MaxLen {
			stats.MaxLen = l
		}
		if l < stats.MinLen {
			stats.MinLen = l
		}
	}
	stats.MeanLen = float64(sum) / float64(len(records))

	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return lengths[order[a]] < lengths[order[b]]
	})

	kept := make([]Record, 0, len(records))
	for _, idx := range order {
		if lengths[idx] < minSeqLen {
			stats.Ignored++
			continue
		}

		kept = append(kept, records[idx])
	}

	return kept, stats
}
