package dataset

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/example/go-world-prep/internal/safetensors"
	"github.com/example/go-world-prep/internal/tensor"
	"github.com/example/go-world-prep/internal/text"
	"github.com/example/go-world-prep/internal/tokenizer"
)

// FeatureExt is the extension of the serialized feature arrays.
const FeatureExt = ".st"

// Example is one fully-loaded utterance: tokenized text plus the WORLD
// feature triplet, all time-major ([frames x channels]).
type Example struct {
	ItemID string
	Tokens []int64
	F0     *tensor.Tensor // [frames x 1]
	SP     *tensor.Tensor // [frames x freq_bins]
	AP     *tensor.Tensor // [frames x freq_bins]
}

// Loader resolves and loads the feature triplet for a record and tokenizes
// its text. A Loader is stateless per call and safe for concurrent use across
// distinct records.
type Loader struct {
	rootDir string
	clean   text.Cleaner
	tok     tokenizer.Tokenizer
	logger  *slog.Logger
}

// NewLoader creates a Loader rooted at rootDir. A nil logger uses slog.Default.
func NewLoader(rootDir string, clean text.Cleaner, tok tokenizer.Tokenizer, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	return &Loader{rootDir: rootDir, clean: clean, tok: tok, logger: logger}
}

// FeaturePaths returns the f0, sp and ap file paths for an item.
func (l *Loader) FeaturePaths(itemID string) (f0, sp, ap string) {
	base := filepath.Join(l.rootDir, itemID)
	return base + ".f0" + FeatureExt, base + ".sp" + FeatureExt, base + ".ap" + FeatureExt
}

// Load reads the feature triplet for rec and tokenizes its text. On-disk
// arrays are feature-major [channels x frames]; they are transposed here so
// the assembler always sees time on the leading axis.
func (l *Loader) Load(rec Record) (*Example, error) {
	f0Path, spPath, apPath := l.FeaturePaths(rec.ItemID)

	f0, err := loadFeature(f0Path)
	if err != nil {
		return nil, err
	}

	sp, err := loadFeature(spPath)
	if err != nil {
		return nil, err
	}

	ap, err := loadFeature(apPath)
	if err != nil {
		return nil, err
	}

	cleaned := rec.RawText
	if l.clean != nil {
		cleaned = l.clean(cleaned)
	}

	tokens, err := l.tok.Encode(cleaned)
	if err != nil {
		return nil, fmt.Errorf("dataset: tokenize item %s: %w", rec.ItemID, err)
	}

	return &Example{
		ItemID: rec.ItemID,
		Tokens: tokens,
		F0:     f0,
		SP:     sp,
		AP:     ap,
	}, nil
}

// LoadBatch loads every record it can and skips the rest. Each failure is
// logged with the item it belongs to; the returned slice holds only
// well-formed examples, so the assembler never sees an absent one.
func (l *Loader) LoadBatch(recs []Record) []*Example {
	out := make([]*Example, 0, len(recs))

	for _, rec := range recs {
		ex, err := l.Load(rec)
		if err != nil {
			l.logger.Warn("cannot load item, skipping", "item_id", rec.ItemID, "error", err)
			continue
		}

		out = append(out, ex)
	}

	return out
}

func loadFeature(path string) (*tensor.Tensor, error) {
	raw, err := safetensors.Load2D(path)
	if err != nil {
		return nil, err
	}

	t, err := tensor.New(raw.Data, raw.Shape)
	if err != nil {
		return nil, fmt.Errorf("dataset: feature %s: %w", path, err)
	}

	return t.Transpose2D()
}
