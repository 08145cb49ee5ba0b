package main

import (
	"fmt"

	"github.com/example/go-world-prep/internal/config"
	"github.com/example/go-world-prep/internal/dataset"
	"github.com/example/go-world-prep/internal/text"
	"github.com/example/go-world-prep/internal/tokenizer"
)

// buildIndex constructs the corpus index from the active configuration.
func buildIndex(cfg config.Config) (*dataset.Index, error) {
	return dataset.NewIndex(cfg.Dataset.CSVFile, cfg.Dataset.RootDir, dataset.IndexOptions{
		MinSeqLen: cfg.Dataset.MinSeqLen,
	})
}

// buildLoader wires the configured cleaner profile and tokenizer into an
// example loader.
func buildLoader(cfg config.Config) (*dataset.Loader, error) {
	clean, err := text.ForProfile(cfg.Text.Cleaner)
	if err != nil {
		return nil, err
	}

	var tok tokenizer.Tokenizer
	if cfg.Text.SentencePieceModel != "" {
		tok, err = tokenizer.NewSentencePieceTokenizer(cfg.Text.SentencePieceModel)
		if err != nil {
			return nil, fmt.Errorf("build tokenizer: %w", err)
		}
	} else {
		tok = tokenizer.NewSymbolTokenizer()
	}

	return dataset.NewLoader(cfg.Dataset.RootDir, clean, tok, nil), nil
}
