// Package tokenizer turns cleaned utterance text into integer token ids.
// Id 0 is reserved for padding in every implementation; the batch assembler
// relies on that when it right-pads token rows with zeros.
package tokenizer

// Tokenizer encodes text into token IDs.
type Tokenizer interface {
	// Encode tokenizes text and returns token IDs. Valid ids are never 0.
	Encode(text string) ([]int64, error)
}
