package tokenizer

// symbols is the default character inventory: padding at index 0, then
// punctuation, space, and the lowercase letters the cleaner profiles emit.
// A rune's token id is its index in this string.
const symbols = "_-!'(),.:;? abcdefghijklmnopqrstuvwxyz"

// SymbolTokenizer maps each rune to its fixed symbol-table id. Runes outside
// the table are skipped.
type SymbolTokenizer struct {
	ids map[rune]int64
}

// NewSymbolTokenizer builds the default symbol-table tokenizer.
func NewSymbolTokenizer() *SymbolTokenizer {
	ids := make(map[rune]int64, len(symbols))
	for i, r := range symbols {
		ids[r] = int64(i)
	}

	return &SymbolTokenizer{ids: ids}
}

// Encode maps each known rune to its symbol id. The padding symbol at id 0 is
// never produced for input text.
func (t *SymbolTokenizer) Encode(text string) ([]int64, error) {
	out := make([]int64, 0, len(text))
	for _, r := range text {
		id, ok := t.ids[r]
		if !ok || id == 0 {
			continue
		}

		out = append(out, id)
	}

	return out, nil
}
