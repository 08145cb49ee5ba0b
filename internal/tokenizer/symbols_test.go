package tokenizer

import "testing"

func TestSymbolTokenizerEncode(t *testing.T) {
	tok := NewSymbolTokenizer()

	ids, err := tok.Encode("ab c")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// 'a' is the first letter after "_-!'(),.:;? " (12 symbols).
	want := []int64{12, 13, 11, 14}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range ids {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestSymbolTokenizerNeverEmitsPadID(t *testing.T) {
	tok := NewSymbolTokenizer()

	ids, err := tok.Encode("_hello_world_ 123 ÄÖÜ")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, id := range ids {
		if id == 0 {
			t.Fatal("pad id 0 emitted for input text")
		}
	}
}

func TestSymbolTokenizerSkipsUnknownRunes(t *testing.T) {
	tok := NewSymbolTokenizer()

	ids, err := tok.Encode("№¶§")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("ids = %v, want empty", ids)
	}
}

func TestNewSentencePieceTokenizerEmptyPath(t *testing.T) {
	if _, err := NewSentencePieceTokenizer(""); err != ErrEmptyPath {
		t.Fatalf("err = %v, want ErrEmptyPath", err)
	}
}
