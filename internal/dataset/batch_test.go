package dataset

import (
	"errors"
	"testing"

	"github.com/example/go-world-prep/internal/tensor"
)

// newExample builds an in-memory example with the given token and frame
// counts. Feature values are deterministic so assembled batches can be
// compared bit for bit.
func newExample(t *testing.T, id string, numTokens int, frames, bins int64) *Example {
	t.Helper()

	tokens := make([]int64, numTokens)
	for i := range tokens {
		tokens[i] = int64(i + 1)
	}

	f0Data := make([]float32, frames)
	for i := range f0Data {
		f0Data[i] = float32(200 + i)
	}
	f0, err := tensor.New(f0Data, []int64{frames, 1})
	if err != nil {
		t.Fatalf("f0: %v", err)
	}

	spData := make([]float32, frames*bins)
	for i := range spData {
		spData[i] = float32(i + 1)
	}
	sp, err := tensor.New(spData, []int64{frames, bins})
	if err != nil {
		t.Fatalf("sp: %v", err)
	}

	apData := make([]float32, frames*bins)
	for i := range apData {
		apData[i] = float32(i+1) / 4
	}
	ap, err := tensor.New(apData, []int64{frames, bins})
	if err != nil {
		t.Fatalf("ap: %v", err)
	}

	return &Example{ItemID: id, Tokens: tokens, F0: f0, SP: sp, AP: ap}
}

func TestAssembleReductionFactorAlignment(t *testing.T) {
	// Frame counts 40 and 57 with r=5: frame_len = {41, 58},
	// max(frame_len) = 58, aligned up to 60.
	a := Assembler{OutputsPerStep: 5}

	batch, err := a.Assemble([]*Example{
		newExample(t, "short", 3, 40, 4),
		newExample(t, "long", 5, 57, 4),
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	if got := batch.SP.Shape(); got[0] != 2 || got[1] != 60 || got[2] != 4 {
		t.Fatalf("sp shape = %v, want [2 60 4]", got)
	}
	if got := batch.AP.Shape(); got[1] != 60 {
		t.Fatalf("ap time axis = %d, want 60", got[1])
	}
	if got := batch.F0.Shape(); got[0] != 2 || got[1] != 60 {
		t.Fatalf("f0 shape = %v, want [2 60]", got)
	}
	if got := batch.StopTargets.Shape(); got[1] != 60 {
		t.Fatalf("stop target width = %d, want 60", got[1])
	}
	if batch.SP.Shape()[1]%5 != 0 {
		t.Fatal("time axis is not a multiple of outputs_per_step")
	}

	// Stop targets: zero before an example's end, one from frame_len-1 on.
	for j := int64(0); j < 60; j++ {
		v, err := batch.StopTargets.At(0, j)
		if err != nil {
			t.Fatalf("stop at: %v", err)
		}
		want := float32(0)
		if j >= 40 {
			want = 1
		}
		if v != want {
			t.Fatalf("stop[0][%d] = %v, want %v", j, v, want)
		}
	}
	for j := int64(0); j < 60; j++ {
		v, _ := batch.StopTargets.At(1, j)
		want := float32(0)
		if j >= 57 {
			want = 1
		}
		if v != want {
			t.Fatalf("stop[1][%d] = %v, want %v", j, v, want)
		}
	}

	if got := batch.FrameLengths.Data(); got[0] != 41 || got[1] != 58 {
		t.Fatalf("frame lengths = %v, want [41 58]", got)
	}
}

func TestAssembleTokenPadding(t *testing.T) {
	a := Assembler{OutputsPerStep: 1}

	batch, err := a.Assemble([]*Example{
		newExample(t, "a", 2, 10, 3),
		newExample(t, "b", 5, 12, 3),
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	if got := batch.Tokens.Shape(); got[0] != 2 || got[1] != 5 {
		t.Fatalf("tokens shape = %v, want [2 5]", got)
	}
	if got := batch.TokenLengths.Data(); got[0] != 2 || got[1] != 5 {
		t.Fatalf("token lengths = %v, want [2 5]", got)
	}

	// Positions beyond each row's true length hold the pad id 0.
	for j := int64(0); j < 5; j++ {
		v, err := batch.Tokens.At(0, j)
		if err != nil {
			t.Fatalf("tokens at: %v", err)
		}
		if j < 2 && v == 0 {
			t.Fatalf("tokens[0][%d] = 0 inside the true length", j)
		}
		if j >= 2 && v != 0 {
			t.Fatalf("tokens[0][%d] = %d, want pad 0", j, v)
		}
	}
}

func TestAssembleFramePaddingIsZero(t *testing.T) {
	a := Assembler{OutputsPerStep: 4}

	batch, err := a.Assemble([]*Example{
		newExample(t, "a", 2, 5, 2),
		newExample(t, "b", 2, 9, 2),
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	timeSteps := batch.SP.Shape()[1]
	// frame_len = {6, 10}; max frame_len 10 aligned to 12.
	if timeSteps != 12 {
		t.Fatalf("time axis = %d, want 12", timeSteps)
	}

	for j := int64(5); j < timeSteps; j++ {
		for d := int64(0); d < 2; d++ {
			if v, _ := batch.SP.At(0, j, d); v != 0 {
				t.Fatalf("sp[0][%d][%d] = %v, want padded 0", j, d, v)
			}
			if v, _ := batch.AP.At(0, j, d); v != 0 {
				t.Fatalf("ap[0][%d][%d] = %v, want padded 0", j, d, v)
			}
		}
		if v, _ := batch.F0.At(0, j); v != 0 {
			t.Fatalf("f0[0][%d] = %v, want padded 0", j, v)
		}
	}

	// True frames survive padding untouched.
	if v, _ := batch.SP.At(0, 0, 0); v != 1 {
		t.Fatalf("sp[0][0][0] = %v, want 1", v)
	}
	if v, _ := batch.F0.At(0, 4); v != 204 {
		t.Fatalf("f0[0][4] = %v, want 204", v)
	}
}

func TestAssembleReservedFrameSurvivesAlignedFrameCount(t *testing.T) {
	// Frame count 55 with r=5: frame_len 56, aligned up to 60. The reserved
	// zero end frame must stay inside the time axis, so a mask built from
	// frame_lengths never indexes past the tensor.
	a := Assembler{OutputsPerStep: 5}

	batch, err := a.Assemble([]*Example{newExample(t, "a", 2, 55, 2)})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	timeSteps := batch.StopTargets.Shape()[1]
	if timeSteps != 60 {
		t.Fatalf("stop width = %d, want 60", timeSteps)
	}

	frameLen := batch.FrameLengths.Data()[0]
	if frameLen != 56 {
		t.Fatalf("frame length = %d, want 56", frameLen)
	}
	if frameLen > timeSteps {
		t.Fatalf("frame length %d exceeds time axis %d", frameLen, timeSteps)
	}

	for j := int64(0); j < timeSteps; j++ {
		v, _ := batch.StopTargets.At(0, j)
		want := float32(0)
		if j >= frameLen-1 {
			want = 1
		}
		if v != want {
			t.Fatalf("stop[0][%d] = %v, want %v", j, v, want)
		}
	}

	// The reserved end frame and the alignment padding are all zero.
	for j := int64(55); j < timeSteps; j++ {
		for d := int64(0); d < 2; d++ {
			if v, _ := batch.SP.At(0, j, d); v != 0 {
				t.Fatalf("sp[0][%d][%d] = %v, want 0", j, d, v)
			}
		}
	}
}

func TestAssemblePitchLengthMayDiffer(t *testing.T) {
	a := Assembler{OutputsPerStep: 2}

	ex := newExample(t, "a", 2, 8, 2)

	// Pitch track one frame longer than sp/ap.
	f0Data := make([]float32, 9)
	for i := range f0Data {
		f0Data[i] = float32(i + 1)
	}
	f0, err := tensor.New(f0Data, []int64{9, 1})
	if err != nil {
		t.Fatalf("f0: %v", err)
	}
	ex.F0 = f0

	batch, err := a.Assemble([]*Example{ex})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	// frame_len 9, aligned to 10: the extra pitch frame rides along and the
	// remainder of the shared timeline is zero.
	if got := batch.F0.Shape()[1]; got != 10 {
		t.Fatalf("f0 width = %d, want 10", got)
	}
	if v, _ := batch.F0.At(0, 8); v != 9 {
		t.Fatalf("f0[0][8] = %v, want 9", v)
	}
	if v, _ := batch.F0.At(0, 9); v != 0 {
		t.Fatalf("f0[0][9] = %v, want padded 0", v)
	}
}

func TestAssembleEmptyBatchIsFatal(t *testing.T) {
	a := Assembler{OutputsPerStep: 5}

	if _, err := a.Assemble(nil); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("err = %v, want ErrEmptyBatch", err)
	}
	if _, err := a.Assemble([]*Example{}); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("err = %v, want ErrEmptyBatch", err)
	}
}

func TestAssembleShapeMismatchIsFatal(t *testing.T) {
	a := Assembler{OutputsPerStep: 5}

	ex := newExample(t, "bad", 2, 55, 3)

	// ap with 57 frames against sp's 55.
	apData := make([]float32, 57*3)
	ap, err := tensor.New(apData, []int64{57, 3})
	if err != nil {
		t.Fatalf("ap: %v", err)
	}
	ex.AP = ap

	if _, err := a.Assemble([]*Example{ex}); err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

func TestAssembleMalformedExampleIsFatal(t *testing.T) {
	a := Assembler{OutputsPerStep: 5}

	if _, err := a.Assemble([]*Example{nil}); err == nil {
		t.Fatal("expected error for nil example")
	}

	ex := newExample(t, "nofeat", 2, 4, 2)
	ex.SP = nil
	if _, err := a.Assemble([]*Example{ex}); err == nil {
		t.Fatal("expected error for missing feature stream")
	}
}

func TestAssembleInvalidReductionFactor(t *testing.T) {
	a := Assembler{OutputsPerStep: 0}

	if _, err := a.Assemble([]*Example{newExample(t, "a", 2, 4, 2)}); err == nil {
		t.Fatal("expected error for non-positive outputs_per_step")
	}
}

func TestAssembleRepresentativeID(t *testing.T) {
	a := Assembler{OutputsPerStep: 2}

	batch, err := a.Assemble([]*Example{
		newExample(t, "first", 2, 4, 2),
		newExample(t, "second", 2, 6, 2),
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	if batch.RepresentativeID != "first" {
		t.Fatalf("RepresentativeID = %q, want first", batch.RepresentativeID)
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	a := Assembler{OutputsPerStep: 3}

	examples := []*Example{
		newExample(t, "a", 3, 7, 2),
		newExample(t, "b", 6, 11, 2),
	}

	first, err := a.Assemble(examples)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	second, err := a.Assemble(examples)
	if err != nil {
		t.Fatalf("assemble again: %v", err)
	}

	fd, sd := first.SP.Data(), second.SP.Data()
	for i := range fd {
		if fd[i] != sd[i] {
			t.Fatal("sp data differs between runs")
		}
	}
	ft, st := first.StopTargets.Data(), second.StopTargets.Data()
	for i := range ft {
		if ft[i] != st[i] {
			t.Fatal("stop targets differ between runs")
		}
	}
	f, s := first.Tokens.Data(), second.Tokens.Data()
	for i := range f {
		if f[i] != s[i] {
			t.Fatal("tokens differ between runs")
		}
	}
}

func TestAssembleLengthVectorsMatchBatchSize(t *testing.T) {
	a := Assembler{OutputsPerStep: 2}

	examples := []*Example{
		newExample(t, "a", 1, 4, 2),
		newExample(t, "b", 2, 6, 2),
		newExample(t, "c", 3, 8, 2),
	}

	batch, err := a.Assemble(examples)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	if got := batch.TokenLengths.Shape()[0]; got != 3 {
		t.Errorf("token lengths size = %d, want 3", got)
	}
	if got := batch.FrameLengths.Shape()[0]; got != 3 {
		t.Errorf("frame lengths size = %d, want 3", got)
	}
}
