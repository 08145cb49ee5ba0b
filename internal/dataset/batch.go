package dataset

import (
	"errors"
	"fmt"

	"github.com/example/go-world-prep/internal/tensor"
)

// ErrEmptyBatch is returned when Assemble is called with no examples.
var ErrEmptyBatch = errors.New("dataset: batch input is empty")

// Assembler aligns a mini-batch of variable-length examples into fixed-shape
// tensors. OutputsPerStep is the decoder reduction factor r: every frame axis
// in the output is padded to a multiple of it.
type Assembler struct {
	OutputsPerStep int
}

// Batch is one assembled training batch. It is created fresh per training
// step and not retained.
type Batch struct {
	Tokens           *tensor.Long   // [B x T_text_max], zero-padded
	TokenLengths     *tensor.Long   // [B], original token counts
	SP               *tensor.Tensor // [B x T x freq_bins]
	AP               *tensor.Tensor // [B x T x freq_bins]
	F0               *tensor.Tensor // [B x T]
	FrameLengths     *tensor.Long   // [B], original frame counts + 1
	StopTargets      *tensor.Tensor // [B x T], 0 before an example ends, 1 after
	RepresentativeID string         // item id of the first example, for logging
}

// Assemble builds one batch from an ordered, fully-materialized example set.
// Every failure here is fatal for the batch: empty input, a malformed
// example, or disagreeing sp/ap shapes abort assembly with no partial output.
func (a Assembler) Assemble(examples []*Example) (*Batch, error) {
	if a.OutputsPerStep <= 0 {
		return nil, fmt.Errorf("dataset: outputs_per_step must be positive, got %d", a.OutputsPerStep)
	}

	if len(examples) == 0 {
		return nil, ErrEmptyBatch
	}

	b := int64(len(examples))

	frameCounts := make([]int64, b)
	for i, ex := range examples {
		frames, err := validateExample(i, ex)
		if err != nil {
			return nil, err
		}

		frameCounts[i] = frames
	}

	// Text: right-pad every token row with the reserved pad id 0.
	maxTextLen := int64(0)
	tokenLengths := make([]int64, b)
	for i, ex := range examples {
		tokenLengths[i] = int64(len(ex.Tokens))
		if tokenLengths[i] > maxTextLen {
			maxTextLen = tokenLengths[i]
		}
	}

	tokens, err := tensor.ZerosLong([]int64{b, maxTextLen})
	if err != nil {
		return nil, err
	}
	for i, ex := range examples {
		for j, id := range ex.Tokens {
			if err := tokens.SetAt(id, int64(i), int64(j)); err != nil {
				return nil, err
			}
		}
	}

	tokenLengthsT, err := tensor.NewLong(tokenLengths, []int64{b})
	if err != nil {
		return nil, err
	}

	// Frames: every example reserves one trailing all-zero frame as its end
	// marker, so frame_len is the sp frame count + 1. The common time axis is
	// max(frame_len) rounded up to a multiple of r, which keeps the reserved
	// frame inside the tensor even when the longest example's frame count is
	// already a multiple of r.
	frameLengths := make([]int64, b)
	maxFrameLen := int64(0)
	for i, frames := range frameCounts {
		frameLengths[i] = frames + 1
		if frameLengths[i] > maxFrameLen {
			maxFrameLen = frameLengths[i]
		}
	}

	timeSteps := alignToStep(maxFrameLen, int64(a.OutputsPerStep))

	frameLengthsT, err := tensor.NewLong(frameLengths, []int64{b})
	if err != nil {
		return nil, err
	}

	// Stop targets: zero ("continue") for the frame_len-1 true frames, then
	// 1.0 through the padded region, so a frame-level stop loss is defined
	// everywhere. No explicit stop marker is written beyond the padding; the
	// reserved zero frame carries the terminal signal.
	stopData := make([]float32, b*timeSteps)
	for i, fl := range frameLengths {
		row := stopData[int64(i)*timeSteps : int64(i+1)*timeSteps]
		for j := fl - 1; j < timeSteps; j++ {
			row[j] = 1.0
		}
	}

	stopTargets, err := tensor.New(stopData, []int64{b, timeSteps})
	if err != nil {
		return nil, err
	}

	// Features: zero-pad each stream along time to the same aligned length,
	// then stack batch-major. Everything is already time-major from loading.
	spRows := make([]*tensor.Tensor, b)
	apRows := make([]*tensor.Tensor, b)
	f0Rows := make([]*tensor.Tensor, b)
	for i, ex := range examples {
		if spRows[i], err = padTimeMajor(ex.SP, timeSteps); err != nil {
			return nil, fmt.Errorf("dataset: example %d (%s) sp: %w", i, ex.ItemID, err)
		}
		if apRows[i], err = padTimeMajor(ex.AP, timeSteps); err != nil {
			return nil, fmt.Errorf("dataset: example %d (%s) ap: %w", i, ex.ItemID, err)
		}
		if f0Rows[i], err = padPitch(ex.F0, timeSteps); err != nil {
			return nil, fmt.Errorf("dataset: example %d (%s) f0: %w", i, ex.ItemID, err)
		}
	}

	sp, err := tensor.Stack(spRows)
	if err != nil {
		return nil, fmt.Errorf("dataset: stack sp: %w", err)
	}
	ap, err := tensor.Stack(apRows)
	if err != nil {
		return nil, fmt.Errorf("dataset: stack ap: %w", err)
	}
	f0, err := tensor.Stack(f0Rows)
	if err != nil {
		return nil, fmt.Errorf("dataset: stack f0: %w", err)
	}

	spT, err := sp.Dim(1)
	if err != nil {
		return nil, err
	}
	apT, err := ap.Dim(1)
	if err != nil {
		return nil, err
	}
	if spT != apT {
		return nil, fmt.Errorf("dataset: sp/ap time axes disagree after padding: %d vs %d", spT, apT)
	}

	return &Batch{
		Tokens:           tokens,
		TokenLengths:     tokenLengthsT,
		SP:               sp,
		AP:               ap,
		F0:               f0,
		FrameLengths:     frameLengthsT,
		StopTargets:      stopTargets,
		RepresentativeID: examples[0].ItemID,
	}, nil
}

// validateExample checks the four required fields and the sp/ap shape
// invariant, returning the example's frame count.
func validateExample(i int, ex *Example) (int64, error) {
	if ex == nil {
		return 0, fmt.Errorf("dataset: example %d is nil", i)
	}

	if ex.F0 == nil || ex.SP == nil || ex.AP == nil {
		return 0, fmt.Errorf("dataset: example %d (%s) is missing a feature stream", i, ex.ItemID)
	}

	spShape := ex.SP.Shape()
	apShape := ex.AP.Shape()
	if len(spShape) != 2 || len(apShape) != 2 {
		return 0, fmt.Errorf("dataset: example %d (%s) features must be 2D, got sp %v ap %v", i, ex.ItemID, spShape, apShape)
	}

	if spShape[0] != apShape[0] || spShape[1] != apShape[1] {
		return 0, fmt.Errorf(
			"dataset: example %d (%s) sp shape %v does not match ap shape %v",
			i, ex.ItemID, spShape, apShape,
		)
	}

	f0Shape := ex.F0.Shape()
	if len(f0Shape) != 2 || f0Shape[1] < 1 {
		return 0, fmt.Errorf("dataset: example %d (%s) pitch must be 2D with one channel, got %v", i, ex.ItemID, f0Shape)
	}

	return spShape[0], nil
}

// alignToStep returns the smallest multiple of step that is >= n.
func alignToStep(n, step int64) int64 {
	if n <= 0 {
		return 0
	}

	if rem := n % step; rem != 0 {
		return n + step - rem
	}

	return n
}

// padTimeMajor zero-pads a time-major [frames x ch] tensor to
// [timeSteps x ch].
func padTimeMajor(t *tensor.Tensor, timeSteps int64) (*tensor.Tensor, error) {
	shape := t.Shape()
	frames, ch := shape[0], shape[1]

	out := make([]float32, timeSteps*ch)

	n := frames
	if n > timeSteps {
		n = timeSteps
	}
	copy(out[:n*ch], t.Data())

	return tensor.New(out, []int64{timeSteps, ch})
}

// padPitch flattens the pitch track's first channel and zero-pads it to
// timeSteps. The pitch frame count may differ from sp/ap; it is padded or
// truncated to the shared timeline.
func padPitch(t *tensor.Tensor, timeSteps int64) (*tensor.Tensor, error) {
	shape := t.Shape()
	frames, ch := shape[0], shape[1]
	data := t.Data()

	out := make([]float32, timeSteps)

	n := frames
	if n > timeSteps {
		n = timeSteps
	}
	for i := int64(0); i < n; i++ {
		out[i] = data[i*ch]
	}

	return tensor.New(out, []int64{timeSteps})
}
