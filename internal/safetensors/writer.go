package safetensors

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
)

// Encode serializes one float32 tensor into safetensors format.
func Encode(t Tensor) ([]byte, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return nil, errors.New("safetensors: tensor name must not be empty")
	}

	elems, err := shapeElementCount(t.Shape)
	if err != nil {
		return nil, fmt.Errorf("safetensors: tensor %q: %w", name, err)
	}

	if int64(len(t.Data)) != elems {
		return nil, fmt.Errorf(
			"safetensors: tensor %q shape %v expects %d elements, got %d",
			name,
			t.Shape,
			elems,
			len(t.Data),
		)
	}

	raw := make([]byte, len(t.Data)*4)
	for i, v := range t.Data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}

	header := map[string]headerEntry{
		name: {
			DType:   dtypeF32,
			Shape:   append([]int64(nil), t.Shape...),
			Offsets: [2]int{0, len(raw)},
		},
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("safetensors: encode header: %w", err)
	}

	out := make([]byte, 0, 8+len(headerJSON)+len(raw))
	lenPrefix := make([]byte, 8)
	binary.LittleEndian.PutUint64(lenPrefix, uint64(len(headerJSON)))
	out = append(out, lenPrefix...)
	out = append(out, headerJSON...)
	out = append(out, raw...)

	return out, nil
}

// Save2D writes one 2-D float32 tensor to path.
func Save2D(path, name string, rows, cols int64, data []float32) error {
	payload, err := Encode(Tensor{Name: name, Shape: []int64{rows, cols}, Data: data})
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("safetensors: write %s: %w", path, err)
	}

	return nil
}
