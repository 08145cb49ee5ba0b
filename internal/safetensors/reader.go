// Package safetensors reads and writes the feature-file container: an 8-byte
// little-endian header length, a JSON header, then raw tensor data. Each
// feature file holds exactly one 2-D array (f0, sp or ap for one utterance).
package safetensors

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

const (
	dtypeF32  = "F32"
	dtypeF16  = "F16"
	dtypeBF16 = "BF16"
)

// Tensor holds a single tensor loaded from a safetensors file. Data is always
// float32 after loading regardless of the on-disk dtype.
type Tensor struct {
	Name  string
	Shape []int64
	Data  []float32
}

type headerEntry struct {
	DType   string  `json:"dtype"`
	Shape   []int64 `json:"shape"`
	Offsets [2]int  `json:"data_offsets"`
}

// Load2D reads a feature file and returns its tensor, which must be 2-D.
func Load2D(path string) (*Tensor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("safetensors: read %s: %w", path, err)
	}

	t, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("safetensors: decode %s: %w", path, err)
	}

	if len(t.Shape) != 2 {
		return nil, fmt.Errorf("safetensors: %s holds %dD tensor %v, want 2D", path, len(t.Shape), t.Shape)
	}

	return t, nil
}

// Decode parses a safetensors payload holding exactly one tensor. F16 and
// BF16 data are widened to float32.
func Decode(data []byte) (*Tensor, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("payload too short (%d bytes)", len(data))
	}

	headerLen := binary.LittleEndian.Uint64(data[:8])
	if headerLen > uint64(len(data)-8) {
		return nil, fmt.Errorf("header length %d exceeds payload size %d", headerLen, len(data))
	}

	headerEnd := 8 + int(headerLen)

	var header map[string]json.RawMessage
	if err := json.Unmarshal(data[8:headerEnd], &header); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}

	delete(header, "__metadata__")

	if len(header) != 1 {
		return nil, fmt.Errorf("feature file must hold exactly one tensor, found %d", len(header))
	}

	for name, raw := range header {
		var entry headerEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("decode header entry %q: %w", name, err)
		}

		return decodeTensor(name, entry, data[headerEnd:])
	}

	return nil, fmt.Errorf("empty header")
}

func decodeTensor(name string, entry headerEntry, raw []byte) (*Tensor, error) {
	elems, err := shapeElementCount(entry.Shape)
	if err != nil {
		return nil, fmt.Errorf("tensor %q: %w", name, err)
	}

	elemBytes, err := dtypeBytes(entry.DType)
	if err != nil {
		return nil, fmt.Errorf("tensor %q: %w", name, err)
	}

	start, end := entry.Offsets[0], entry.Offsets[1]
	if start < 0 || end < start || end > len(raw) {
		return nil, fmt.Errorf("tensor %q data [%d:%d] exceeds payload size %d", name, start, end, len(raw))
	}

	if end-start < int(elems)*elemBytes {
		return nil, fmt.Errorf("tensor %q needs %d bytes but data has %d", name, int(elems)*elemBytes, end-start)
	}

	src := raw[start:end]
	out := make([]float32, elems)

	switch entry.DType {
	case dtypeF32:
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
		}
	case dtypeF16:
		for i := range out {
			out[i] = f16ToF32(binary.LittleEndian.Uint16(src[i*2:]))
		}
	case dtypeBF16:
		for i := range out {
			out[i] = math.Float32frombits(uint32(binary.LittleEndian.Uint16(src[i*2:])) << 16)
		}
	}

	return &Tensor{
		Name:  name,
		Shape: append([]int64(nil), entry.Shape...),
		Data:  out,
	}, nil
}

func dtypeBytes(dtype string) (int, error) {
	switch dtype {
	case dtypeF32:
		return 4, nil
	case dtypeF16, dtypeBF16:
		return 2, nil
	default:
		return 0, fmt.Errorf("unsupported dtype %q", dtype)
	}
}

func shapeElementCount(shape []int64) (int64, error) {
	total := int64(1)
	for _, dim := range shape {
		if dim < 0 {
			return 0, fmt.Errorf("negative dimension in shape %v", shape)
		}

		total *= dim
	}

	return total, nil
}

// f16ToF32 widens an IEEE 754 half-precision value to float32.
func f16ToF32(h uint16) float32 {
	sign := uint32(h>>15) & 1
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h) & 0x3ff

	var bits uint32

	switch {
	case exp == 0 && frac == 0:
		bits = sign << 31
	case exp == 0:
		// Subnormal: normalize.
		e := uint32(127 - 15 + 1)
		for frac&0x400 == 0 {
			frac <<= 1
			e--
		}
		frac &= 0x3ff
		bits = sign<<31 | e<<23 | frac<<13
	case exp == 0x1f:
		bits = sign<<31 | 0xff<<23 | frac<<13
	default:
		bits = sign<<31 | (exp-15+127)<<23 | frac<<13
	}

	return math.Float32frombits(bits)
}
