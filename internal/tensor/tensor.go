// Package tensor provides the dense row-major tensors assembled batches are
// made of: float32 for feature streams and stop targets, int64 for token ids
// and length vectors.
package tensor

import (
	"errors"
	"fmt"
)

// Tensor is a dense, row-major float32 tensor.
type Tensor struct {
	shape []int64
	data  []float32
}

// New creates a tensor from data and shape.
func New(data []float32, shape []int64) (*Tensor, error) {
	total, err := shapeElemCount(shape)
	if err != nil {
		return nil, err
	}

	if len(data) != total {
		return nil, fmt.Errorf("tensor: data length %d does not match shape %v (%d elements)", len(data), shape, total)
	}

	s := append([]int64(nil), shape...)
	d := append([]float32(nil), data...)

	return &Tensor{shape: s, data: d}, nil
}

// Zeros creates a zero-initialized tensor.
func Zeros(shape []int64) (*Tensor, error) {
	total, err := shapeElemCount(shape)
	if err != nil {
		return nil, err
	}

	return &Tensor{
		shape: append([]int64(nil), shape...),
		data:  make([]float32, total),
	}, nil
}

// Full creates a tensor filled with value.
func Full(shape []int64, value float32) (*Tensor, error) {
	t, err := Zeros(shape)
	if err != nil {
		return nil, err
	}

	for i := range t.data {
		t.data[i] = value
	}

	return t, nil
}

func (t *Tensor) Shape() []int64 {
	if t == nil {
		return nil
	}

	return append([]int64(nil), t.shape...)
}

// Data returns a copy of the underlying tensor data.
func (t *Tensor) Data() []float32 {
	if t == nil {
		return nil
	}

	return append([]float32(nil), t.data...)
}

// At returns the element at the given multi-dimensional index.
func (t *Tensor) At(idx ...int64) (float32, error) {
	off, err := t.offset(idx)
	if err != nil {
		return 0, err
	}

	return t.data[off], nil
}

// SetAt writes the element at the given multi-dimensional index.
func (t *Tensor) SetAt(value float32, idx ...int64) error {
	off, err := t.offset(idx)
	if err != nil {
		return err
	}

	t.data[off] = value

	return nil
}

// Dim returns the size of dimension d.
func (t *Tensor) Dim(d int) (int64, error) {
	if t == nil || d < 0 || d >= len(t.shape) {
		return 0, fmt.Errorf("tensor: dimension %d out of range for shape %v", d, t.Shape())
	}

	return t.shape[d], nil
}

// Stack combines equally-shaped tensors along a new leading axis, producing a
// tensor of shape [len(ts), shape...].
func Stack(ts []*Tensor) (*Tensor, error) {
	if len(ts) == 0 {
		return nil, errors.New("tensor: stack of zero tensors")
	}

	base := ts[0]
	if base == nil {
		return nil, errors.New("tensor: stack input contains nil tensor")
	}

	for i, t := range ts[1:] {
		if t == nil {
			return nil, errors.New("tensor: stack input contains nil tensor")
		}

		if !equalShape(t.shape, base.shape) {
			return nil, fmt.Errorf("tensor: stack shape mismatch at index %d: %v vs %v", i+1, t.shape, base.shape)
		}
	}

	shape := append([]int64{int64(len(ts))}, base.shape...)
	data := make([]float32, 0, len(ts)*len(base.data))

	for _, t := range ts {
		data = append(data, t.data...)
	}

	return &Tensor{shape: shape, data: data}, nil
}

func (t *Tensor) offset(idx []int64) (int, error) {
	if t == nil {
		return 0, errors.New("tensor: nil tensor")
	}

	if len(idx) != len(t.shape) {
		return 0, fmt.Errorf("tensor: index rank %d does not match shape %v", len(idx), t.shape)
	}

	off := int64(0)
	for d, i := range idx {
		if i < 0 || i >= t.shape[d] {
			return 0, fmt.Errorf("tensor: index %d out of range for dimension %d (size %d)", i, d, t.shape[d])
		}

		off = off*t.shape[d] + i
	}

	return int(off), nil
}

func shapeElemCount(shape []int64) (int, error) {
	total := int64(1)
	for _, dim := range shape {
		if dim < 0 {
			return 0, fmt.Errorf("tensor: negative dimension in shape %v", shape)
		}

		total *= dim
	}

	return int(total), nil
}

func equalShape(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
