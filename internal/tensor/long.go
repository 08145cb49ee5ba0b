package tensor

import (
	"errors"
	"fmt"
)

// Long is a dense, row-major int64 tensor. Token ids and length vectors use
// Long rather than Tensor so integer fields stay fixed-width integers end to
// end.
type Long struct {
	shape []int64
	data  []int64
}

// NewLong creates an int64 tensor from data and shape.
func NewLong(data []int64, shape []int64) (*Long, error) {
	total, err := shapeElemCount(shape)
	if err != nil {
		return nil, err
	}

	if len(data) != total {
		return nil, fmt.Errorf("tensor: data length %d does not match shape %v (%d elements)", len(data), shape, total)
	}

	s := append([]int64(nil), shape...)
	d := append([]int64(nil), data...)

	return &Long{shape: s, data: d}, nil
}

// ZerosLong creates a zero-initialized int64 tensor.
func ZerosLong(shape []int64) (*Long, error) {
	total, err := shapeElemCount(shape)
	if err != nil {
		return nil, err
	}

	return &Long{
		shape: append([]int64(nil), shape...),
		data:  make([]int64, total),
	}, nil
}

func (t *Long) Shape() []int64 {
	if t == nil {
		return nil
	}

	return append([]int64(nil), t.shape...)
}

// Data returns a copy of the underlying tensor data.
func (t *Long) Data() []int64 {
	if t == nil {
		return nil
	}

	return append([]int64(nil), t.data...)
}

// At returns the element at the given multi-dimensional index.
func (t *Long) At(idx ...int64) (int64, error) {
	off, err := t.longOffset(idx)
	if err != nil {
		return 0, err
	}

	return t.data[off], nil
}

// SetAt writes the element at the given multi-dimensional index.
func (t *Long) SetAt(value int64, idx ...int64) error {
	off, err := t.longOffset(idx)
	if err != nil {
		return err
	}

	t.data[off] = value

	return nil
}

func (t *Long) longOffset(idx []int64) (int, error) {
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
