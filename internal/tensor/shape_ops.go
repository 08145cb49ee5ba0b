package tensor

import "fmt"

// Transpose2D swaps the two axes of a 2-D tensor.
func (t *Tensor) Transpose2D() (*Tensor, error) {
	if t == nil || len(t.shape) != 2 {
		return nil, fmt.Errorf("tensor: transpose requires a 2D tensor, got shape %v", t.Shape())
	}

	rows, cols := t.shape[0], t.shape[1]
	out := make([]float32, len(t.data))

	for i := int64(0); i < rows; i++ {
		for j := int64(0); j < cols; j++ {
			out[j*rows+i] = t.data[i*cols+j]
		}
	}

	return &Tensor{shape: []int64{cols, rows}, data: out}, nil
}
