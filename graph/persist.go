package graph

import (
	"fmt"
	"io"

	"github.com/sbinet/npyio"
)

// WriteNPY writes b to w as a one-dimensional float64 npy array, so
// checkpoints can be inspected with standard numpy tooling.
func WriteNPY(w io.Writer, b Buffer) error {
	if err := npyio.Write(w, []float64(b)); err != nil {
		return fmt.Errorf("while writing npy buffer: %w", err)
	}
	return nil
}

// ReadNPY reads a buffer previously written by WriteNPY.
func ReadNPY(r io.Reader) (Buffer, error) {
	var vs []float64
	if err := npyio.Read(r, &vs); err != nil {
		return nil, fmt.Errorf("while reading npy buffer: %w", err)
	}
	return Buffer(vs), nil
}
