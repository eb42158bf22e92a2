package graph

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// A Buffer is a flat vector of float64 values: parameters, weight
// gradients, or input sensitivities.  Buffers are treated as immutable
// values; "updating" one always allocates a new buffer.
type Buffer []float64

// Clone returns an independent copy of b.
func (b Buffer) Clone() Buffer {
	out := make(Buffer, len(b))
	copy(out, b)
	return out
}

// Combine returns the elementwise sum of the given buffers, each
// zero-extended to the longest length among them.  Combine() returns a
// zero-length buffer, which is the identity for further combination.
func Combine(updates ...Buffer) Buffer {
	maxLen := 0
	for _, u := range updates {
		if len(u) > maxLen {
			maxLen = len(u)
		}
	}

	out := make(Buffer, maxLen)
	for _, u := range updates {
		floats.Add(out[:len(u)], u)
	}
	return out
}

// ApplyDelta returns params + learningRate*update as a new buffer, with
// both operands zero-extended to the longer length.  Neither input is
// mutated.
func ApplyDelta(learningRate float64, params, update Buffer) Buffer {
	n := len(params)
	if len(update) > n {
		n = len(update)
	}

	out := make(Buffer, n)
	copy(out, params)
	floats.AddScaled(out[:len(update)], learningRate, update)
	return out
}

// Serialize encodes b as a headerless run of 8-byte IEEE-754 values in
// native byte order.
func (b Buffer) Serialize() []byte {
	out := make([]byte, 8*len(b))
	for i, v := range b {
		binary.NativeEndian.PutUint64(out[8*i:], math.Float64bits(v))
	}
	return out
}

// Deserialize decodes the Serialize encoding.  The result is independent
// of raw.
func Deserialize(raw []byte) (Buffer, error) {
	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("serialized buffer is %d bytes, not a multiple of 8: %w",
			len(raw), ErrSizeMismatch)
	}

	out := make(Buffer, len(raw)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.NativeEndian.Uint64(raw[8*i:]))
	}
	return out, nil
}

// String renders b in the debug text form {v1, v2, ..., vn}.
func (b Buffer) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, v := range b {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%v", v)
	}
	sb.WriteString("}")
	return sb.String()
}

// ParseBuffer parses the debug text form accepted by String.
func ParseBuffer(s string) (Buffer, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return nil, fmt.Errorf("buffer text %q is not brace-delimited", s)
	}
	s = strings.TrimSpace(s[1 : len(s)-1])
	if s == "" {
		return Buffer{}, nil
	}

	parts := strings.Split(s, ",")
	out := make(Buffer, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("while parsing buffer element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
