package bytepacker

import (
	"reflect"

	"github.com/rawbytedev/bytepacker/internal/common"
)

// FieldBuffer holds a field read out of a buffer. Its data bytes are in host
// order and are followed by one terminator byte that is always zero, so the
// field can be read as text without a length.
type FieldBuffer struct {
	data   []byte
	copied int
}

// Len returns the nominal length of the field.
func (f FieldBuffer) Len() int {
	if len(f.data) == 0 {
		return 0
	}
	return len(f.data) - 1
}

// Bytes returns the data bytes in host order, without the terminator.
// The slice aliases the FieldBuffer.
func (f FieldBuffer) Bytes() []byte {
	return f.data[:f.Len()]
}

// Raw returns the data bytes followed by the terminator.
func (f FieldBuffer) Raw() []byte {
	return f.data
}

// Copied returns how many bytes actually came from the source buffer.
func (f FieldBuffer) Copied() int {
	return f.copied
}

// Truncated reports whether the read ran past the end of the source buffer
// and was zero-filled.
func (f FieldBuffer) Truncated() bool {
	return f.copied < f.Len()
}

// Wire returns a copy of the data bytes in the order they were laid out in
// the source buffer.
func (f FieldBuffer) Wire() []byte {
	n := f.Len()
	wire := make([]byte, n)
	copy(wire, f.data[:n])
	return ToNetworkOrder(wire, n)
}

// String reads the field as text: the wire bytes up to the first zero byte.
// The terminator is never part of the result.
func (f FieldBuffer) String() string {
	return cString(f.Wire())
}

// As reinterprets the field's data bytes as a T. A field narrower than T is
// zero-extended; a wider one contributes its low-order bytes.
func As[T Scalar](f FieldBuffer) T {
	var v T
	raw := hostBytes(&v)
	common.Resize(raw, f.Bytes())
	if reflect.TypeFor[T]().Kind() == reflect.Bool && raw[0] != 0 {
		raw[0] = 1
	}
	return v
}
