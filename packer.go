package bytepacker

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/rawbytedev/bytepacker/internal/common"
)

// Options controls how a Packer reports clipped transfers.
type Options struct {
	// Strict records ErrTruncated whenever a field does not fit inside the
	// buffer. The bytes that fit are still transferred.
	Strict bool
}

// Packer binds a caller-owned buffer and packs values whose types are only
// known at run time. It is not safe for concurrent use.
//
// The first error is sticky: once Err returns non-nil every further call is
// a no-op returning zero values.
type Packer struct {
	Opts    Options
	buf     []byte
	scratch [8]byte
	err     error
}

// NewPacker returns a Packer writing into buf. The capacity is len(buf).
func NewPacker(buf []byte, opts Options) *Packer {
	return &Packer{Opts: opts, buf: buf}
}

// Cap returns the fixed capacity of the bound buffer.
func (p *Packer) Cap() int {
	return len(p.buf)
}

// Bytes returns the bound buffer.
func (p *Packer) Bytes() []byte {
	return p.buf
}

// Err returns the first error recorded, if any.
func (p *Packer) Err() error {
	return p.err
}

// Reset zeroes the buffer and clears the recorded error.
func (p *Packer) Reset() {
	clear(p.buf)
	p.err = nil
}

func (p *Packer) setError(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *Packer) checkFit(start, want, got int) {
	if p.Opts.Strict && got < want {
		p.setError(fmt.Errorf("%w: offset %d wants %d bytes, %d fit in capacity %d",
			ErrTruncated, start, want, got, len(p.buf)))
	}
}

// Pack writes v at start. Fixed-size kinds are written in network order,
// strings verbatim, and []byte as a host-order value of len(v) bytes.
func (p *Packer) Pack(start int, v any) int {
	if p.err != nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Kind() == reflect.String:
		n := PackText(p.buf, start, rv.String())
		p.checkFit(start, rv.Len(), n)
		return n
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8:
		n := PackBytes(p.buf, start, rv.Len(), rv.Bytes())
		p.checkFit(start, rv.Len(), n)
		return n
	}
	size := valueSize(rv)
	if size < 0 {
		p.setError(fmt.Errorf("%w: %T", ErrUnsupported, v))
		return 0
	}
	return p.packFixed(start, size, rv)
}

// PackN writes the fixed-size value v at start in a field of n bytes.
func (p *Packer) PackN(start, n int, v any) int {
	if p.err != nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	if valueSize(rv) < 0 {
		p.setError(fmt.Errorf("%w: %T", ErrUnsupported, v))
		return 0
	}
	return p.packFixed(start, n, rv)
}

func (p *Packer) packFixed(start, n int, rv reflect.Value) int {
	count := common.Clip(len(p.buf), start, n)
	if count > 0 {
		bits := fixedBits(rv)
		binary.BigEndian.PutUint64(p.scratch[:], bits)
		field := p.buf[start : start+count]
		if n <= len(p.scratch) {
			copy(field, p.scratch[len(p.scratch)-n:])
		} else {
			pad := n - len(p.scratch)
			clear(field[:min(pad, count)])
			if count > pad {
				copy(field[pad:], p.scratch[:])
			}
		}
	}
	p.checkFit(start, n, count)
	return count
}

// PackEach writes the elements of seq, a slice of a fixed-size kind, one
// stride apart from start. A stride of zero uses the element size.
func (p *Packer) PackEach(start int, seq any, stride int) int {
	if p.err != nil {
		return 0
	}
	rv := reflect.ValueOf(seq)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		p.setError(fmt.Errorf("%w: %T", ErrUnsupported, seq))
		return 0
	}
	size := typeSize(rv.Type().Elem())
	if size < 0 {
		p.setError(fmt.Errorf("%w: element of %T", ErrUnsupported, seq))
		return 0
	}
	if stride == 0 {
		stride = size
	}
	if stride < 0 || start < 0 {
		return 0
	}
	total := 0
	off := start
	for i := 0; i < rv.Len(); i++ {
		if off >= len(p.buf) {
			p.checkFit(off, stride, 0)
			break
		}
		total += p.packFixed(off, stride, rv.Index(i))
		if p.err != nil || stride >= len(p.buf)-off {
			if i+1 < rv.Len() {
				p.checkFit(len(p.buf), stride, 0)
			}
			break
		}
		off += stride
	}
	return total
}

// Unpack reads n bytes at start into a FieldBuffer in host order.
func (p *Packer) Unpack(start, n int) FieldBuffer {
	if p.err != nil {
		return Unpack(nil, 0, n)
	}
	fb := Unpack(p.buf, start, n)
	p.checkFit(start, fb.Len(), fb.Copied())
	return fb
}

// UnpackInto reads an n-byte field at start into out, which must point to a
// fixed-size kind. Bytes past the end of the buffer read as zero.
func (p *Packer) UnpackInto(start, n int, out any) {
	if p.err != nil {
		return
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || typeSize(rv.Type().Elem()) < 0 {
		p.setError(fmt.Errorf("%w: %T", ErrUnsupported, out))
		return
	}
	fb := p.Unpack(start, n)
	setFixed(rv.Elem(), fb.Wire())
}

// UnpackText reads n bytes at start as text, cut at the first zero byte.
func (p *Packer) UnpackText(start, n int) string {
	if p.err != nil {
		return ""
	}
	p.checkFit(start, n, common.Clip(len(p.buf), start, n))
	return UnpackText(p.buf, start, n)
}

// UnpackEach appends up to count elements read one stride apart from start
// to the slice out points to. A stride of zero uses the element size. It
// returns the number of elements appended.
func (p *Packer) UnpackEach(start, count, stride int, out any) int {
	if p.err != nil {
		return 0
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Slice {
		p.setError(ErrNotSlicePtr)
		return 0
	}
	dst := rv.Elem()
	et := dst.Type().Elem()
	size := typeSize(et)
	if size < 0 {
		p.setError(fmt.Errorf("%w: element %s", ErrUnsupported, et))
		return 0
	}
	if stride == 0 {
		stride = size
	}
	if stride < 0 || start < 0 {
		return 0
	}
	read := 0
	for off := start; read < count; read, off = read+1, off+stride {
		if stride > len(p.buf)-off {
			break
		}
		elem := reflect.New(et).Elem()
		setFixed(elem, p.buf[off:off+stride])
		dst.Set(reflect.Append(dst, elem))
	}
	if p.Opts.Strict && read < count {
		p.setError(fmt.Errorf("%w: %d of %d elements at offset %d fit in capacity %d",
			ErrTruncated, read, count, start, len(p.buf)))
	}
	return read
}

// FillRaw copies src verbatim to offset, stopping before its first zero
// byte. Unlike the package-level FillRaw the copy is clipped at the end of
// the buffer.
func (p *Packer) FillRaw(src string, offset int) int {
	if p.err != nil {
		return 0
	}
	want := len(cString([]byte(src)))
	n := common.Clip(len(p.buf), offset, want)
	if n > 0 {
		FillRaw(p.buf[offset:offset+n], src[:n], 0)
	}
	p.checkFit(offset, want, n)
	return n
}

func valueSize(rv reflect.Value) int {
	if !rv.IsValid() {
		return -1
	}
	return typeSize(rv.Type())
}

// typeSize is the in-buffer width of t, or -1 when t is not fixed-size.
func typeSize(t reflect.Type) int {
	switch k := t.Kind(); {
	case common.IsFixedKind(k):
		return common.FixedSize(k)
	case k == reflect.Int, k == reflect.Uint, k == reflect.Uintptr:
		return int(t.Size())
	default:
		return -1
	}
}

// fixedBits returns the value as an unsigned integer holding exactly the
// bits of its in-memory representation; wider bits are zero.
func fixedBits(v reflect.Value) uint64 {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return 1
		}
		return 0
	case reflect.Float32:
		return uint64(math.Float32bits(float32(v.Float())))
	case reflect.Float64:
		return math.Float64bits(v.Float())
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return uint64(v.Int()) & sizeMask(typeSize(v.Type()))
	default:
		return v.Uint()
	}
}

func sizeMask(size int) uint64 {
	if size >= 8 {
		return math.MaxUint64
	}
	return 1<<(uint(size)*8) - 1
}

// setFixed decodes the big-endian slot b into dst, keeping the low-order
// bytes when b is wider than dst and zero-extending when it is narrower.
func setFixed(dst reflect.Value, b []byte) {
	if len(b) > 8 {
		b = b[len(b)-8:]
	}
	var tmp [8]byte
	copy(tmp[8-len(b):], b)
	bits := binary.BigEndian.Uint64(tmp[:])
	switch dst.Kind() {
	case reflect.Bool:
		dst.SetBool(bits&0xff != 0)
	case reflect.Int8:
		dst.SetInt(int64(int8(bits)))
	case reflect.Int16:
		dst.SetInt(int64(int16(bits)))
	case reflect.Int32:
		dst.SetInt(int64(int32(bits)))
	case reflect.Int64:
		dst.SetInt(int64(bits))
	case reflect.Int:
		if dst.Type().Size() == 4 {
			dst.SetInt(int64(int32(bits)))
		} else {
			dst.SetInt(int64(bits))
		}
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint, reflect.Uintptr:
		dst.SetUint(bits & sizeMask(int(dst.Type().Size())))
	case reflect.Float32:
		dst.SetFloat(float64(math.Float32frombits(uint32(bits))))
	case reflect.Float64:
		dst.SetFloat(math.Float64frombits(bits))
	}
}
