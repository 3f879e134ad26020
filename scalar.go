package bytepacker

import (
	"unsafe"

	"github.com/rawbytedev/bytepacker/internal/common"
)

// Scalar is the set of fixed-size types the codec can place in a buffer.
// int, uint and uintptr follow the host word size; give them an explicit
// width (PackN, WithStride) when the buffer has to move between hosts.
type Scalar interface {
	~bool |
		~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint | ~uintptr |
		~float32 | ~float64
}

func sizeOf[T Scalar]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// hostBytes aliases the in-memory representation of *v.
func hostBytes[T Scalar](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// Pack writes v in network order at buf[start:] and returns the number of
// bytes written, which is less than the size of T when the value does not
// fit before the end of buf.
func Pack[T Scalar](buf []byte, start int, v T) int {
	return PackN(buf, start, sizeOf[T](), v)
}

// PackN is Pack with an explicit field width n. A narrower field keeps the
// low-order bytes of v; a wider one zero-extends it.
func PackN[T Scalar](buf []byte, start, n int, v T) int {
	count := common.Clip(len(buf), start, n)
	if count == 0 {
		return 0
	}
	hb := hostBytes(&v)
	if pad := n - len(hb); pad > 0 {
		clear(buf[start : start+min(pad, count)])
		if count > pad {
			writeNetwork(buf, start+pad, len(hb), hb, common.Resize)
		}
		return count
	}
	return writeNetwork(buf, start, n, hb, common.Resize)
}

// PackBytes writes the first n bytes of p, taken as a host-order value, in
// network order at buf[start:]. p is zero-padded when shorter than n and is
// never modified.
func PackBytes(buf []byte, start, n int, p []byte) int {
	return writeNetwork(buf, start, n, p, func(dst, src []byte) {
		clear(dst)
		copy(dst, src)
	})
}

// PackText copies s verbatim to buf[start:], clipped at the end of buf.
// Text carries no byte order and is never reversed.
func PackText(buf []byte, start int, s string) int {
	count := common.Clip(len(buf), start, len(s))
	if count == 0 {
		return 0
	}
	return copy(buf[start:start+count], s)
}

func writeNetwork(buf []byte, start, n int, src []byte, fill func(dst, src []byte)) int {
	count := common.Clip(len(buf), start, n)
	if count == 0 {
		return 0
	}
	var stack [16]byte
	var scratch []byte
	if n <= len(stack) {
		scratch = stack[:n]
	} else {
		scratch = make([]byte, n)
	}
	fill(scratch, src)
	ToNetworkOrder(scratch, n)
	return copy(buf[start:start+count], scratch)
}

// Unpack reads n bytes at buf[start:] into a FieldBuffer and converts them to
// host order. Bytes past the end of buf read as zero.
func Unpack(buf []byte, start, n int) FieldBuffer {
	if n < 0 {
		n = 0
	}
	data := make([]byte, n+1)
	count := common.Clip(len(buf), start, n)
	if count > 0 {
		copy(data, buf[start:start+count])
	}
	// data[n] is the terminator and stays outside the conversion.
	ToHostOrder(data, n)
	return FieldBuffer{data: data, copied: count}
}

// UnpackText returns the n bytes at buf[start:] verbatim, cut at the first
// zero byte and at the end of buf.
func UnpackText(buf []byte, start, n int) string {
	count := common.Clip(len(buf), start, n)
	if count == 0 {
		return ""
	}
	return cString(buf[start : start+count])
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
