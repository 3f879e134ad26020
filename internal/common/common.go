package common

import (
	"reflect"
	"unsafe"
)

// bigEndian is resolved once; the host byte order cannot change at runtime.
var bigEndian = func() bool {
	probe := uint16(0x1234)
	return *(*byte)(unsafe.Pointer(&probe)) == 0x12
}()

// HostBigEndian reports whether the executing machine stores the most
// significant byte first.
func HostBigEndian() bool {
	return bigEndian
}

// IsFixedKind reports whether k is a fixed-size primitive kind.
func IsFixedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// FixedSize returns the byte width for fixed-size primitive kinds.
func FixedSize(k reflect.Kind) int {
	switch k {
	case reflect.Bool, reflect.Int8, reflect.Uint8:
		return 1
	case reflect.Int16, reflect.Uint16:
		return 2
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 4
	case reflect.Int64, reflect.Uint64, reflect.Float64:
		return 8
	default:
		return -1
	}
}

// Reverse swaps b[:n] end for end in place. n is clamped to len(b).
func Reverse(b []byte, n int) {
	if n > len(b) {
		n = len(b)
	}
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// Resize copies the host-order integer in src into dst, keeping the
// low-order bytes when dst is narrower and zero-extending when it is wider.
// dst is fully overwritten.
func Resize(dst, src []byte) {
	clear(dst)
	n := min(len(dst), len(src))
	if bigEndian {
		copy(dst[len(dst)-n:], src[len(src)-n:])
		return
	}
	copy(dst[:n], src[:n])
}

// Clip returns how many of the n bytes starting at start fit inside a
// buffer of the given capacity.
func Clip(capacity, start, n int) int {
	if start < 0 || n <= 0 || start >= capacity {
		return 0
	}
	return min(n, capacity-start)
}

// KindOf maps a fixed-size kind name as written in layout files to its
// reflect.Kind. The second result is false for unknown names.
func KindOf(name string) (reflect.Kind, bool) {
	switch name {
	case "bool":
		return reflect.Bool, true
	case "int8":
		return reflect.Int8, true
	case "uint8", "byte":
		return reflect.Uint8, true
	case "int16":
		return reflect.Int16, true
	case "uint16":
		return reflect.Uint16, true
	case "int32":
		return reflect.Int32, true
	case "uint32":
		return reflect.Uint32, true
	case "int64":
		return reflect.Int64, true
	case "uint64":
		return reflect.Uint64, true
	case "float32":
		return reflect.Float32, true
	case "float64":
		return reflect.Float64, true
	default:
		return reflect.Invalid, false
	}
}
