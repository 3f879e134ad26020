package bytepacker

// FillRaw copies src into buf at offset, one byte at a time, stopping before
// the first zero byte of src. The bytes are copied verbatim. The destination
// range is not clipped: the caller must make sure it fits, otherwise FillRaw
// panics with an index out of range. It returns the number of bytes copied.
func FillRaw[S ~string | ~[]byte](buf []byte, src S, offset int) int {
	i := 0
	for ; i < len(src) && src[i] != 0; i++ {
		buf[offset+i] = src[i]
	}
	return i
}
