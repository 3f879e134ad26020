package bytepacker

// SeqOption configures PackEach and UnpackEach.
type SeqOption func(*seqConfig)

type seqConfig struct {
	stride int
}

// WithStride sets the number of bytes each element occupies in the buffer.
// The default is the size of the element type.
func WithStride(n int) SeqOption {
	return func(c *seqConfig) {
		c.stride = n
	}
}

func strideOf[T Scalar](opts []SeqOption) int {
	c := seqConfig{stride: sizeOf[T]()}
	for _, opt := range opts {
		opt(&c)
	}
	return c.stride
}

// PackEach writes the elements of seq in order, one stride apart, starting at
// buf[start:]. It stops when seq is exhausted or the next slot would begin
// past the end of buf; the last slot may be clipped. It returns the total
// number of bytes written.
func PackEach[T Scalar](buf []byte, start int, seq []T, opts ...SeqOption) int {
	stride := strideOf[T](opts)
	if stride <= 0 || start < 0 {
		return 0
	}
	total := 0
	off := start
	for _, v := range seq {
		if off >= len(buf) {
			break
		}
		total += PackN(buf, off, stride, v)
		if stride >= len(buf)-off {
			break
		}
		off += stride
	}
	return total
}

// UnpackEach reads up to count elements laid out one stride apart from
// buf[start:]. Only complete slots are read, so the result may be shorter
// than count.
func UnpackEach[T Scalar](buf []byte, start, count int, opts ...SeqOption) []T {
	if count <= 0 {
		return nil
	}
	slots := 0
	if stride := strideOf[T](opts); stride > 0 && start >= 0 && start < len(buf) {
		slots = min(count, (len(buf)-start)/stride)
	}
	return UnpackEachInto(buf, start, count, make([]T, 0, slots), opts...)
}

// UnpackEachInto is UnpackEach appending to out.
func UnpackEachInto[T Scalar](buf []byte, start, count int, out []T, opts ...SeqOption) []T {
	stride := strideOf[T](opts)
	if stride <= 0 || start < 0 {
		return out
	}
	for i, off := 0, start; i < count; i, off = i+1, off+stride {
		if stride > len(buf)-off {
			break
		}
		out = append(out, As[T](Unpack(buf, off, stride)))
	}
	return out
}
