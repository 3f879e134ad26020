// Package bytepacker packs fixed-size scalars and homogeneous sequences of
// scalars into a fixed-capacity byte buffer and reads them back.
//
// # Wire format
//
// The buffer is a flat []byte whose length is its capacity. Every multi-byte
// value is stored big-endian ("network order") at an offset the caller
// chooses. Nothing in the buffer describes itself: offsets, widths and
// element counts are agreed out of band (see pkg/layout for a declarative
// way to do that).
//
// # Clipping
//
// No operation writes or reads outside [0, len(buf)). A transfer that runs
// past the end is cut short: writes report a smaller count, reads are
// zero-filled. Use a Packer with Options.Strict to get ErrTruncated instead.
//
// # Widths
//
// A value written into a slot narrower than its type keeps its low-order
// bytes; a wider slot zero-extends it. Reads apply the same rule in reverse,
// so a sequence of int32 packed at stride 8 reads back unchanged on any host.
//
// # Thread safety
//
// The package holds no shared state. Distinct buffers may be used from
// different goroutines; access to one buffer must be serialized by the caller.
package bytepacker
