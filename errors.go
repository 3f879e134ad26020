package bytepacker

import "errors"

var (
	ErrTruncated   = errors.New("field truncated at buffer capacity")
	ErrUnsupported = errors.New("unsupported type")
	ErrNotSlicePtr = errors.New("expected pointer to slice")
)
