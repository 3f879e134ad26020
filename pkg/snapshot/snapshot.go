// Package snapshot seals a packed buffer into a self-checking artifact so it
// can be written to disk or handed to another host.
//
// Layout (all integers big-endian):
//
//	[magic "BPK1"(4)][version(1)][compression(1)][capacity(4)][payloadLen(4)][crc32(4)][payload]
//
// The CRC32 (IEEE) covers the uncompressed buffer. The header itself is
// written and read with the bytepacker codec.
package snapshot

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/rawbytedev/bytepacker"
)

const (
	Magic      = "BPK1"
	Version    = 1
	HeaderSize = 18

	// MaxCapacity bounds the buffer a snapshot may carry. Headers claiming
	// more are rejected before anything is allocated.
	MaxCapacity = 64 << 20

	offVersion     = 4
	offCompression = 5
	offCapacity    = 6
	offPayloadLen  = 10
	offCRC         = 14
)

// Compression selects how the payload is stored.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression maps a name as accepted on the command line.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

var (
	ErrBadMagic = errors.New("not a bytepacker snapshot")
	ErrVersion  = errors.New("unsupported snapshot version")
	ErrChecksum = errors.New("snapshot checksum mismatch")
	ErrCorrupt  = errors.New("corrupt snapshot")
)

// Header is the decoded fixed-size snapshot header.
type Header struct {
	Version     uint8
	Compression Compression
	Capacity    uint32
	PayloadLen  uint32
	CRC32       uint32
}

func (h Header) encode() []byte {
	head := make([]byte, HeaderSize)
	bytepacker.PackText(head, 0, Magic)
	bytepacker.Pack(head, offVersion, h.Version)
	bytepacker.Pack(head, offCompression, uint8(h.Compression))
	bytepacker.Pack(head, offCapacity, h.Capacity)
	bytepacker.Pack(head, offPayloadLen, h.PayloadLen)
	bytepacker.Pack(head, offCRC, h.CRC32)
	return head
}

// ParseHeader decodes and checks the header at the start of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes, header needs %d", ErrCorrupt, len(data), HeaderSize)
	}
	if bytepacker.UnpackText(data, 0, len(Magic)) != Magic {
		return Header{}, ErrBadMagic
	}
	h := Header{
		Version:     bytepacker.As[uint8](bytepacker.Unpack(data, offVersion, 1)),
		Compression: Compression(bytepacker.As[uint8](bytepacker.Unpack(data, offCompression, 1))),
		Capacity:    bytepacker.As[uint32](bytepacker.Unpack(data, offCapacity, 4)),
		PayloadLen:  bytepacker.As[uint32](bytepacker.Unpack(data, offPayloadLen, 4)),
		CRC32:       bytepacker.As[uint32](bytepacker.Unpack(data, offCRC, 4)),
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	if h.Capacity > MaxCapacity {
		return Header{}, fmt.Errorf("%w: capacity %d exceeds %d", ErrCorrupt, h.Capacity, MaxCapacity)
	}
	if h.PayloadLen > maxPayload {
		return Header{}, fmt.Errorf("%w: payload length %d exceeds %d", ErrCorrupt, h.PayloadLen, maxPayload)
	}
	return h, nil
}

// Seal returns buf wrapped in a snapshot. When the requested compression does
// not shrink buf the payload is stored uncompressed.
func Seal(buf []byte, c Compression) ([]byte, error) {
	if len(buf) > MaxCapacity {
		return nil, fmt.Errorf("buffer of %d bytes exceeds snapshot capacity %d", len(buf), MaxCapacity)
	}
	payload, used, err := compress(buf, c)
	if err != nil {
		return nil, err
	}
	h := Header{
		Version:     Version,
		Compression: used,
		Capacity:    uint32(len(buf)),
		PayloadLen:  uint32(len(payload)),
		CRC32:       crc32.ChecksumIEEE(buf),
	}
	out := make([]byte, 0, HeaderSize+len(payload))
	out = append(out, h.encode()...)
	return append(out, payload...), nil
}

// Open verifies a snapshot and returns the buffer it carries.
func Open(data []byte) ([]byte, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	payload := data[HeaderSize:]
	if uint32(len(payload)) != h.PayloadLen {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorrupt, len(payload), h.PayloadLen)
	}
	buf, err := decompress(payload, h.Compression, int(h.Capacity))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if got := crc32.ChecksumIEEE(buf); got != h.CRC32 {
		return nil, fmt.Errorf("%w: got %08x want %08x", ErrChecksum, got, h.CRC32)
	}
	return buf, nil
}

// Write seals buf and writes the snapshot to w.
func Write(w io.Writer, buf []byte, c Compression) error {
	data, err := Seal(buf, c)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Read reads one snapshot from r and returns the buffer it carries.
func Read(r io.Reader) ([]byte, error) {
	head := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("read snapshot header: %w", err)
	}
	h, err := ParseHeader(head)
	if err != nil {
		return nil, err
	}
	data := make([]byte, HeaderSize+int(h.PayloadLen))
	copy(data, head)
	if _, err := io.ReadFull(r, data[HeaderSize:]); err != nil {
		return nil, fmt.Errorf("read snapshot payload: %w", err)
	}
	return Open(data)
}
