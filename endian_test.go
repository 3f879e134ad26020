package bytepacker

import (
	"encoding/binary"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBigEndianMatchesNative(t *testing.T) {
	native := binary.NativeEndian.Uint16([]byte{0x12, 0x34}) == 0x1234
	require.Equal(t, native, IsBigEndian())
}

func TestReverseBytes(t *testing.T) {
	b := []byte("this is a test")
	ReverseBytes(b, len(b))
	assert.Equal(t, "tset a si siht", string(b))

	partial := []byte{1, 2, 3, 4, 5}
	ReverseBytes(partial, 3)
	assert.Equal(t, []byte{3, 2, 1, 4, 5}, partial)

	// n past the end is clamped.
	short := []byte{1, 2}
	ReverseBytes(short, 10)
	assert.Equal(t, []byte{2, 1}, short)
}

func TestNetworkOrderIsBigEndian(t *testing.T) {
	v := uint32(0x01020304)
	raw := make([]byte, 4)
	binary.NativeEndian.PutUint32(raw, v)
	ToNetworkOrder(raw, 4)
	require.Equal(t, []byte{1, 2, 3, 4}, raw)
	ToHostOrder(raw, 4)
	require.Equal(t, v, binary.NativeEndian.Uint32(raw))
}

func TestOrderConversionIsSelfInverse(t *testing.T) {
	condition := func(b []byte) bool {
		orig := append([]byte(nil), b...)
		ToNetworkOrder(b, len(b))
		ToNetworkOrder(b, len(b))
		if !assert.ObjectsAreEqual(orig, b) {
			return false
		}
		ToHostOrder(b, len(b))
		ToNetworkOrder(b, len(b))
		return assert.ObjectsAreEqual(orig, b)
	}
	require.NoError(t, quick.Check(condition, &quick.Config{}))
}
