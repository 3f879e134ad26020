package bytepacker

import "github.com/rawbytedev/bytepacker/internal/common"

// IsBigEndian reports whether the host stores the most significant byte first.
func IsBigEndian() bool {
	return common.HostBigEndian()
}

// ReverseBytes reverses the first n bytes of b in place and returns b.
func ReverseBytes(b []byte, n int) []byte {
	common.Reverse(b, n)
	return b
}

// ToNetworkOrder converts the first n bytes of b from host to network order.
// Applying it twice restores the original bytes.
func ToNetworkOrder(b []byte, n int) []byte {
	if !common.HostBigEndian() {
		common.Reverse(b, n)
	}
	return b
}

// ToHostOrder converts the first n bytes of b from network to host order.
// Network and host conversion are the same transform.
func ToHostOrder(b []byte, n int) []byte {
	return ToNetworkOrder(b, n)
}
