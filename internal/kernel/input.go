// Package kernel implements the SHA-256 scoring kernels of the miner.
//
// A kernel scores the 33-byte Krist mining message address || block-hex ||
// nonce: the score is the leading 48 bits of the message's SHA-256 digest,
// and a nonce solves a target when score <= work.
package kernel

import (
	"github.com/krist-network/krist-miner/internal/krist"
)

// MessageLength is the length of the hashed mining message in bytes.
const MessageLength = krist.AddressLength + krist.ShortHashLength*2 + krist.NonceLength

const (
	blockOffset = krist.AddressLength
	nonceOffset = krist.AddressLength + krist.ShortHashLength*2
)

// Input is a 64-byte padded SHA-256 block holding a mining message. The
// padding bytes [33:64] are written once at construction and never touched
// again; only the block and nonce regions mutate.
type Input struct {
	data  [64]byte
	nonce uint64
}

// NewInput creates an Input for the given address with the nonce counter
// seeded at start and advanced once, so the first nonce is that of
// start+1. The block region is zero until SetBlock is called.
func NewInput(address krist.Address, start uint64) *Input {
	in := &Input{nonce: start}

	copy(in.data[:krist.AddressLength], address[:])

	// Single-block SHA-256 padding for a 33-byte message: 0x80 marker, zero
	// fill, big-endian bit length (264 = 0x0108) in the trailing two bytes.
	in.data[MessageLength] = 0x80
	in.data[62] = byte(MessageLength * 8 >> 8)
	in.data[63] = byte(MessageLength * 8 & 0xff)

	in.Advance()
	return in
}

// SetBlock writes a new block short-hash (hex form) into the input.
func (in *Input) SetBlock(block [krist.ShortHashLength * 2]byte) {
	copy(in.data[blockOffset:nonceOffset], block[:])
}

// Advance increments the nonce counter and rewrites the nonce region. Each
// nonce byte is a 6-bit slice of the counter biased into printable ASCII
// [0x20, 0x5F].
func (in *Input) Advance() {
	in.nonce++
	n := in.nonce
	for i := 0; i < krist.NonceLength; i++ {
		in.data[nonceOffset+i] = byte((n>>(6*i))&0x3f) + 0x20
	}
}

// Nonce returns the current expanded nonce bytes.
func (in *Input) Nonce() [krist.NonceLength]byte {
	var nonce [krist.NonceLength]byte
	copy(nonce[:], in.data[nonceOffset:MessageLength])
	return nonce
}

// Counter returns the current nonce counter value.
func (in *Input) Counter() uint64 {
	return in.nonce
}

// Message returns the 33-byte message to hash.
func (in *Input) Message() []byte {
	return in.data[:MessageLength]
}

// Block returns the full padded 64-byte block.
func (in *Input) Block() *[64]byte {
	return &in.data
}

// ExpandNonce writes the nonce expansion of counter n, as produced by
// Advance, into an 11-byte array. Used to reconstruct GPU-found nonces.
func ExpandNonce(n uint64) [krist.NonceLength]byte {
	var nonce [krist.NonceLength]byte
	for i := 0; i < krist.NonceLength; i++ {
		nonce[i] = byte((n>>(6*i))&0x3f) + 0x20
	}
	return nonce
}
