package filter

import (
	"encoding/binary"
	"hash/crc32"

	"golang.org/x/crypto/sha3"
)

const (
	// DefaultSeed is the public constant every party derives the MAC key from.
	DefaultSeed = 1234567890

	KeySize    = 32
	DigestSize = 8
)

// KeyedHasher maps byte sequences to integers with a keyed MAC.
// It holds no hashing state between calls and is safe to share.
type KeyedHasher struct {
	key [KeySize]byte
}

var defaultHasher = NewKeyedHasher(DefaultSeed)

// DefaultHasher returns the hasher keyed from DefaultSeed.
func DefaultHasher() KeyedHasher {
	return defaultHasher
}

// NewKeyedHasher derives the MAC key from seed with SHAKE-256.
func NewKeyedHasher(seed uint64) KeyedHasher {
	var in [8]byte
	binary.LittleEndian.PutUint64(in[:], seed)

	var h KeyedHasher
	sha3.ShakeSum256(h.key[:], in[:])
	return h
}

func (h KeyedHasher) Key() [KeySize]byte {
	return h.key
}

// Digest absorbs data into KMAC256 and folds the 8 output bytes into an
// integer by summing them as signed bytes and taking the absolute value.
func (h KeyedHasher) Digest(data []byte) uint64 {
	out := KMAC256(h.key[:], data, DigestSize, nil)

	sum := int64(0)
	for _, b := range out {
		sum += int64(int8(b))
	}
	if sum < 0 {
		sum = -sum
	}
	return uint64(sum)
}

// Checksum is the CRC-32 of the little-endian encoding of x.
func Checksum(x uint64) uint32 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], x)
	return crc32.ChecksumIEEE(buf[:])
}
