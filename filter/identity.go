package filter

import (
	"github.com/dgryski/go-metro"
	"github.com/zeebo/xxh3"
	"github.com/zhenjl/cityhash"
	"golang.org/x/exp/constraints"
)

// Identity returns a stable digest for an element. Identical elements must
// produce identical digests in every process that takes part in a diff.
type Identity[E any] func(E) uint64

func StringIdentity(s string) uint64 {
	return xxh3.HashString(s)
}

func BytesIdentity(b []byte) uint64 {
	return xxh3.Hash(b)
}

func MetroIdentity(seed uint64) Identity[[]byte] {
	return func(b []byte) uint64 {
		return metro.Hash64(b, seed)
	}
}

func CityIdentity(b []byte) uint64 {
	return cityhash.CityHash64(b, uint32(len(b)))
}

// splitmix64 finalizer constants
const (
	mix1 uint64 = 0xbf58476d1ce4e5b9
	mix2 uint64 = 0x94d049bb133111eb
)

var (
	mix1Inv = inverseOdd(mix1)
	mix2Inv = inverseOdd(mix2)
)

// IntegerIdentity scrambles an integer with a bijective mixer. Consecutive
// values would otherwise share most of their buckets, because the mapping
// hashes digest+i.
func IntegerIdentity[T constraints.Integer](v T) uint64 {
	z := uint64(v)
	z = (z ^ (z >> 30)) * mix1
	z = (z ^ (z >> 27)) * mix2
	return z ^ (z >> 31)
}

// IntegerFromIdentity inverts IntegerIdentity.
func IntegerFromIdentity[T constraints.Integer](d uint64) T {
	z := unshiftXor(d, 31)
	z = unshiftXor(z*mix2Inv, 27)
	z = unshiftXor(z*mix1Inv, 30)
	return T(z)
}

// inverseOdd returns the multiplicative inverse of an odd c modulo 2^64 by
// Newton iteration; each step doubles the number of correct low bits.
func inverseOdd(c uint64) uint64 {
	inv := c
	for i := 0; i < 5; i++ {
		inv *= 2 - c*inv
	}
	return inv
}

// unshiftXor inverts z ^= z >> s.
func unshiftXor(z uint64, s uint) uint64 {
	x := z
	for i := s; i < 64; i += s {
		x = z ^ (x >> s)
	}
	return x
}
