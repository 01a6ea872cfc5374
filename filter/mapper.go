package filter

import (
	"encoding/binary"
	"fmt"
)

// Mapper derives the bucket indices of an element from its identity digest.
// It is shared by all filter variants so their buckets line up.
type Mapper struct {
	k      int // buckets per element
	n      int // number of buckets
	hasher KeyedHasher
}

func NewMapper(k, n int, hasher KeyedHasher) (Mapper, error) {
	if n <= 0 || k <= 0 || k > n {
		return Mapper{}, fmt.Errorf("%w: mapper needs 0 < k <= n, got k=%d n=%d", ErrInvalidConfiguration, k, n)
	}
	return Mapper{k: k, n: n, hasher: hasher}, nil
}

func (m Mapper) K() int { return m.k }
func (m Mapper) N() int { return m.n }

// Compatible reports whether both mappers produce the same indices.
func (m Mapper) Compatible(other Mapper) bool {
	return m.n == other.n && m.k == other.k && m.SameKey(other)
}

func (m Mapper) SameKey(other Mapper) bool {
	return m.hasher == other.hasher
}

// Indices returns the distinct bucket indices for the digest h0 in the order
// they are first produced. For i in 1..k the index is
// Digest(le64(h0+i)) mod n, so two positions may coincide and the result can
// hold fewer than k indices.
func (m Mapper) Indices(h0 uint64) []int {
	idx := make([]int, 0, m.k)
	var buf [8]byte
	for i := 1; i <= m.k; i++ {
		binary.LittleEndian.PutUint64(buf[:], h0+uint64(i))
		pos := int(m.hasher.Digest(buf[:]) % uint64(m.n))
		if !contains(idx, pos) {
			idx = append(idx, pos)
		}
	}
	return idx
}

// k is small, a linear scan is cheaper than a set
func contains(idx []int, pos int) bool {
	for _, v := range idx {
		if v == pos {
			return true
		}
	}
	return false
}
