package invertible

import (
	"sync"

	"github.com/rag-nar1/Sketches/filter"
)

// Bucket is one cell of an invertible Bloom filter.
type Bucket struct {
	Number  int64  // net inserts
	IDSum   uint64 // XOR of identity digests
	HashSum uint32 // XOR of the checksums of those digests
}

// Pure reports whether the bucket holds exactly one digest: its count is +1
// or -1 and the checksum matches. This is a probabilistic check.
func (b Bucket) Pure() bool {
	if b.Number != 1 && b.Number != -1 {
		return false
	}
	return b.HashSum == filter.Checksum(b.IDSum)
}

func (b Bucket) Empty() bool {
	return b.Number == 0 && b.IDSum == 0 && b.HashSum == 0
}

func (b Bucket) toggle(digest uint64, delta int64) Bucket {
	b.Number += delta
	b.IDSum ^= digest
	b.HashSum ^= filter.Checksum(digest)
	return b
}

// InvertibleBloomFilter supports membership, removal, single element
// decoding and diffing against a filter of the same shape.
type InvertibleBloomFilter[E any] struct {
	mu     sync.RWMutex
	config filter.Configuration[E]
	mapper filter.Mapper

	buckets []Bucket
}

func NewInvertibleBloomFilter[E any](config filter.Configuration[E]) (*InvertibleBloomFilter[E], error) {
	config, mapper, err := config.Prepare()
	if err != nil {
		return nil, err
	}
	f := newWithBuckets(config, mapper, make([]Bucket, mapper.N()))
	for _, e := range config.Elements {
		f.Add(e)
	}
	return f, nil
}

func newWithBuckets[E any](config filter.Configuration[E], mapper filter.Mapper, buckets []Bucket) *InvertibleBloomFilter[E] {
	return &InvertibleBloomFilter[E]{
		config:  config,
		mapper:  mapper,
		buckets: buckets,
	}
}

func (f *InvertibleBloomFilter[E]) Configuration() filter.Configuration[E] {
	return f.config
}

func (f *InvertibleBloomFilter[E]) Hash(e E) []int {
	return f.mapper.Indices(f.config.Identity(e))
}

func (f *InvertibleBloomFilter[E]) Add(e E) {
	f.apply(e, 1)
}

// Remove undoes a matching Add exactly. It does not check that e was added.
func (f *InvertibleBloomFilter[E]) Remove(e E) {
	f.apply(e, -1)
}

func (f *InvertibleBloomFilter[E]) apply(e E, delta int64) {
	digest := f.config.Identity(e)
	idx := f.mapper.Indices(digest)

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range idx {
		f.buckets[i] = f.buckets[i].toggle(digest, delta)
	}
}

func (f *InvertibleBloomFilter[E]) ContainsProbably(e E) bool {
	idx := f.Hash(e)

	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, i := range idx {
		if f.buckets[i].Number == 0 {
			return false
		}
	}
	return true
}

// Decode returns the identity digest held by the buckets of e. It fails with
// a *filter.DecodeError if any of them is not pure.
func (f *InvertibleBloomFilter[E]) Decode(e E) (uint64, error) {
	idx := f.Hash(e)

	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, i := range idx {
		if b := f.buckets[i]; !b.Pure() {
			return 0, &filter.DecodeError{
				Index:   i,
				Number:  b.Number,
				IDSum:   b.IDSum,
				HashSum: b.HashSum,
			}
		}
	}
	return f.buckets[idx[0]].IDSum, nil
}

// Buckets returns a copy of the bucket array.
func (f *InvertibleBloomFilter[E]) Buckets() []Bucket {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Bucket(nil), f.buckets...)
}
