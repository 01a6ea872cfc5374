package bloom

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/rag-nar1/Sketches/filter"
)

// BloomFilter is a basic Bloom filter with one bit per bucket. It supports no removal.
type BloomFilter[E any] struct {
	mu     sync.RWMutex
	config filter.Configuration[E]
	mapper filter.Mapper

	bits []uint64 // the filter actual storage
}

func NewBloomFilter[E any](config filter.Configuration[E]) (*BloomFilter[E], error) {
	config, mapper, err := config.Prepare()
	if err != nil {
		return nil, err
	}
	bf := &BloomFilter[E]{
		config: config,
		mapper: mapper,
		bits:   make([]uint64, mapper.N()/64+1),
	}
	for _, e := range config.Elements {
		bf.Add(e)
	}
	return bf, nil
}

func (bf *BloomFilter[E]) Configuration() filter.Configuration[E] {
	return bf.config
}

// Hash returns the bucket indices e maps to.
func (bf *BloomFilter[E]) Hash(e E) []int {
	return bf.mapper.Indices(bf.config.Identity(e))
}

func (bf *BloomFilter[E]) Add(e E) {
	idx := bf.Hash(e)

	bf.mu.Lock()
	defer bf.mu.Unlock()
	for _, i := range idx {
		bf.bits[i/64] |= uint64(1) << (i % 64)
	}
}

// ContainsProbably is true iff every bucket e maps to is set. Elements that
// were added are always reported.
func (bf *BloomFilter[E]) ContainsProbably(e E) bool {
	idx := bf.Hash(e)

	bf.mu.RLock()
	defer bf.mu.RUnlock()
	for _, i := range idx {
		if (bf.bits[i/64]>>(i%64))&1 == 0 {
			return false
		}
	}
	return true
}

// Buckets returns a copy of the flags.
func (bf *BloomFilter[E]) Buckets() []bool {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	flags := make([]bool, bf.mapper.N())
	for i := range flags {
		flags[i] = (bf.bits[i/64]>>(i%64))&1 == 1
	}
	return flags
}

// Serialize the filter to a byte slice in the following format:
// header|bits
// header format: uint32(n)|uint32(k) => 4 + 4 = 8 bytes
func (bf *BloomFilter[E]) Serialize() []byte {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	buf := bytes.NewBuffer(make([]byte, 0, filter.HeaderSize+len(bf.bits)*8))
	filter.SerializeHeader(buf, bf.mapper)
	for _, bit := range bf.bits {
		filter.SerializeUint(buf, bit, 8)
	}
	return buf.Bytes()
}

func Deserialize[E any](data []byte, identity filter.Identity[E]) (*BloomFilter[E], error) {
	buf := bytes.NewBuffer(data)
	config, err := filter.DeserializeHeader(buf, identity)
	if err != nil {
		return nil, err
	}
	if err := filter.CheckPayload(buf, (config.NumberOfBuckets/64+1)*8); err != nil {
		return nil, err
	}
	bf, err := NewBloomFilter(config)
	if err != nil {
		return nil, fmt.Errorf("bloom: deserialize: %w", err)
	}
	for i := range bf.bits {
		if bf.bits[i], err = filter.DeserializeUint[uint64](buf, 8); err != nil {
			return nil, err
		}
	}
	if buf.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", filter.ErrMalformed, buf.Len())
	}
	return bf, nil
}
