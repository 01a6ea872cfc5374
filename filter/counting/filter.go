package counting

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/rag-nar1/Sketches/filter"
)

// CountingBloomFilter keeps a signed counter per bucket so elements can be
// removed. Counters are int64; Remove does not check that the element was
// added, so misuse drives counters negative instead of failing.
type CountingBloomFilter[E any] struct {
	mu     sync.RWMutex
	config filter.Configuration[E]
	mapper filter.Mapper

	counters []int64
}

func NewCountingBloomFilter[E any](config filter.Configuration[E]) (*CountingBloomFilter[E], error) {
	config, mapper, err := config.Prepare()
	if err != nil {
		return nil, err
	}
	cf := &CountingBloomFilter[E]{
		config:   config,
		mapper:   mapper,
		counters: make([]int64, mapper.N()),
	}
	for _, e := range config.Elements {
		cf.Add(e)
	}
	return cf, nil
}

func (cf *CountingBloomFilter[E]) Configuration() filter.Configuration[E] {
	return cf.config
}

func (cf *CountingBloomFilter[E]) Hash(e E) []int {
	return cf.mapper.Indices(cf.config.Identity(e))
}

func (cf *CountingBloomFilter[E]) Add(e E) {
	cf.apply(cf.Hash(e), 1)
}

// Remove decrements the counters of e. The caller must only remove elements
// that were added.
func (cf *CountingBloomFilter[E]) Remove(e E) {
	cf.apply(cf.Hash(e), -1)
}

func (cf *CountingBloomFilter[E]) apply(idx []int, delta int64) {
	cf.mu.Lock()
	defer cf.mu.Unlock()
	for _, i := range idx {
		cf.counters[i] += delta
	}
}

func (cf *CountingBloomFilter[E]) ContainsProbably(e E) bool {
	idx := cf.Hash(e)

	cf.mu.RLock()
	defer cf.mu.RUnlock()
	for _, i := range idx {
		if cf.counters[i] <= 0 {
			return false
		}
	}
	return true
}

// Counters returns a copy of the bucket counters.
func (cf *CountingBloomFilter[E]) Counters() []int64 {
	cf.mu.RLock()
	defer cf.mu.RUnlock()
	return append([]int64(nil), cf.counters...)
}

// Serialize the filter to a byte slice in the following format:
// header|counters
// header format: uint32(n)|uint32(k), then n two's complement int64 counters
func (cf *CountingBloomFilter[E]) Serialize() []byte {
	cf.mu.RLock()
	defer cf.mu.RUnlock()
	buf := bytes.NewBuffer(make([]byte, 0, filter.HeaderSize+len(cf.counters)*8))
	filter.SerializeHeader(buf, cf.mapper)
	for _, c := range cf.counters {
		filter.SerializeUint(buf, uint64(c), 8)
	}
	return buf.Bytes()
}

func Deserialize[E any](data []byte, identity filter.Identity[E]) (*CountingBloomFilter[E], error) {
	buf := bytes.NewBuffer(data)
	config, err := filter.DeserializeHeader(buf, identity)
	if err != nil {
		return nil, err
	}
	if err := filter.CheckPayload(buf, config.NumberOfBuckets*8); err != nil {
		return nil, err
	}
	cf, err := NewCountingBloomFilter(config)
	if err != nil {
		return nil, fmt.Errorf("counting: deserialize: %w", err)
	}
	for i := range cf.counters {
		c, err := filter.DeserializeUint[uint64](buf, 8)
		if err != nil {
			return nil, err
		}
		cf.counters[i] = int64(c)
	}
	if buf.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", filter.ErrMalformed, buf.Len())
	}
	return cf, nil
}
