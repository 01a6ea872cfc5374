package invertible

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/rag-nar1/Sketches/filter"
)

// wire form of a sketch sent to a peer. Seed elements are never sent.
type wireSketch struct {
	Buckets int          `cbor:"1,keyasint"`
	K       int          `cbor:"2,keyasint"`
	Cells   []wireBucket `cbor:"3,keyasint"`
}

type wireBucket struct {
	_       struct{} `cbor:",toarray"`
	Number  int64
	IDSum   uint64
	HashSum uint32
}

var encMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

// MarshalCBOR encodes the shape and buckets with core deterministic CBOR, so
// equal sketches encode to equal bytes.
func (f *InvertibleBloomFilter[E]) MarshalCBOR() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	w := wireSketch{
		Buckets: f.mapper.N(),
		K:       f.mapper.K(),
		Cells:   make([]wireBucket, len(f.buckets)),
	}
	for i, b := range f.buckets {
		w.Cells[i] = wireBucket{Number: b.Number, IDSum: b.IDSum, HashSum: b.HashSum}
	}
	return encMode.Marshal(w)
}

// UnmarshalSketch decodes a sketch produced by MarshalCBOR. The identity
// function must be the one the sender used.
func UnmarshalSketch[E any](data []byte, identity filter.Identity[E]) (*InvertibleBloomFilter[E], error) {
	var w wireSketch
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", filter.ErrMalformed, err)
	}
	// a zero shape would be replaced by the defaults in Prepare
	if w.Buckets <= 0 || w.K <= 0 {
		return nil, fmt.Errorf("%w: empty shape", filter.ErrMalformed)
	}
	if len(w.Cells) != w.Buckets {
		return nil, fmt.Errorf("%w: header says %d buckets, got %d", filter.ErrMalformed, w.Buckets, len(w.Cells))
	}
	config, mapper, err := filter.Configuration[E]{
		NumberOfBuckets:           w.Buckets,
		NumberOfBucketsPerElement: w.K,
		Identity:                  identity,
	}.Prepare()
	if err != nil {
		return nil, fmt.Errorf("invertible: unmarshal: %w", err)
	}
	buckets := make([]Bucket, len(w.Cells))
	for i, c := range w.Cells {
		buckets[i] = Bucket{Number: c.Number, IDSum: c.IDSum, HashSum: c.HashSum}
	}
	return newWithBuckets(config, mapper, buckets), nil
}
