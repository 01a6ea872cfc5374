package invertible

import (
	"fmt"
	"slices"

	"github.com/rag-nar1/Sketches/filter"
)

// Diff returns a new filter whose buckets are the elementwise difference of
// f and other: counts are subtracted, idSum and hashSum are XORed. Elements
// present in both cancel out. Neither operand is modified.
func (f *InvertibleBloomFilter[E]) Diff(other *InvertibleBloomFilter[E]) (*InvertibleBloomFilter[E], error) {
	if err := filter.CheckCompatible(f.mapper, other.mapper); err != nil {
		return nil, err
	}

	// snapshot first so the two locks are never held together
	theirs := other.Buckets()

	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Bucket, len(f.buckets))
	for i, b := range f.buckets {
		out[i] = Bucket{
			Number:  b.Number - theirs[i].Number,
			IDSum:   b.IDSum ^ theirs[i].IDSum,
			HashSum: b.HashSum ^ theirs[i].HashSum,
		}
	}
	return newWithBuckets(f.config.Shape(), f.mapper, out), nil
}

// DifferenceScore counts the non-zero fields over all buckets. It is 0 for
// the diff of a filter with itself.
func (f *InvertibleBloomFilter[E]) DifferenceScore() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	score := 0
	for _, b := range f.buckets {
		if b.Number != 0 {
			score++
		}
		if b.IDSum != 0 {
			score++
		}
		if b.HashSum != 0 {
			score++
		}
	}
	return score
}

type PureBucket struct {
	Index  int
	Digest uint64
	Sign   int64 // +1 when the digest is on the left side of a diff, -1 otherwise
}

// PureBuckets lists the pure buckets in index order.
func (f *InvertibleBloomFilter[E]) PureBuckets() []PureBucket {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var pure []PureBucket
	for i, b := range f.buckets {
		if b.Pure() {
			pure = append(pure, PureBucket{Index: i, Digest: b.IDSum, Sign: b.Number})
		}
	}
	return pure
}

// Difference is the listing of a diff result.
type Difference struct {
	Local  []uint64 // digests only in the receiver of Diff
	Remote []uint64 // digests only in the argument of Diff
}

func (d Difference) Len() int {
	return len(d.Local) + len(d.Remote)
}

// Peel lists every digest of a diff result. A pure bucket is only peeled
// when its digest maps back onto it; its contribution is then removed from
// all of its buckets, which may expose new pure buckets. Peel works on a
// copy and leaves f unchanged. If buckets remain non-empty the partial
// result is returned with ErrPeelIncomplete.
func (f *InvertibleBloomFilter[E]) Peel() (Difference, error) {
	cells := f.Buckets()

	var diff Difference
	queue := make([]int, 0, len(cells))
	for i, b := range cells {
		if b.Pure() {
			queue = append(queue, i)
		}
	}

	maxSteps := len(cells) * (f.mapper.K() + 2)
	for steps := 0; len(queue) > 0 && steps < maxSteps; steps++ {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		b := cells[i]
		if !b.Pure() {
			continue
		}
		idx := f.mapper.Indices(b.IDSum)
		if !slices.Contains(idx, i) {
			continue
		}

		if b.Number == 1 {
			diff.Local = append(diff.Local, b.IDSum)
		} else {
			diff.Remote = append(diff.Remote, b.IDSum)
		}
		for _, j := range idx {
			cells[j] = cells[j].toggle(b.IDSum, -b.Number)
			if cells[j].Pure() {
				queue = append(queue, j)
			}
		}
	}

	left := 0
	for _, b := range cells {
		if !b.Empty() {
			left++
		}
	}
	if left > 0 {
		return diff, fmt.Errorf("%w: %d buckets left after listing %d digests", filter.ErrPeelIncomplete, left, diff.Len())
	}
	return diff, nil
}
