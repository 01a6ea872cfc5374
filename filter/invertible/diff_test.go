package invertible_test

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rag-nar1/Sketches/filter"
	"github.com/rag-nar1/Sketches/filter/invertible"
)

func TestDiffSelfIsZero(t *testing.T) {
	f := newIntFilter(t, 128, 3, span(1, 5)...)
	f.Add(6)

	d, err := f.Diff(f)
	require.NoError(t, err)
	for _, b := range d.Buckets() {
		require.Equal(t, invertible.Bucket{}, b)
	}
	require.Equal(t, 0, d.DifferenceScore())
}

func TestDiffDoesNotMutateOperands(t *testing.T) {
	a := newIntFilter(t, 128, 3, span(1, 6)...)
	b := newIntFilter(t, 128, 3, span(2, 7)...)
	aBefore, bBefore := a.Buckets(), b.Buckets()

	d, err := a.Diff(b)
	require.NoError(t, err)
	d.Add(100)
	d.Remove(1)

	require.Equal(t, aBefore, a.Buckets())
	require.Equal(t, bBefore, b.Buckets())
}

func TestDiffElementwise(t *testing.T) {
	a := newIntFilter(t, 64, 3, 1, 2, 3)
	b := newIntFilter(t, 64, 3, 3, 4)

	d, err := a.Diff(b)
	require.NoError(t, err)
	ab, bb, db := a.Buckets(), b.Buckets(), d.Buckets()
	for i := range db {
		require.Equal(t, ab[i].Number-bb[i].Number, db[i].Number)
		require.Equal(t, ab[i].IDSum^bb[i].IDSum, db[i].IDSum)
		require.Equal(t, ab[i].HashSum^bb[i].HashSum, db[i].HashSum)
	}
	require.Empty(t, d.Configuration().Elements)
}

func TestDiffScore(t *testing.T) {
	base := newIntFilter(t, 128, 3, span(1, 6)...)
	other := newIntFilter(t, 128, 3, span(2, 7)...)

	d, err := base.Diff(other)
	require.NoError(t, err)
	require.NotZero(t, d.DifferenceScore())

	same := newIntFilter(t, 128, 3, 6, 5, 4, 3, 2, 1)
	d, err = base.Diff(same)
	require.NoError(t, err)
	require.Zero(t, d.DifferenceScore())
}

func TestDiffIncompatible(t *testing.T) {
	base := newIntFilter(t, 128, 3, 1)
	tests := []struct {
		name  string
		other *invertible.InvertibleBloomFilter[int]
	}{
		{"different number of buckets", newIntFilter(t, 64, 3, 1)},
		{"different buckets per element", newIntFilter(t, 128, 4, 1)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := base.Diff(test.other)
			require.ErrorIs(t, err, filter.ErrIncompatible)
			var ie *filter.IncompatibleFilterError
			require.True(t, errors.As(err, &ie))
		})
	}
}

func TestDecodeOnDiff(t *testing.T) {
	local := newIntFilter(t, 128, 3, span(1, 6)...)
	remote := newIntFilter(t, 128, 3, span(1, 5)...)

	d, err := local.Diff(remote)
	require.NoError(t, err)
	got, err := d.Decode(6)
	require.NoError(t, err)
	require.Equal(t, 6, filter.IntegerFromIdentity[int](got))

	// an element only the remote side has is pure with a negative count
	remote = newIntFilter(t, 128, 3, span(1, 7)...)
	d, err = local.Diff(remote)
	require.NoError(t, err)
	got, err = d.Decode(7)
	require.NoError(t, err)
	require.Equal(t, 7, filter.IntegerFromIdentity[int](got))
}

func values(digests []uint64) []int {
	out := make([]int, 0, len(digests))
	for _, d := range digests {
		out = append(out, filter.IntegerFromIdentity[int](d))
	}
	slices.Sort(out)
	return out
}

func TestPeel(t *testing.T) {
	tests := []struct {
		name                string
		local, remote       []int
		wantLocal, wantRemo []int
	}{
		{"one each side", span(1, 6), span(2, 7), []int{1}, []int{7}},
		{"two each side", span(1, 10), span(3, 12), []int{1, 2}, []int{11, 12}},
		{"local only", span(1, 4), nil, []int{1, 2, 3, 4}, []int{}},
		{"identical", span(1, 4), span(1, 4), []int{}, []int{}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			local := newIntFilter(t, 128, 3, test.local...)
			remote := newIntFilter(t, 128, 3, test.remote...)
			d, err := local.Diff(remote)
			require.NoError(t, err)
			before := d.Buckets()

			got, err := d.Peel()
			require.NoError(t, err)
			require.Equal(t, test.wantLocal, values(got.Local))
			require.Equal(t, test.wantRemo, values(got.Remote))
			require.Equal(t, before, d.Buckets())
		})
	}
}

func TestPeelIncomplete(t *testing.T) {
	byLength := func(s string) uint64 { return uint64(len(s)) }
	f, err := invertible.NewInvertibleBloomFilter(filter.Configuration[string]{
		NumberOfBuckets:           128,
		NumberOfBucketsPerElement: 3,
		Identity:                  byLength,
	})
	require.NoError(t, err)
	// seeds are deduplicated by digest, adds are not
	f.Add("ab")
	f.Add("cd")

	got, err := f.Peel()
	require.ErrorIs(t, err, filter.ErrPeelIncomplete)
	require.Zero(t, got.Len())
}

func TestConcurrentDiff(t *testing.T) {
	a := newIntFilter(t, 256, 3, span(1, 50)...)
	b := newIntFilter(t, 256, 3, span(25, 75)...)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(3)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				a.Add(1000 + w*100 + i)
				b.Remove(1000 + w*100 + i)
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if _, err := a.Diff(b); err != nil {
					t.Error(err)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if _, err := b.Diff(a); err != nil {
					t.Error(err)
				}
				b.ContainsProbably(i)
				_, _ = a.Decode(i)
			}
		}()
	}
	wg.Wait()
}
