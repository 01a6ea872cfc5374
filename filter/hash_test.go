package filter_test

import (
	"encoding/binary"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rag-nar1/Sketches/filter"
)

func TestDigestDeterministic(t *testing.T) {
	testData := [][]byte{
		[]byte("RAGNAR"),
		[]byte("New value 1"),
		{},
		{0, 1, 2, 3, 255},
	}

	a := filter.DefaultHasher()
	b := filter.NewKeyedHasher(filter.DefaultSeed)
	for _, data := range testData {
		h1 := a.Digest(data)
		h2 := b.Digest(data)
		if h1 != h2 {
			t.Errorf("expected equality between digests got h1: %d, h2: %d", h1, h2)
		}
	}
}

func TestDigestRange(t *testing.T) {
	h := filter.DefaultHasher()
	var buf [8]byte
	for i := uint64(0); i < 1000; i++ {
		binary.LittleEndian.PutUint64(buf[:], i)
		// sum of eight signed bytes lies in [-1024, 1016]
		require.LessOrEqual(t, h.Digest(buf[:]), uint64(1024))
	}
}

func TestKeyDependsOnSeed(t *testing.T) {
	a := filter.NewKeyedHasher(1)
	b := filter.NewKeyedHasher(2)
	require.NotEqual(t, a.Key(), b.Key())
	require.Equal(t, filter.DefaultHasher().Key(), filter.NewKeyedHasher(filter.DefaultSeed).Key())
}

func TestDigestConcurrent(t *testing.T) {
	h := filter.DefaultHasher()
	want := h.Digest([]byte("shared"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := h.Digest([]byte("shared")); got != want {
					t.Errorf("digest changed under concurrency: %d != %d", got, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestChecksum(t *testing.T) {
	require.Equal(t, filter.Checksum(42), filter.Checksum(42))
	require.NotEqual(t, filter.Checksum(1), filter.Checksum(2))
	require.NotZero(t, filter.Checksum(0))
}
