package invertible_test

import "testing"

func BenchmarkAddRemove(b *testing.B) {
	f := newIntFilter(b, 1024, 3)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		f.Add(i)
		f.Remove(i)
	}
}

// BenchmarkDiffAndPeel measures reconciling two sketches that differ by a
// handful of elements.
func BenchmarkDiffAndPeel(b *testing.B) {
	local := newIntFilter(b, 1024, 3, span(1, 500)...)
	remote := newIntFilter(b, 1024, 3, span(5, 504)...)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d, err := local.Diff(remote)
		if err != nil {
			b.Fatal(err)
		}
		_, _ = d.Peel()
	}
}
