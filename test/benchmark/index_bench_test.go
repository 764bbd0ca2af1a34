// Package benchmark contains Go benchmarks for the lookup store and
// tokenizer, measuring throughput and allocation behaviour.
package benchmark

import (
	"fmt"
	"testing"

	"github.com/lookup-labs/doclookup/internal/index"
)

// BenchmarkStoreRegister measures per-document insert throughput.
func BenchmarkStoreRegister(b *testing.B) {
	s := index.NewStore()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		name := fmt.Sprintf("doc-%d", i)
		s.Register(name, "this is a benchmark document with several words for measuring the registration throughput of the lookup store")
	}
}

// BenchmarkStoreReplace measures re-registration, which purges the prior
// token contributions before inserting the new ones.
func BenchmarkStoreReplace(b *testing.B) {
	s := index.NewStore()
	s.Register("doc", "initial content for the replacement benchmark")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Register("doc", "replacement content rotating through benchmark iterations")
	}
}

// BenchmarkStoreQuery measures single-word lookup latency over 10 000
// documents.
func BenchmarkStoreQuery(b *testing.B) {
	s := index.NewStore()
	for i := 0; i < 10000; i++ {
		name := fmt.Sprintf("doc-%d", i)
		s.Register(name, "searchable words shared across every benchmark document")
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results := s.Query("searchable")
		_ = results
	}
}

// BenchmarkStoreQueryParallel measures concurrent read throughput.
func BenchmarkStoreQueryParallel(b *testing.B) {
	s := index.NewStore()
	for i := 0; i < 10000; i++ {
		name := fmt.Sprintf("doc-%d", i)
		s.Register(name, "searchable words shared across every benchmark document")
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			results := s.Query("searchable")
			_ = results
		}
	})
}

// BenchmarkStoreRemove measures removal cost at various corpus sizes.
func BenchmarkStoreRemove(b *testing.B) {
	sizes := []int{100, 1000, 5000}
	for _, preload := range sizes {
		b.Run(fmt.Sprintf("preload_%d", preload), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				s := index.NewStore()
				for j := 0; j < preload; j++ {
					s.Register(fmt.Sprintf("doc-%d", j), "removal benchmark document with a handful of words")
				}
				b.StartTimer()
				s.Remove(fmt.Sprintf("doc-%d", i%preload))
			}
		})
	}
}
