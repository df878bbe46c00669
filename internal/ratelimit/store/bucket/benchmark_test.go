package bucket

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func BenchmarkAllowN(b *testing.B) {
	store := New()
	ctx := context.Background()

	for b.Loop() {
		_, _ = store.AllowN(ctx, "bench-key", 1, 1000, time.Minute)
	}
}

func BenchmarkAllowN_Parallel(b *testing.B) {
	store := New()
	ctx := context.Background()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = store.AllowN(ctx, "bench-key", 1, 1000, time.Minute)
		}
	})
}

// One bucket per client address, as a ward-wide notice spike would produce.
func BenchmarkAllowN_HighCardinality(b *testing.B) {
	store := New()
	ctx := context.Background()

	for i := 0; b.Loop(); i++ {
		key := fmt.Sprintf("ip:10.0.%d.%d:read", (i/256)%256, i%256)
		_, _ = store.AllowN(ctx, key, 1, 100, time.Minute)
	}
}
