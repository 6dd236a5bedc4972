package model

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/coocood/freecache"
)

// Cached memoizes probabilities per feature row. The wrapped classifier must
// be deterministic.
type Cached struct {
	next  Classifier
	cache *freecache.Cache
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Entries int64   `json:"entries"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// NewCached wraps next with a cache of roughly sizeBytes. freecache enforces
// its own minimum size of 512KB.
func NewCached(next Classifier, sizeBytes int) *Cached {
	return &Cached{
		next:  next,
		cache: freecache.NewCache(sizeBytes),
	}
}

func (c *Cached) PredictProba(ctx context.Context, features []float64) ([]float64, error) {
	key := encodeFloats(features)
	if value, err := c.cache.Get(key); err == nil {
		return decodeFloats(value), nil
	}

	proba, err := c.next.PredictProba(ctx, features)
	if err != nil {
		return nil, err
	}

	// A failed Set only means the entry is not memoized.
	_ = c.cache.Set(key, encodeFloats(proba), 0)

	return proba, nil
}

// Stats returns the current cache counters.
func (c *Cached) Stats() CacheStats {
	return CacheStats{
		Entries: c.cache.EntryCount(),
		Hits:    c.cache.HitCount(),
		Misses:  c.cache.MissCount(),
		HitRate: c.cache.HitRate(),
	}
}

func encodeFloats(values []float64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decodeFloats(buf []byte) []float64 {
	values := make([]float64, len(buf)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return values
}
