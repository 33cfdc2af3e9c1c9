package ml

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/maypok86/otter/v2"
)

// batchCache is the content-addressed prediction cache: the key is the
// sha256 of the serialized batch, so any change in coordinates, time
// features, or activity name produces a new entry.
type batchCache struct {
	cache *otter.Cache[string, []PredictionResponse]
}

func newBatchCache(maxSize int, ttl time.Duration) *batchCache {
	cache := otter.Must(&otter.Options[string, []PredictionResponse]{
		MaximumSize:      maxSize,
		ExpiryCalculator: otter.ExpiryWriting[string, []PredictionResponse](ttl),
	})

	return &batchCache{cache: cache}
}

func (b *batchCache) keyFor(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (b *batchCache) get(key string) ([]PredictionResponse, bool) {
	return b.cache.GetIfPresent(key)
}

func (b *batchCache) set(key string, preds []PredictionResponse) {
	b.cache.Set(key, preds)
}
