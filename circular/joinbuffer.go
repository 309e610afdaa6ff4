package circular

import (
	"math/bits"

	"github.com/grailbio/base/log"
)

// DefaultJoinBufferSize is the default JoinBuffer capacity.  It is the size
// of the out-of-order window tolerated between two streams.
const DefaultJoinBufferSize = 100000

// NextExp2 returns the smallest power of 2 strictly greater than x.  A ring of
// that size can hold x keys with one slot to spare.
func NextExp2(x int) int {
	return 2 << uint(63-bits.LeadingZeros64(uint64(x)))
}

// JoinBuffer is a bounded, insertion-ordered map from read ID to V.  Once it
// holds Cap() entries, each new insertion evicts the entry that was inserted
// earliest.  Lookups never change the eviction order, so this is a FIFO
// window, not an LRU cache.
//
// Keys live in a power-of-two ring indexed by absolute insertion counters;
// values live in a map.  The two are always the same size.  A JoinBuffer is
// not threadsafe.
type JoinBuffer[V any] struct {
	// ring[i&mask] holds the key inserted at absolute position i, for
	// i in [first, limit).
	ring  []string
	mask  uint64
	first uint64
	limit uint64
	cap   int
	vals  map[string]V
}

// NewJoinBuffer creates an empty JoinBuffer holding at most capacity entries.
func NewJoinBuffer[V any](capacity int) *JoinBuffer[V] {
	if capacity <= 0 {
		log.Panicf("circular.NewJoinBuffer: capacity must be positive, got %d", capacity)
	}
	nCirc := NextExp2(capacity)
	return &JoinBuffer[V]{
		ring: make([]string, nCirc),
		mask: uint64(nCirc - 1),
		cap:  capacity,
		vals: make(map[string]V, capacity),
	}
}

// Insert appends key to the tail of the window.  If key is already present,
// its value is replaced and it keeps its original position.  If the window is
// full, the oldest entry is evicted and returned with evicted=true.
func (b *JoinBuffer[V]) Insert(key string, v V) (evictedKey string, evicted bool) {
	if _, ok := b.vals[key]; ok {
		b.vals[key] = v
		return "", false
	}
	if b.Len() == b.cap {
		evictedKey = b.ring[b.first&b.mask]
		b.ring[b.first&b.mask] = ""
		delete(b.vals, evictedKey)
		b.first++
		evicted = true
	}
	b.ring[b.limit&b.mask] = key
	b.limit++
	b.vals[key] = v
	return
}

// Lookup returns the value stored for key, if any.
func (b *JoinBuffer[V]) Lookup(key string) (V, bool) {
	v, ok := b.vals[key]
	return v, ok
}

// Oldest returns the key at the head of the window, i.e. the next one to be
// evicted.
func (b *JoinBuffer[V]) Oldest() (string, bool) {
	if b.first == b.limit {
		return "", false
	}
	return b.ring[b.first&b.mask], true
}

// Len returns the number of entries currently held.
func (b *JoinBuffer[V]) Len() int {
	return int(b.limit - b.first)
}

// Cap returns the maximum number of entries.
func (b *JoinBuffer[V]) Cap() int {
	return b.cap
}
