package engine

import "github.com/hailam/othelloplay/internal/board"

// EvalEntry stores a cached static evaluation.
type EvalEntry struct {
	Key   uint64
	Score int32 // Black-relative
	Used  bool
}

// EvalTable is a hash table for caching leaf evaluations.
type EvalTable struct {
	entries []EvalEntry
	mask    uint64

	hits   uint64
	probes uint64
}

// NewEvalTable creates a new evaluation cache with the given size in MB.
func NewEvalTable(sizeMB int) *EvalTable {
	entrySize := 16
	numEntries := (sizeMB * 1024 * 1024) / entrySize

	// Round down to power of 2
	size := 1
	for size*2 <= numEntries {
		size *= 2
	}

	return &EvalTable{
		entries: make([]EvalEntry, size),
		mask:    uint64(size - 1),
	}
}

// Probe looks up a Black-relative evaluation.
func (et *EvalTable) Probe(key uint64) (int, bool) {
	et.probes++
	entry := &et.entries[key&et.mask]
	if entry.Used && entry.Key == key {
		et.hits++
		return int(entry.Score), true
	}
	return 0, false
}

// Store saves a Black-relative evaluation.
func (et *EvalTable) Store(key uint64, score int) {
	entry := &et.entries[key&et.mask]
	entry.Key = key
	entry.Score = int32(score)
	entry.Used = true
}

// Evaluate returns the cached evaluation of pos from perspective,
// computing and storing it on a miss.
func (et *EvalTable) Evaluate(pos board.Position, perspective board.Color) int {
	score, ok := et.Probe(pos.Hash)
	if !ok {
		score = evaluateBlack(pos)
		et.Store(pos.Hash, score)
	}
	if perspective == board.White {
		return -score
	}
	return score
}

// HitRate returns the cache hit rate as a percentage.
func (et *EvalTable) HitRate() float64 {
	if et.probes == 0 {
		return 0
	}
	return float64(et.hits) / float64(et.probes) * 100
}

// Clear clears the evaluation cache.
func (et *EvalTable) Clear() {
	for i := range et.entries {
		et.entries[i] = EvalEntry{}
	}
	et.hits = 0
	et.probes = 0
}
