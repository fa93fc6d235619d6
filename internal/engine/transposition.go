package engine

import (
	"github.com/hailam/chessthink/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

func (f TTFlag) String() string {
	switch f {
	case TTExact:
		return "exact"
	case TTLowerBound:
		return "lower"
	case TTUpperBound:
		return "upper"
	}
	return "?"
}

// DefaultTableSlots is the number of slots in a full-size table.
const DefaultTableSlots = 10_000_000

// TTEntry represents an entry in the transposition table. Entries are only
// written by internal search nodes, so Depth is at least 1 for an occupied
// slot and 0 for an empty one.
type TTEntry struct {
	Key      uint64     // Fingerprint of the position that wrote the slot
	BestMove board.Move // Best move found
	Score    int16      // Score (bounded by flag)
	Depth    int8       // Search depth
	Flag     TTFlag     // Type of bound
}

// TranspositionTable is a fixed-size, lossy cache of search results. The
// slot for a fingerprint is fingerprint mod size and a store always
// overwrites the slot. Unless key verification is enabled a probe trusts
// whatever occupies the slot.
//
// The table is not safe for concurrent use.
type TranspositionTable struct {
	entries []TTEntry
	size    uint64
	verify  bool

	hits   uint64
	probes uint64
}

// NewTranspositionTable creates a table with the given number of slots.
func NewTranspositionTable(slots int, verifyKeys bool) *TranspositionTable {
	if slots <= 0 {
		slots = DefaultTableSlots
	}
	return &TranspositionTable{
		entries: make([]TTEntry, slots),
		size:    uint64(slots),
		verify:  verifyKeys,
	}
}

// Probe looks up a position in the transposition table.
// Returns the entry and true if the slot is occupied, otherwise returns an
// empty entry and false.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes++

	entry := tt.entries[hash%tt.size]
	if entry.Depth <= 0 {
		return TTEntry{}, false
	}
	if tt.verify && entry.Key != hash {
		return TTEntry{}, false
	}

	tt.hits++
	return entry, true
}

// Store saves a search result, replacing whatever the slot held.
func (tt *TranspositionTable) Store(hash uint64, depth int, score int, flag TTFlag, bestMove board.Move) {
	tt.entries[hash%tt.size] = TTEntry{
		Key:      hash,
		BestMove: bestMove,
		Score:    int16(score),
		Depth:    int8(clamp(depth, 1, 127)),
		Flag:     flag,
	}
}

// Clear clears the transposition table.
func (tt *TranspositionTable) Clear() {
	clear(tt.entries)
	tt.hits = 0
	tt.probes = 0
}

// HashFull returns the permille (parts per thousand) of the table that is used.
func (tt *TranspositionTable) HashFull() int {
	// Sample first 1000 entries
	sampleSize := 1000
	if uint64(sampleSize) > tt.size {
		sampleSize = int(tt.size)
	}
	used := 0
	for i := 0; i < sampleSize; i++ {
		if tt.entries[i].Depth > 0 {
			used++
		}
	}
	return used * 1000 / sampleSize
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

// Size returns the number of slots in the table.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}

// Snapshot returns a copy of every occupied slot.
func (tt *TranspositionTable) Snapshot() []TTEntry {
	var out []TTEntry
	for _, e := range tt.entries {
		if e.Depth > 0 {
			out = append(out, e)
		}
	}
	return out
}

// Restore stores previously snapshotted entries. Each entry lands in the slot
// of its own fingerprint, so tables of different sizes can exchange entries.
func (tt *TranspositionTable) Restore(entries []TTEntry) {
	for _, e := range entries {
		if e.Depth <= 0 {
			continue
		}
		tt.entries[e.Key%tt.size] = e
	}
}

// AdjustScoreFromTT converts a stored mate score, which counts plies from
// the node that stored it, back into a distance from the root.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT adjusts a score for storage in the transposition table.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
