package engine

import (
	"math/bits"
	"sync/atomic"

	"github.com/swgillespie/a4/internal/board"
)

// Bound classifies a stored score relative to the search window that
// produced it.
type Bound uint8

const (
	BoundNone  Bound = 0
	BoundExact Bound = 1 // score is the true minimax value
	BoundLower Bound = 2 // score is a lower bound (fail high)
	BoundUpper Bound = 3 // score is an upper bound (fail low)
)

// TTEntry is a decoded table entry.
type TTEntry struct {
	Move  board.Move
	Score int
	Depth int
	Bound Bound
}

// packTTData packs an entry into one word:
//
//	bits  0-15  move
//	bits 16-31  score, signed
//	bits 32-39  depth + 1, so a depth 0 entry is distinguishable from zero
//	bits 40-41  bound
//	bits 42-47  generation
func packTTData(m board.Move, score, depth int, bound Bound, gen uint8) uint64 {
	return uint64(m) |
		uint64(uint16(int16(score)))<<16 |
		uint64(uint8(depth+1))<<32 |
		uint64(bound)<<40 |
		uint64(gen)<<42
}

func unpackTTData(data uint64) (m board.Move, score, depth int, bound Bound, gen uint8) {
	m = board.Move(data)
	score = int(int16(data >> 16))
	depth = int(uint8(data>>32)) - 1
	bound = Bound(data >> 40 & 3)
	gen = uint8(data >> 42 & 63)
	return
}

// ttSlot is one table slot: two words, each accessed only with single atomic
// loads and stores. check holds key XOR data, so a reader that observes words
// from two different writes fails the verification and sees a miss instead of
// a torn entry. No path through the table takes a lock.
type ttSlot struct {
	check atomic.Uint64 // key ^ data
	data  atomic.Uint64
}

// TranspositionTable is a fixed-capacity concurrent map from position hash to
// search result, shared by every worker of a search. It is allocated once and
// never grows: a store into an occupied slot either replaces the incumbent or
// is dropped, by the policy in Store. All methods are safe for concurrent use.
type TranspositionTable struct {
	slots []ttSlot
	mask  uint64
	gen   atomic.Uint32 // current generation, wraps at 64
}

// NewTranspositionTable allocates a table of roughly sizeMB megabytes,
// rounded down to a power of two slots so indexing is a mask.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	const slotBytes = 16
	n := sizeMB * 1024 * 1024 / slotBytes
	n = 1 << (bits.Len(uint(n)) - 1)
	return &TranspositionTable{
		slots: make([]ttSlot, n),
		mask:  uint64(n - 1),
	}
}

// NewSearch advances the generation. Called once per search; entries from
// earlier searches stay probeable but become preferred eviction victims.
func (tt *TranspositionTable) NewSearch() {
	tt.gen.Store((tt.gen.Load() + 1) & 63)
}

// Clear wipes every entry. Not for use while a search is running.
func (tt *TranspositionTable) Clear() {
	for i := range tt.slots {
		tt.slots[i].check.Store(0)
		tt.slots[i].data.Store(0)
	}
	tt.gen.Store(0)
}

// Probe returns the entry stored for hash, if any.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	slot := &tt.slots[hash&tt.mask]
	check := slot.check.Load()
	data := slot.data.Load()
	if data == 0 || check^data != hash {
		return TTEntry{}, false
	}
	m, score, depth, bound, _ := unpackTTData(data)
	return TTEntry{Move: m, Score: score, Depth: depth, Bound: bound}, true
}

// Store records a search result for hash. The incumbent survives only when
// it is from the current generation and strictly deeper; results for the
// same position always refresh the slot. Both words are plain atomic stores,
// so a concurrent reader can only fail verification, never decode a mix of
// two entries.
func (tt *TranspositionTable) Store(hash uint64, m board.Move, score, depth int, bound Bound) {
	slot := &tt.slots[hash&tt.mask]
	gen := uint8(tt.gen.Load())

	oldCheck := slot.check.Load()
	oldData := slot.data.Load()
	if oldData != 0 {
		_, _, oldDepth, _, oldGen := unpackTTData(oldData)
		sameKey := oldCheck^oldData == hash
		if !sameKey && oldGen == gen && depth < oldDepth {
			return
		}
	}

	data := packTTData(m, score, depth, bound, gen)
	slot.data.Store(data)
	slot.check.Store(hash ^ data)
}

// Hashfull estimates usage in permille by sampling a thousand slots, which
// is what the UCI hashfull info field expects.
func (tt *TranspositionTable) Hashfull() int {
	n := min(1000, len(tt.slots))
	gen := uint8(tt.gen.Load())
	used := 0
	for i := 0; i < n; i++ {
		if data := tt.slots[i].data.Load(); data != 0 {
			if _, _, _, _, g := unpackTTData(data); g == gen {
				used++
			}
		}
	}
	return used * 1000 / n
}

// ScoreToTT rebases a mate score from root-relative to node-relative before
// storing. Entries are shared between plies, so "mate in N from here" is the
// only form that stays correct wherever the entry is probed.
func ScoreToTT(score, ply int) int {
	if score >= mateBound {
		return score + ply
	}
	if score <= -mateBound {
		return score - ply
	}
	return score
}

// ScoreFromTT undoes ScoreToTT at the probing node.
func ScoreFromTT(score, ply int) int {
	if score >= mateBound {
		return score - ply
	}
	if score <= -mateBound {
		return score + ply
	}
	return score
}
