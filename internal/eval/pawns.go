package eval

import (
	"github.com/swgillespie/a4/internal/board"
)

// Passed pawn bonuses by relative rank, index 1 for a pawn on its second
// rank through 6 for one square from promotion.
var passedBonusMg = [8]int{0, 5, 10, 20, 35, 60, 100, 0}
var passedBonusEg = [8]int{0, 10, 20, 40, 70, 120, 200, 0}

const (
	doubledMg  = -15
	doubledEg  = -20
	isolatedMg = -20
	isolatedEg = -25
)

// pawnEntry caches one pawn structure evaluation. Scores are White relative.
type pawnEntry struct {
	key uint64
	mg  int16
	eg  int16
}

// pawnTable caches pawn structure scores by pawn hash. Always-replace with a
// single slot per bucket; collisions just cost a recompute.
type pawnTable struct {
	entries []pawnEntry
	mask    uint64
}

func newPawnTable(sizeMB int) *pawnTable {
	numEntries := sizeMB * 1024 * 1024 / 16
	size := 1
	for size*2 <= numEntries {
		size *= 2
	}
	return &pawnTable{
		entries: make([]pawnEntry, size),
		mask:    uint64(size - 1),
	}
}

func (pt *pawnTable) probe(key uint64) (mg, eg int, ok bool) {
	e := &pt.entries[key&pt.mask]
	if e.key == key {
		return int(e.mg), int(e.eg), true
	}
	return 0, 0, false
}

func (pt *pawnTable) store(key uint64, mg, eg int) {
	e := &pt.entries[key&pt.mask]
	*e = pawnEntry{key: key, mg: int16(mg), eg: int16(eg)}
}

// pawnStructure returns the White relative pawn structure score, computing
// and caching it when the pawn hash misses.
func (e *Evaluator) pawnStructure(pos *board.Position) (mg, eg int) {
	if mg, eg, ok := e.pawns.probe(pos.PawnKey); ok {
		return mg, eg
	}
	mg, eg = scorePawns(pos, board.White)
	bmg, beg := scorePawns(pos, board.Black)
	mg -= bmg
	eg -= beg
	e.pawns.store(pos.PawnKey, mg, eg)
	return mg, eg
}

func scorePawns(pos *board.Position, c board.Color) (mg, eg int) {
	ours := pos.Pieces[c][board.Pawn]
	theirs := pos.Pieces[c.Other()][board.Pawn]

	pawns := ours
	for !pawns.IsEmpty() {
		sq := pawns.PopLSB()
		file := board.FileMask[sq.File()]

		// front is every square strictly ahead on the pawn's file.
		front := frontSpan(sq, c)
		doubled := !(front & ours).IsEmpty()
		if doubled {
			mg += doubledMg
			eg += doubledEg
		}

		// Isolated: no friendly pawn on an adjacent file.
		adjacent := file.East() | file.West()
		if (adjacent & ours).IsEmpty() {
			mg += isolatedMg
			eg += isolatedEg
		}

		// Passed: no enemy pawn ahead on this or an adjacent file, and no
		// friendly pawn in front of this one.
		span := front | front.East() | front.West()
		if (span & theirs).IsEmpty() && !doubled {
			r := sq.RelativeRank(c)
			mg += passedBonusMg[r]
			eg += passedBonusEg[r]
		}
	}
	return mg, eg
}

// frontSpan is every square strictly ahead of sq on its file, from c's point
// of view.
func frontSpan(sq board.Square, c board.Color) board.Bitboard {
	bb := board.SquareBB(sq)
	if c == board.White {
		return bb.North().NorthFill()
	}
	return bb.South().SouthFill()
}
