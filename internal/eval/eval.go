// Package eval scores positions in centipawns from the side to move's point
// of view. The score tapers between a middlegame and an endgame component by
// remaining material, and pawn structure terms are cached by pawn hash.
package eval

import (
	"github.com/swgillespie/a4/internal/board"
)

// Game phase weights per piece type. A full board sums to maxPhase; the
// evaluation interpolates between middlegame and endgame scores as material
// comes off.
var phaseWeight = [6]int{0, 1, 1, 2, 4, 0}

const maxPhase = 24

const tempoBonus = 10

const (
	bishopPairMg = 25
	bishopPairEg = 50

	rookOpenFileMg     = 20
	rookOpenFileEg     = 25
	rookSemiOpenFileMg = 10
	rookSemiOpenFileEg = 15

	rookOn7thMg = 30
	rookOn7thEg = 40
)

// Mobility weights per piece type, indexed Pawn..King.
var (
	mobilityMg = [6]int{0, 4, 5, 2, 1, 0}
	mobilityEg = [6]int{0, 3, 4, 4, 2, 0}
)

const (
	pawnShieldBonus  = 10
	openFileNearKing = -20
	semiOpenNearKing = -10
)

// Evaluator holds the mutable caches an evaluation needs. It is not safe for
// concurrent use; each search worker gets its own.
type Evaluator struct {
	pawns *pawnTable
}

// New builds an evaluator with a private pawn structure cache.
func New() *Evaluator {
	return &Evaluator{pawns: newPawnTable(8)}
}

// Evaluate scores pos for the side to move.
func (e *Evaluator) Evaluate(pos *board.Position) int {
	var mg, eg, phase int

	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		for pt := board.Pawn; pt <= board.King; pt++ {
			pieces := pos.Pieces[c][pt]
			phase += phaseWeight[pt] * pieces.Count()
			for !pieces.IsEmpty() {
				sq := pieces.PopLSB()
				psq := pstIndex(sq, c)
				mg += sign * (board.PieceValue[pt] + pstMg[pt][psq])
				eg += sign * (board.PieceValue[pt] + pstEg[pt][psq])
			}
		}
	}

	pmg, peg := e.pawnStructure(pos)
	mg += pmg
	eg += peg

	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		cmg, ceg := pieceActivity(pos, c)
		mg += sign * cmg
		eg += sign * ceg
		kmg := kingShelter(pos, c)
		mg += sign * kmg
	}

	if phase > maxPhase {
		phase = maxPhase
	}
	score := (mg*phase + eg*(maxPhase-phase)) / maxPhase

	if pos.SideToMove == board.Black {
		score = -score
	}
	return score + tempoBonus
}

// pstIndex maps a square to its table index. Tables are written rank 8
// first, so White mirrors and Black reads directly.
func pstIndex(sq board.Square, c board.Color) board.Square {
	if c == board.White {
		return sq.Mirror()
	}
	return sq
}

// pieceActivity scores mobility and rook placement for one side.
func pieceActivity(pos *board.Position, c board.Color) (mg, eg int) {
	them := c.Other()
	occ := pos.AllOccupied
	ourPawns := pos.Pieces[c][board.Pawn]
	theirPawns := pos.Pieces[them][board.Pawn]

	// Squares covered by enemy pawns are excluded from mobility.
	var pawnCover board.Bitboard
	if them == board.White {
		pawnCover = theirPawns.NorthEast() | theirPawns.NorthWest()
	} else {
		pawnCover = theirPawns.SouthEast() | theirPawns.SouthWest()
	}
	safe := ^(pos.Occupied[c] | pawnCover)

	for pt := board.Knight; pt <= board.Queen; pt++ {
		pieces := pos.Pieces[c][pt]
		for !pieces.IsEmpty() {
			sq := pieces.PopLSB()
			var attacks board.Bitboard
			switch pt {
			case board.Knight:
				attacks = board.KnightAttacks(sq)
			case board.Bishop:
				attacks = board.BishopAttacks(sq, occ)
			case board.Rook:
				attacks = board.RookAttacks(sq, occ)
			case board.Queen:
				attacks = board.QueenAttacks(sq, occ)
			}
			n := (attacks & safe).Count()
			mg += n * mobilityMg[pt]
			eg += n * mobilityEg[pt]
		}
	}

	if pos.Pieces[c][board.Bishop].Count() >= 2 {
		mg += bishopPairMg
		eg += bishopPairEg
	}

	rooks := pos.Pieces[c][board.Rook]
	seventh := board.Rank7
	if c == board.Black {
		seventh = board.Rank2
	}
	for !rooks.IsEmpty() {
		sq := rooks.PopLSB()
		file := board.FileMask[sq.File()]
		switch {
		case (file & (ourPawns | theirPawns)).IsEmpty():
			mg += rookOpenFileMg
			eg += rookOpenFileEg
		case (file & ourPawns).IsEmpty():
			mg += rookSemiOpenFileMg
			eg += rookSemiOpenFileEg
		}
		if board.SquareBB(sq)&seventh != 0 {
			mg += rookOn7thMg
			eg += rookOn7thEg
		}
	}
	return mg, eg
}

// kingShelter scores the pawn cover and file exposure in front of the king.
// Middlegame only; an exposed king is an asset once the queens are off.
func kingShelter(pos *board.Position, c board.Color) int {
	ksq := pos.KingSquare[c]
	ourPawns := pos.Pieces[c][board.Pawn]
	theirPawns := pos.Pieces[c.Other()][board.Pawn]

	var shield board.Bitboard
	kbb := board.SquareBB(ksq)
	zone := kbb | kbb.East() | kbb.West()
	if c == board.White {
		shield = zone.North()
	} else {
		shield = zone.South()
	}

	score := (shield & ourPawns).Count() * pawnShieldBonus

	kf := ksq.File()
	for f := max(0, kf-1); f <= min(7, kf+1); f++ {
		file := board.FileMask[f]
		switch {
		case (file & (ourPawns | theirPawns)).IsEmpty():
			score += openFileNearKing
		case (file & ourPawns).IsEmpty():
			score += semiOpenNearKing
		}
	}
	return score
}
