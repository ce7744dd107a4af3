// Package engine implements the search: a shared lock-free transposition
// table, negamax alpha-beta workers over copy-make positions, and a
// coordinator that runs several workers against the same table.
package engine

import "github.com/swgillespie/a4/internal/board"

const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128

	// A score at least this large is a forced mate; the distance to mate is
	// encoded in the gap below MateScore.
	mateBound = MateScore - MaxPly
)

// stopCheckInterval is the node count granularity at which workers poll the
// stop flag and the time and node budgets.
const stopCheckInterval = 4096

// IsMateScore reports whether score encodes a forced mate for either side.
func IsMateScore(score int) bool {
	return score >= mateBound || score <= -mateBound
}

// MateIn converts a mate score to full moves until mate, negative when the
// side to move is being mated.
func MateIn(score int) int {
	if score > 0 {
		return (MateScore - score + 1) / 2
	}
	return -(MateScore + score + 1) / 2
}

// pvTable is the triangular principal variation table each worker maintains.
type pvTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

func (pv *pvTable) clear(ply int) {
	pv.length[ply] = 0
}

// store records m as the best move at ply and pulls up the continuation
// found below it.
func (pv *pvTable) store(ply int, m board.Move) {
	pv.moves[ply][0] = m
	copy(pv.moves[ply][1:], pv.moves[ply+1][:pv.length[ply+1]])
	pv.length[ply] = pv.length[ply+1] + 1
}

func (pv *pvTable) line() []board.Move {
	return pv.moves[0][:pv.length[0]]
}
