package engine

import "github.com/swgillespie/a4/internal/board"

// Ordering score bands. The table move outranks everything, winning captures
// outrank killers, and quiet moves compete on history scores.
const (
	ttMoveScore     = 10000000
	goodCaptureBase = 1000000
	killerScore1    = 900000
	killerScore2    = 800000
	counterScore    = 790000
	badCaptureBase  = -1000000
)

// mvvLva ranks captures by victim first and attacker second, victim rows
// pawn through queen, attacker columns pawn through king.
var mvvLva = [6][6]int{
	{15, 14, 14, 13, 12, 11},
	{25, 24, 24, 23, 22, 21},
	{35, 34, 34, 33, 32, 31},
	{45, 44, 44, 43, 42, 41},
	{55, 54, 54, 53, 52, 51},
	{0, 0, 0, 0, 0, 0},
}

// MoveOrderer holds one worker's private ordering state. Each worker owns
// its own instance; nothing here is shared, so the workers' orderings drift
// apart as their searches diverge, which is part of what keeps parallel
// workers exploring different subtrees.
type MoveOrderer struct {
	killers      [MaxPly][2]board.Move
	history      [2][64][64]int // [side][from][to]
	counterMoves [12][64]board.Move
}

func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear forgets killers and counters and halves history, keeping a faded
// memory of the previous search.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}
	for c := range mo.history {
		for i := range mo.history[c] {
			for j := range mo.history[c][i] {
				mo.history[c][i][j] /= 2
			}
		}
	}
	for i := range mo.counterMoves {
		for j := range mo.counterMoves[i] {
			mo.counterMoves[i][j] = board.NoMove
		}
	}
}

// ScoreMoves fills scores with ordering scores for the list, highest first
// under PickMove.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves *board.MoveList, scores []int, ply int, ttMove, prevMove board.Move) {
	counter := mo.counterMove(pos, prevMove)
	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreMove(pos, moves.Get(i), ply, ttMove, counter)
	}
}

func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove, counter board.Move) int {
	if m == ttMove {
		return ttMoveScore
	}

	if m.IsCapture(pos) {
		attacker := pos.PieceAt(m.From()).Type()
		victim := board.Pawn
		if !m.IsEnPassant() {
			victim = pos.PieceAt(m.To()).Type()
		}
		score := mvvLva[victim][attacker] * 1000
		if SEE(pos, m) < 0 {
			return badCaptureBase + score
		}
		return goodCaptureBase + score
	}

	if m.IsPromotion() {
		return goodCaptureBase - 1000 + int(m.Promotion())*100
	}

	switch m {
	case mo.killers[ply][0]:
		return killerScore1
	case mo.killers[ply][1]:
		return killerScore2
	case counter:
		return counterScore
	}

	return mo.history[pos.SideToMove][m.From()][m.To()]
}

// PickMove moves the best-scored remaining move to index. Sorting lazily
// costs one selection pass per move actually searched, and a cutoff skips
// the rest.
func PickMove(moves *board.MoveList, scores []int, index int) board.Move {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
	return moves.Get(index)
}

// UpdateKillers records a quiet move that refuted the position at ply.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory rewards or penalizes a quiet move with a depth-squared
// bonus, halving the whole table when a counter saturates.
func (mo *MoveOrderer) UpdateHistory(side board.Color, m board.Move, depth int, good bool) {
	entry := &mo.history[side][m.From()][m.To()]
	bonus := depth * depth
	if good {
		*entry += bonus
		if *entry > 400000 {
			for i := range mo.history[side] {
				for j := range mo.history[side][i] {
					mo.history[side][i][j] /= 2
				}
			}
		}
	} else {
		*entry -= bonus
		if *entry < -400000 {
			*entry = -400000
		}
	}
}

// UpdateCounterMove remembers m as the refutation of prevMove.
func (mo *MoveOrderer) UpdateCounterMove(pos *board.Position, prevMove, m board.Move) {
	if prevMove == board.NoMove {
		return
	}
	piece := pos.PieceAt(prevMove.To())
	if piece == board.NoPiece {
		return
	}
	mo.counterMoves[piece][prevMove.To()] = m
}

func (mo *MoveOrderer) counterMove(pos *board.Position, prevMove board.Move) board.Move {
	if prevMove == board.NoMove {
		return board.NoMove
	}
	piece := pos.PieceAt(prevMove.To())
	if piece == board.NoPiece {
		return board.NoMove
	}
	return mo.counterMoves[piece][prevMove.To()]
}
