package engine

import "github.com/swgillespie/a4/internal/board"

// SEE statically evaluates the exchange started by m in centipawns for the
// side to move, playing out the capture sequence on the target square with
// each side always recapturing with its least valuable attacker. Sliders
// revealed by earlier captures join the exchange through the updated
// occupancy.
func SEE(pos *board.Position, m board.Move) int {
	to := m.To()
	from := m.From()

	var gain [32]int
	depth := 0

	occupied := pos.AllOccupied
	side := pos.SideToMove

	target := board.Pawn
	if !m.IsEnPassant() {
		if captured := pos.PieceAt(to); captured != board.NoPiece {
			target = captured.Type()
		} else {
			target = board.NoPieceType
		}
	}
	if target == board.NoPieceType {
		gain[0] = 0
	} else {
		gain[0] = board.PieceValue[target]
	}

	attacker := pos.PieceAt(from).Type()
	occupied = occupied.Clear(from)
	if m.IsEnPassant() {
		capSq := to - 8
		if side == board.Black {
			capSq = to + 8
		}
		occupied = occupied.Clear(capSq)
	}
	side = side.Other()

	for {
		depth++
		gain[depth] = board.PieceValue[attacker] - gain[depth-1]

		// Neither side continues a sequence that loses material even if the
		// best followup is taken away.
		if max(-gain[depth-1], gain[depth]) < 0 {
			break
		}

		next, nextSq := leastAttacker(pos, to, side, occupied)
		if next == board.NoPieceType {
			break
		}
		attacker = next
		occupied = occupied.Clear(nextSq)
		side = side.Other()
		if depth+1 >= len(gain) {
			break
		}
	}

	for depth--; depth > 0; depth-- {
		gain[depth-1] = -max(-gain[depth-1], gain[depth])
	}
	return gain[0]
}

// leastAttacker finds the cheapest piece of color c that attacks sq under
// the given occupancy, ignoring pieces already spent in the exchange.
func leastAttacker(pos *board.Position, sq board.Square, c board.Color, occupied board.Bitboard) (board.PieceType, board.Square) {
	attackers := pos.AttackersByColor(sq, c, occupied) & occupied
	if attackers == 0 {
		return board.NoPieceType, board.NoSquare
	}
	for pt := board.Pawn; pt <= board.King; pt++ {
		if bb := attackers & pos.Pieces[c][pt]; bb != 0 {
			return pt, bb.LSB()
		}
	}
	return board.NoPieceType, board.NoSquare
}
