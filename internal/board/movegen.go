package board

// LegalMoves fills ml with every legal move in p. The generation order is a
// fixed function of the position, so repeated calls produce identical lists.
// An empty list means the game is over: mate when in check, stalemate
// otherwise.
func (p *Position) LegalMoves(ml *MoveList) {
	var pseudo MoveList
	p.generateAll(&pseudo)
	p.filterLegal(&pseudo, ml)
}

// LegalCaptures fills ml with legal captures and queening promotions, the
// move set the quiescence search explores.
func (p *Position) LegalCaptures(ml *MoveList) {
	var pseudo MoveList
	p.generateCaptures(&pseudo)
	p.filterLegal(&pseudo, ml)
}

func (p *Position) generateAll(ml *MoveList) {
	us := p.SideToMove
	occupied := p.AllOccupied
	enemies := p.Occupied[us.Other()]

	p.generatePawnMoves(ml, us, enemies, occupied)
	p.generatePieceMoves(ml, us, ^p.Occupied[us], occupied)
	p.generateKingMoves(ml, us, ^p.Occupied[us])
	p.generateCastlingMoves(ml, us)
}

func (p *Position) generatePieceMoves(ml *MoveList, us Color, targets, occupied Bitboard) {
	for knights := p.Pieces[us][Knight]; knights != 0; {
		from := knights.PopLSB()
		for attacks := KnightAttacks(from) & targets; attacks != 0; {
			ml.Add(NewMove(from, attacks.PopLSB()))
		}
	}
	for bishops := p.Pieces[us][Bishop]; bishops != 0; {
		from := bishops.PopLSB()
		for attacks := getBishopAttacks(from, occupied) & targets; attacks != 0; {
			ml.Add(NewMove(from, attacks.PopLSB()))
		}
	}
	for rooks := p.Pieces[us][Rook]; rooks != 0; {
		from := rooks.PopLSB()
		for attacks := getRookAttacks(from, occupied) & targets; attacks != 0; {
			ml.Add(NewMove(from, attacks.PopLSB()))
		}
	}
	for queens := p.Pieces[us][Queen]; queens != 0; {
		from := queens.PopLSB()
		attacks := (getBishopAttacks(from, occupied) | getRookAttacks(from, occupied)) & targets
		for attacks != 0 {
			ml.Add(NewMove(from, attacks.PopLSB()))
		}
	}
}

func (p *Position) generateKingMoves(ml *MoveList, us Color, targets Bitboard) {
	from := p.KingSquare[us]
	for attacks := KingAttacks(from) & targets; attacks != 0; {
		ml.Add(NewMove(from, attacks.PopLSB()))
	}
}

func (p *Position) generatePawnMoves(ml *MoveList, us Color, enemies, occupied Bitboard) {
	pawns := p.Pieces[us][Pawn]
	empty := ^occupied

	var push1, push2, attackL, attackR, promoRank Bitboard
	var fwd int
	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promoRank = Rank8
		fwd = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promoRank = Rank1
		fwd = -8
	}

	for bb := push1 &^ promoRank; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-fwd), to))
	}
	for bb := push2; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-2*fwd), to))
	}
	for bb := attackL &^ promoRank; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-fwd+1), to))
	}
	for bb := attackR &^ promoRank; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-fwd-1), to))
	}

	for bb := push1 & promoRank; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-fwd), to)
	}
	for bb := attackL & promoRank; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-fwd+1), to)
	}
	for bb := attackR & promoRank; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-fwd-1), to)
	}

	p.generateEnPassant(ml, us, pawns)
}

func (p *Position) generateEnPassant(ml *MoveList, us Color, pawns Bitboard) {
	if p.EnPassant == NoSquare {
		return
	}
	epBB := SquareBB(p.EnPassant)
	var attackers Bitboard
	if us == White {
		attackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
	} else {
		attackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
	}
	for attackers != 0 {
		ml.Add(NewEnPassant(attackers.PopLSB(), p.EnPassant))
	}
}

func addPromotions(ml *MoveList, from, to Square) {
	ml.Add(NewPromotion(from, to, Queen))
	ml.Add(NewPromotion(from, to, Rook))
	ml.Add(NewPromotion(from, to, Bishop))
	ml.Add(NewPromotion(from, to, Knight))
}

func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	them := us.Other()
	rank := 0
	if us == Black {
		rank = 7
	}
	ksq := NewSquare(4, rank)

	if p.CastlingRights.CanCastle(us, true) {
		f, g := NewSquare(5, rank), NewSquare(6, rank)
		if p.AllOccupied&(SquareBB(f)|SquareBB(g)) == 0 &&
			!p.IsSquareAttacked(ksq, them) &&
			!p.IsSquareAttacked(f, them) &&
			!p.IsSquareAttacked(g, them) {
			ml.Add(NewCastling(ksq, g))
		}
	}
	if p.CastlingRights.CanCastle(us, false) {
		b, c, d := NewSquare(1, rank), NewSquare(2, rank), NewSquare(3, rank)
		if p.AllOccupied&(SquareBB(b)|SquareBB(c)|SquareBB(d)) == 0 &&
			!p.IsSquareAttacked(ksq, them) &&
			!p.IsSquareAttacked(d, them) &&
			!p.IsSquareAttacked(c, them) {
			ml.Add(NewCastling(ksq, c))
		}
	}
}

func (p *Position) generateCaptures(ml *MoveList) {
	us := p.SideToMove
	occupied := p.AllOccupied
	enemies := p.Occupied[us.Other()]
	pawns := p.Pieces[us][Pawn]

	var attackL, attackR, promoPush, promoRank Bitboard
	var fwd int
	if us == White {
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promoPush = pawns.North() & ^occupied & Rank8
		promoRank = Rank8
		fwd = 8
	} else {
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promoPush = pawns.South() & ^occupied & Rank1
		promoRank = Rank1
		fwd = -8
	}

	for bb := attackL &^ promoRank; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-fwd+1), to))
	}
	for bb := attackR &^ promoRank; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-fwd-1), to))
	}
	for bb := attackL & promoRank; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-fwd+1), to)
	}
	for bb := attackR & promoRank; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-fwd-1), to)
	}
	for bb := promoPush; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-fwd), to)
	}

	p.generateEnPassant(ml, us, pawns)
	p.generatePieceMoves(ml, us, enemies, occupied)
	p.generateKingMoves(ml, us, enemies)
}

// filterLegal copies the moves of pseudo that do not leave the mover's king
// in check into out. Most moves are proven legal without touching the board:
// a move by an unpinned piece other than the king cannot expose the king. The
// exceptions (king steps, pinned pieces, evasions, en passant) are checked
// against the pin rays, and en passant falls back to playing the move on a
// scratch copy since removing two pawns from one rank defeats the ray logic.
func (p *Position) filterLegal(pseudo, out *MoveList) {
	pinned := p.ComputePinned()
	ksq := p.KingSquare[p.SideToMove]
	inCheck := p.Checkers != 0

	for i := 0; i < pseudo.Len(); i++ {
		m := pseudo.Get(i)
		if inCheck || m.From() == ksq || m.IsEnPassant() || pinned.IsSet(m.From()) {
			if p.isLegal(m, pinned) {
				out.Add(m)
			}
			continue
		}
		out.Add(m)
	}
}

func (p *Position) isLegal(m Move, pinned Bitboard) bool {
	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	ksq := p.KingSquare[us]
	checkers := p.Checkers

	if from == ksq {
		if m.IsCastling() {
			// Generation already verified the king's path; castling out of
			// check is never legal.
			return checkers == 0
		}
		occ := p.AllOccupied &^ SquareBB(from)
		return p.AttackersByColor(to, them, occ) == 0
	}

	if checkers != 0 {
		if checkers.Count() > 1 {
			return false
		}
		checker := checkers.LSB()
		if m.IsEnPassant() {
			capSq := to - 8
			if us == Black {
				capSq = to + 8
			}
			if capSq != checker {
				return false
			}
			return p.enPassantIsSafe(m, ksq)
		}
		if (SquareBB(checker)|Between(checker, ksq))&SquareBB(to) == 0 {
			return false
		}
		return !pinned.IsSet(from) || Aligned(from, to, ksq)
	}

	if m.IsEnPassant() {
		return p.enPassantIsSafe(m, ksq)
	}
	if !pinned.IsSet(from) {
		return true
	}
	return Aligned(from, to, ksq)
}

func (p *Position) enPassantIsSafe(m Move, ksq Square) bool {
	next := p.Apply(m)
	return next.AttackersByColor(ksq, next.SideToMove, next.AllOccupied) == 0
}

// HasLegalMoves reports whether the side to move has at least one legal move.
func (p *Position) HasLegalMoves() bool {
	var pseudo MoveList
	p.generateAll(&pseudo)
	pinned := p.ComputePinned()
	ksq := p.KingSquare[p.SideToMove]
	inCheck := p.Checkers != 0
	for i := 0; i < pseudo.Len(); i++ {
		m := pseudo.Get(i)
		if !inCheck && m.From() != ksq && !m.IsEnPassant() && !pinned.IsSet(m.From()) {
			return true
		}
		if p.isLegal(m, pinned) {
			return true
		}
	}
	return false
}

// IsCheckmate reports whether the side to move is mated.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate reports whether the side to move is stalemated.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsDraw reports whether the position is drawn by stalemate, the fifty move
// rule, or insufficient material. Repetition is tracked by the search, which
// sees the move path.
func (p *Position) IsDraw() bool {
	return p.HalfMoveClock >= 100 || p.IsInsufficientMaterial() || p.IsStalemate()
}
