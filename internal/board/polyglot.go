package board

// Keys for the Polyglot opening book hash. These are generated separately
// from the engine's own Zobrist keys so book probes stay compatible with the
// book format regardless of internal hashing changes.
var (
	polyglotPieces      [12][64]uint64
	polyglotCastling    [4]uint64
	polyglotEnPassant   [8]uint64
	polyglotWhiteToMove uint64
)

func initPolyglot() {
	s := uint64(0x37B4A4B3F0D1C0D0)
	next := func() uint64 {
		s ^= s >> 12
		s ^= s << 25
		s ^= s >> 27
		return s * 0x2545F4914F6CDD1D
	}
	for piece := range polyglotPieces {
		for sq := range polyglotPieces[piece] {
			polyglotPieces[piece][sq] = next()
		}
	}
	for i := range polyglotCastling {
		polyglotCastling[i] = next()
	}
	for i := range polyglotEnPassant {
		polyglotEnPassant[i] = next()
	}
	polyglotWhiteToMove = next()
}

// PolyglotHash computes the book key for the position. Piece kinds are
// numbered black pawn through white king, and the en passant file only
// contributes when a pawn stands ready to capture, both per the book format.
func (p *Position) PolyglotHash() uint64 {
	var hash uint64

	// kind = 2*type + (1 for white)
	for c := White; c <= Black; c++ {
		offset := 1 - int(c)
		for pt := Pawn; pt <= King; pt++ {
			for bb := p.Pieces[c][pt]; bb != 0; {
				hash ^= polyglotPieces[2*int(pt)+offset][bb.PopLSB()]
			}
		}
	}

	if p.CastlingRights&WhiteKingSideCastle != 0 {
		hash ^= polyglotCastling[0]
	}
	if p.CastlingRights&WhiteQueenSideCastle != 0 {
		hash ^= polyglotCastling[1]
	}
	if p.CastlingRights&BlackKingSideCastle != 0 {
		hash ^= polyglotCastling[2]
	}
	if p.CastlingRights&BlackQueenSideCastle != 0 {
		hash ^= polyglotCastling[3]
	}

	if p.EnPassant != NoSquare {
		epBB := SquareBB(p.EnPassant)
		var ready Bitboard
		if p.SideToMove == White {
			ready = (epBB.SouthWest() | epBB.SouthEast()) & p.Pieces[White][Pawn]
		} else {
			ready = (epBB.NorthWest() | epBB.NorthEast()) & p.Pieces[Black][Pawn]
		}
		if ready != 0 {
			hash ^= polyglotEnPassant[p.EnPassant.File()]
		}
	}

	if p.SideToMove == White {
		hash ^= polyglotWhiteToMove
	}
	return hash
}
