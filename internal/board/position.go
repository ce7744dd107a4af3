package board

import (
	"fmt"
	"strings"
)

// CastlingRights is a bit set of the four castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle CastlingRights = 1 << iota
	WhiteQueenSideCastle
	BlackKingSideCastle
	BlackQueenSideCastle

	NoCastling  CastlingRights = 0
	AllCastling CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle |
		BlackKingSideCastle | BlackQueenSideCastle
)

func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	if cr&WhiteKingSideCastle != 0 {
		sb.WriteByte('K')
	}
	if cr&WhiteQueenSideCastle != 0 {
		sb.WriteByte('Q')
	}
	if cr&BlackKingSideCastle != 0 {
		sb.WriteByte('k')
	}
	if cr&BlackQueenSideCastle != 0 {
		sb.WriteByte('q')
	}
	return sb.String()
}

// CanCastle reports whether color c still has the given castling right.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	shift := uint(c) * 2
	if !kingSide {
		shift++
	}
	return cr&(1<<shift) != 0
}

// castleMask[sq] holds the rights that die when a move touches sq. Moving the
// king or a rook off its home square, or capturing a rook on one, clears the
// corresponding rights via a single table lookup.
var castleMask = buildCastleMask()

func buildCastleMask() [64]CastlingRights {
	var mask [64]CastlingRights
	mask[E1] = WhiteKingSideCastle | WhiteQueenSideCastle
	mask[H1] = WhiteKingSideCastle
	mask[A1] = WhiteQueenSideCastle
	mask[E8] = BlackKingSideCastle | BlackQueenSideCastle
	mask[H8] = BlackKingSideCastle
	mask[A8] = BlackQueenSideCastle
	return mask
}

// Position is a complete game state. It is a plain value: Apply and ApplyNull
// return new positions and never modify their receiver, so a Position can be
// handed to concurrent readers without synchronization. The Hash field is
// maintained incrementally and always equals ComputeHash of the fields.
type Position struct {
	Pieces [2][6]Bitboard

	Occupied    [2]Bitboard
	AllOccupied Bitboard

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // capture target square, NoSquare when unavailable
	HalfMoveClock  int
	FullMoveNumber int

	Hash    uint64
	PawnKey uint64 // pawns only, keys the pawn structure cache

	KingSquare [2]Square
	Checkers   Bitboard // pieces checking the side to move
}

// NewPosition returns the standard starting position.
func NewPosition() Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

// PieceAt returns the piece on sq, or NoPiece.
func (p *Position) PieceAt(sq Square) Piece {
	bb := SquareBB(sq)
	if p.AllOccupied&bb == 0 {
		return NoPiece
	}
	c := White
	if p.Occupied[Black]&bb != 0 {
		c = Black
	}
	for pt := Pawn; pt <= King; pt++ {
		if p.Pieces[c][pt]&bb != 0 {
			return NewPiece(pt, c)
		}
	}
	return NoPiece
}

// IsEmpty reports whether sq holds no piece.
func (p *Position) IsEmpty(sq Square) bool {
	return p.AllOccupied&SquareBB(sq) == 0
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.Checkers != 0
}

func (p *Position) setPiece(piece Piece, sq Square) {
	c, pt := piece.Color(), piece.Type()
	bb := SquareBB(sq)
	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
	if pt == King {
		p.KingSquare[c] = sq
	}
}

func (p *Position) removePiece(piece Piece, sq Square) {
	c, pt := piece.Color(), piece.Type()
	bb := SquareBB(sq)
	p.Pieces[c][pt] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb
}

func (p *Position) movePiece(piece Piece, from, to Square) {
	c, pt := piece.Color(), piece.Type()
	bb := SquareBB(from) | SquareBB(to)
	p.Pieces[c][pt] ^= bb
	p.Occupied[c] ^= bb
	p.AllOccupied ^= bb
	if pt == King {
		p.KingSquare[c] = to
	}
}

// Apply returns the position after playing m. The receiver is untouched; the
// move must be legal in p. The hash is updated by XORing out the vacated
// contributions and XORing in the new ones, never by rehashing.
func (p Position) Apply(m Move) Position {
	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	piece := p.PieceAt(from)
	pt := piece.Type()

	p.Hash ^= zobristSideToMove
	p.Hash ^= zobristCastling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}

	captured := NoPiece
	if m.IsEnPassant() {
		capSq := to - 8
		if us == Black {
			capSq = to + 8
		}
		captured = NewPiece(Pawn, them)
		p.removePiece(captured, capSq)
		p.Hash ^= zobristPiece[them][Pawn][capSq]
		p.PawnKey ^= zobristPiece[them][Pawn][capSq]
	} else if captured = p.PieceAt(to); captured != NoPiece {
		p.removePiece(captured, to)
		p.Hash ^= zobristPiece[them][captured.Type()][to]
		if captured.Type() == Pawn {
			p.PawnKey ^= zobristPiece[them][Pawn][to]
		}
	}

	p.movePiece(piece, from, to)
	p.Hash ^= zobristPiece[us][pt][from] ^ zobristPiece[us][pt][to]
	if pt == Pawn {
		p.PawnKey ^= zobristPiece[us][Pawn][from] ^ zobristPiece[us][Pawn][to]
	}

	if m.IsPromotion() {
		promo := m.Promotion()
		p.Pieces[us][Pawn] &^= SquareBB(to)
		p.Pieces[us][promo] |= SquareBB(to)
		p.Hash ^= zobristPiece[us][Pawn][to] ^ zobristPiece[us][promo][to]
		p.PawnKey ^= zobristPiece[us][Pawn][to]
	}

	if m.IsCastling() {
		var rookFrom, rookTo Square
		if to > from {
			rookFrom, rookTo = NewSquare(7, from.Rank()), NewSquare(5, from.Rank())
		} else {
			rookFrom, rookTo = NewSquare(0, from.Rank()), NewSquare(3, from.Rank())
		}
		p.movePiece(NewPiece(Rook, us), rookFrom, rookTo)
		p.Hash ^= zobristPiece[us][Rook][rookFrom] ^ zobristPiece[us][Rook][rookTo]
	}

	p.CastlingRights &^= castleMask[from] | castleMask[to]
	p.Hash ^= zobristCastling[p.CastlingRights]

	if pt == Pawn && (int(to)-int(from) == 16 || int(from)-int(to) == 16) {
		ep := Square((int(from) + int(to)) / 2)
		p.EnPassant = ep
		p.Hash ^= zobristEnPassant[ep.File()]
	}

	if pt == Pawn || captured != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = them
	p.updateCheckers()
	return p
}

// ApplyNull returns the position with only the turn passed, used for null
// move pruning. The receiver is untouched.
func (p Position) ApplyNull() Position {
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}
	p.SideToMove = p.SideToMove.Other()
	p.Hash ^= zobristSideToMove
	p.HalfMoveClock++
	p.updateCheckers()
	return p
}

// AttackersTo returns every piece of either color attacking sq under the
// given occupancy.
func (p *Position) AttackersTo(sq Square, occupied Bitboard) Bitboard {
	return p.AttackersByColor(sq, White, occupied) | p.AttackersByColor(sq, Black, occupied)
}

// AttackersByColor returns the pieces of color c attacking sq under the given
// occupancy.
func (p *Position) AttackersByColor(sq Square, c Color, occupied Bitboard) Bitboard {
	return (pawnAttacks[c.Other()][sq] & p.Pieces[c][Pawn]) |
		(knightAttacks[sq] & p.Pieces[c][Knight]) |
		(kingAttacks[sq] & p.Pieces[c][King]) |
		(getBishopAttacks(sq, occupied) & (p.Pieces[c][Bishop] | p.Pieces[c][Queen])) |
		(getRookAttacks(sq, occupied) & (p.Pieces[c][Rook] | p.Pieces[c][Queen]))
}

// IsSquareAttacked reports whether byColor attacks sq.
func (p *Position) IsSquareAttacked(sq Square, byColor Color) bool {
	return p.AttackersByColor(sq, byColor, p.AllOccupied) != 0
}

func (p *Position) updateCheckers() {
	us := p.SideToMove
	ksq := p.KingSquare[us]
	if !ksq.IsValid() {
		p.Checkers = 0
		return
	}
	p.Checkers = p.AttackersByColor(ksq, us.Other(), p.AllOccupied)
}

// ComputePinned returns the side to move's pieces that are absolutely pinned
// to their king. A piece is pinned when it is the sole blocker between the
// king and an enemy slider.
func (p *Position) ComputePinned() Bitboard {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]
	var pinned Bitboard

	snipers := (getRookAttacks(ksq, 0) & (p.Pieces[them][Rook] | p.Pieces[them][Queen])) |
		(getBishopAttacks(ksq, 0) & (p.Pieces[them][Bishop] | p.Pieces[them][Queen]))
	for snipers != 0 {
		sq := snipers.PopLSB()
		blockers := Between(sq, ksq) & p.AllOccupied
		if blockers.Count() == 1 && blockers&p.Occupied[us] != 0 {
			pinned |= blockers
		}
	}
	return pinned
}

// HasNonPawnMaterial reports whether the side to move owns any piece besides
// pawns and the king. Null move pruning is unsound without it.
func (p *Position) HasNonPawnMaterial() bool {
	us := p.SideToMove
	return p.Pieces[us][Knight]|p.Pieces[us][Bishop]|p.Pieces[us][Rook]|p.Pieces[us][Queen] != 0
}

// IsInsufficientMaterial reports whether neither side can possibly deliver
// mate: bare kings, or king and one minor piece against a bare king.
func (p *Position) IsInsufficientMaterial() bool {
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn]|
		p.Pieces[White][Rook]|p.Pieces[Black][Rook]|
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}
	wMinors := (p.Pieces[White][Knight] | p.Pieces[White][Bishop]).Count()
	bMinors := (p.Pieces[Black][Knight] | p.Pieces[Black][Bishop]).Count()
	return (wMinors <= 1 && bMinors == 0) || (bMinors <= 1 && wMinors == 0)
}

// Validate reports structural problems with the position.
func (p *Position) Validate() error {
	if p.Pieces[White][King].Count() != 1 {
		return fmt.Errorf("white must have exactly one king")
	}
	if p.Pieces[Black][King].Count() != 1 {
		return fmt.Errorf("black must have exactly one king")
	}
	if (p.Pieces[White][Pawn]|p.Pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return fmt.Errorf("pawn on a back rank")
	}
	return nil
}

// String renders the board as a diagram with the game state beneath it.
func (p *Position) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "fen: %s\n", p.ToFEN())
	fmt.Fprintf(&sb, "key: %016x\n", p.Hash)
	return sb.String()
}
