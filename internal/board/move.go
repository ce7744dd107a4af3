package board

import "fmt"

// Move packs a move into 16 bits: from in bits 0-5, to in bits 6-11, the
// promotion piece in bits 12-13 (0=knight through 3=queen), and a kind tag in
// bits 14-15.
type Move uint16

const (
	FlagNormal    uint16 = 0 << 14
	FlagPromotion uint16 = 1 << 14
	FlagEnPassant uint16 = 2 << 14
	FlagCastling  uint16 = 3 << 14
)

// NoMove is the zero Move, used as "no move available" everywhere.
const NoMove Move = 0

// NewMove builds an ordinary move.
func NewMove(from, to Square) Move {
	return Move(from) | Move(to)<<6
}

// NewPromotion builds a promotion to promo, which must be Knight through Queen.
func NewPromotion(from, to Square, promo PieceType) Move {
	return Move(from) | Move(to)<<6 | Move(promo-Knight)<<12 | Move(FlagPromotion)
}

// NewEnPassant builds an en passant capture.
func NewEnPassant(from, to Square) Move {
	return Move(from) | Move(to)<<6 | Move(FlagEnPassant)
}

// NewCastling builds a castling move expressed as the king's two-square step.
func NewCastling(from, to Square) Move {
	return Move(from) | Move(to)<<6 | Move(FlagCastling)
}

func (m Move) From() Square { return Square(m & 0x3F) }
func (m Move) To() Square   { return Square(m >> 6 & 0x3F) }
func (m Move) Flag() uint16 { return uint16(m) & 0xC000 }

// Promotion returns the promoted piece type. Meaningful only when
// IsPromotion reports true.
func (m Move) Promotion() PieceType {
	return PieceType(m>>12&3) + Knight
}

func (m Move) IsPromotion() bool { return m.Flag() == FlagPromotion }
func (m Move) IsEnPassant() bool { return m.Flag() == FlagEnPassant }
func (m Move) IsCastling() bool  { return m.Flag() == FlagCastling }

// IsCapture reports whether m captures a piece in pos.
func (m Move) IsCapture(pos *Position) bool {
	return m.IsEnPassant() || !pos.IsEmpty(m.To())
}

// String renders the move in UCI coordinate form, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string("nbrq"[m.Promotion()-Knight])
	}
	return s
}

// ParseMove parses a UCI coordinate move against pos, tagging castling and en
// passant from the board state since the text form does not distinguish them.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return NoMove, fmt.Errorf("invalid move %q", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	if len(s) == 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece %q", s[4])
		}
		return NewPromotion(from, to, promo), nil
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece on %v", from)
	}
	switch piece.Type() {
	case King:
		if d := int(to) - int(from); d == 2 || d == -2 {
			return NewCastling(from, to), nil
		}
	case Pawn:
		if to == pos.EnPassant {
			return NewEnPassant(from, to), nil
		}
	}
	return NewMove(from, to), nil
}

// MoveList is a fixed-capacity move buffer. 256 is above the known maximum
// number of legal moves in any reachable position.
type MoveList struct {
	moves [256]Move
	count int
}

func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

func (ml *MoveList) Len() int {
	return ml.count
}

func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains reports whether m is in the list.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the filled portion of the buffer. The slice aliases the
// list's storage and is invalidated by Clear or Add.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}
