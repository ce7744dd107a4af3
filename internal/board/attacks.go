package board

// Attack tables for the non-sliding pieces, plus the between/line tables the
// legality filter uses for pin detection. Sliding attacks live in magic.go.
var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard

	betweenBB [64][64]Bitboard // squares strictly between two aligned squares
	lineBB    [64][64]Bitboard // full line through two aligned squares
)

func init() {
	initLeaperAttacks()
	initLineTables()
	initMagics()
	initZobrist()
	initPolyglot()
}

func initLeaperAttacks() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)

		n := bb.North().NorthEast() | bb.North().NorthWest() |
			bb.South().SouthEast() | bb.South().SouthWest() |
			bb.East().NorthEast() | bb.East().SouthEast() |
			bb.West().NorthWest() | bb.West().SouthWest()
		knightAttacks[sq] = n

		kingAttacks[sq] = bb.North() | bb.South() | bb.East() | bb.West() |
			bb.NorthEast() | bb.NorthWest() | bb.SouthEast() | bb.SouthWest()

		pawnAttacks[White][sq] = bb.NorthEast() | bb.NorthWest()
		pawnAttacks[Black][sq] = bb.SouthEast() | bb.SouthWest()
	}
}

func initLineTables() {
	dirs := [8][2]int{
		{0, 1}, {0, -1}, {1, 0}, {-1, 0},
		{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
	}
	for sq := A1; sq <= H8; sq++ {
		for _, d := range dirs {
			df, dr := d[0], d[1]

			// Walk the ray from sq; every square reached shares a line
			// with sq in this direction.
			f, r := sq.File()+df, sq.Rank()+dr
			for f >= 0 && f < 8 && r >= 0 && r < 8 {
				to := NewSquare(f, r)

				var between Bitboard
				bf, br := sq.File()+df, sq.Rank()+dr
				for bf != f || br != r {
					between |= SquareBB(NewSquare(bf, br))
					bf += df
					br += dr
				}
				betweenBB[sq][to] = between

				line := SquareBB(sq) | SquareBB(to)
				lf, lr := sq.File()-df, sq.Rank()-dr
				for lf >= 0 && lf < 8 && lr >= 0 && lr < 8 {
					line |= SquareBB(NewSquare(lf, lr))
					lf -= df
					lr -= dr
				}
				lf, lr = f+df, r+dr
				for lf >= 0 && lf < 8 && lr >= 0 && lr < 8 {
					line |= SquareBB(NewSquare(lf, lr))
					lf += df
					lr += dr
				}
				line |= between
				lineBB[sq][to] = line

				f += df
				r += dr
			}
		}
	}
}

// KnightAttacks returns the squares a knight on sq attacks.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the squares a king on sq attacks.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the capture squares of a pawn of color c on sq.
func PawnAttacks(sq Square, c Color) Bitboard {
	return pawnAttacks[c][sq]
}

// BishopAttacks returns bishop attacks from sq given the occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return getBishopAttacks(sq, occupied)
}

// RookAttacks returns rook attacks from sq given the occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return getRookAttacks(sq, occupied)
}

// QueenAttacks returns queen attacks from sq given the occupancy.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return getBishopAttacks(sq, occupied) | getRookAttacks(sq, occupied)
}

// Between returns the squares strictly between two aligned squares, or the
// empty set when they share no rank, file, or diagonal.
func Between(a, b Square) Bitboard {
	return betweenBB[a][b]
}

// Line returns the full line through two aligned squares including both
// endpoints, or the empty set when they are not aligned.
func Line(a, b Square) Bitboard {
	return lineBB[a][b]
}

// Aligned reports whether c lies on the line through a and b.
func Aligned(a, b, c Square) bool {
	return lineBB[a][b]&SquareBB(c) != 0
}
