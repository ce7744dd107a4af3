package board

// Zobrist keys for incremental position hashing. The generator is seeded with
// a fixed constant so every process derives the same keys, which keeps hashes
// stable across runs and across worker threads.
var (
	zobristPiece      [2][6][64]uint64
	zobristEnPassant  [8]uint64 // keyed by file
	zobristCastling   [16]uint64
	zobristSideToMove uint64
)

// xorshift64* generator, state must be nonzero.
type prng struct {
	state uint64
}

func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := prng{state: 0x98F107A2BEEF1234}

	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := A1; sq <= H8; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
	}
	for file := 0; file < 8; file++ {
		zobristEnPassant[file] = rng.next()
	}
	for i := range zobristCastling {
		zobristCastling[i] = rng.next()
	}
	zobristSideToMove = rng.next()
}

// ZobristPiece returns the hash contribution of a piece on a square.
func ZobristPiece(c Color, pt PieceType, sq Square) uint64 {
	return zobristPiece[c][pt][sq]
}

// ZobristEnPassant returns the hash contribution of an en passant file.
func ZobristEnPassant(file int) uint64 {
	return zobristEnPassant[file]
}

// ZobristCastling returns the hash contribution of a castling rights set.
func ZobristCastling(cr CastlingRights) uint64 {
	return zobristCastling[cr]
}

// ZobristSideToMove returns the hash contribution of black being to move.
func ZobristSideToMove() uint64 {
	return zobristSideToMove
}
