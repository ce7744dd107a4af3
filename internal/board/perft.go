package board

// Perft counts the leaf nodes of the legal move tree to the given depth.
// It exists to validate move generation against known reference counts.
func Perft(p *Position, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	var ml MoveList
	p.LegalMoves(&ml)
	if depth == 1 {
		return uint64(ml.Len())
	}
	var nodes uint64
	for i := 0; i < ml.Len(); i++ {
		next := p.Apply(ml.Get(i))
		nodes += Perft(&next, depth-1)
	}
	return nodes
}

// PerftDivide returns the per-move leaf counts at the root, in generation
// order, along with the total. Used by the "perft" debug command.
func PerftDivide(p *Position, depth int) ([]Move, []uint64, uint64) {
	var ml MoveList
	p.LegalMoves(&ml)
	moves := make([]Move, ml.Len())
	counts := make([]uint64, ml.Len())
	var total uint64
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		next := p.Apply(m)
		n := Perft(&next, depth-1)
		moves[i] = m
		counts[i] = n
		total += n
	}
	return moves, counts, total
}
