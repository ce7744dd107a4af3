package board

import "testing"

func mustParse(t *testing.T, fen string) Position {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("parse %q: %v", fen, err)
	}
	return pos
}

func TestCheckmateAndStalemateYieldNoMoves(t *testing.T) {
	cases := []struct {
		name      string
		fen       string
		mate      bool
		stalemate bool
	}{
		{"back rank mate", "R6k/6pp/8/8/8/8/8/K7 b - - 0 1", true, false},
		{"king can capture checker", "6Rk/8/8/8/8/8/8/K7 b - - 0 1", false, false},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", false, true},
	}
	for _, tc := range cases {
		pos := mustParse(t, tc.fen)
		if got := pos.IsCheckmate(); got != tc.mate {
			t.Errorf("%s: IsCheckmate = %v, want %v", tc.name, got, tc.mate)
		}
		if got := pos.IsStalemate(); got != tc.stalemate {
			t.Errorf("%s: IsStalemate = %v, want %v", tc.name, got, tc.stalemate)
		}
		var ml MoveList
		pos.LegalMoves(&ml)
		if (tc.mate || tc.stalemate) != (ml.Len() == 0) {
			t.Errorf("%s: %d legal moves, mate=%v stalemate=%v",
				tc.name, ml.Len(), tc.mate, tc.stalemate)
		}
	}
}

// Apply must leave the receiver untouched.
func TestApplyIsPure(t *testing.T) {
	pos := NewPosition()
	before := pos

	m, err := ParseMove("e2e4", &pos)
	if err != nil {
		t.Fatal(err)
	}
	next := pos.Apply(m)

	if pos != before {
		t.Fatal("Apply modified its receiver")
	}
	if next.Hash == pos.Hash {
		t.Error("successor hash unchanged")
	}
	if next.SideToMove != Black {
		t.Errorf("side to move = %v, want black", next.SideToMove)
	}
	if next.EnPassant != E3 {
		t.Errorf("en passant = %v, want e3", next.EnPassant)
	}
}

// The incrementally maintained hash must agree with a full recomputation
// after every move of a line that includes castling, captures, promotion,
// and en passant.
func TestIncrementalHashMatchesRecompute(t *testing.T) {
	lines := []struct {
		fen   string
		moves []string
	}{
		{StartFEN, []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5", "g8f6", "e1g1", "f6e4"}},
		{StartFEN, []string{"d2d4", "d7d5", "c2c4", "d5c4", "e2e3", "b7b5", "a2a4", "c7c6", "a4b5", "c6b5"}},
		{"8/2P5/8/8/4pP2/8/1k6/4K3 b - f3 0 1", []string{"e4f3", "c7c8q"}},
		{"r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R3K2R w KQkq - 0 1", []string{"e1c1", "e8g8"}},
	}

	for _, line := range lines {
		pos := mustParse(t, line.fen)
		for _, ms := range line.moves {
			m, err := ParseMove(ms, &pos)
			if err != nil {
				t.Fatalf("%s: %v", ms, err)
			}
			pos = pos.Apply(m)
			if pos.Hash != pos.ComputeHash() {
				t.Fatalf("after %s: incremental hash %016x != recomputed %016x",
					ms, pos.Hash, pos.ComputeHash())
			}
			if pos.PawnKey != pos.ComputePawnKey() {
				t.Fatalf("after %s: incremental pawn key mismatch", ms)
			}
		}
	}
}

// Every legal move from a handful of positions must keep the incremental
// hash consistent, including the moves a scripted line would miss.
func TestApplyHashAllMoves(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	}
	for _, fen := range fens {
		pos := mustParse(t, fen)
		var ml MoveList
		pos.LegalMoves(&ml)
		for i := 0; i < ml.Len(); i++ {
			next := pos.Apply(ml.Get(i))
			if next.Hash != next.ComputeHash() {
				t.Errorf("%s: move %v: hash mismatch", fen, ml.Get(i))
			}
		}
	}
}

func TestApplyNull(t *testing.T) {
	pos := mustParse(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	null := pos.ApplyNull()
	if null.SideToMove != White {
		t.Errorf("side to move = %v, want white", null.SideToMove)
	}
	if null.EnPassant != NoSquare {
		t.Error("en passant survived null move")
	}
	if null.Hash != null.ComputeHash() {
		t.Error("null move hash mismatch")
	}
	if pos.SideToMove != Black {
		t.Error("ApplyNull modified its receiver")
	}
}

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 3 42",
	}
	for _, fen := range fens {
		pos := mustParse(t, fen)
		if got := pos.ToFEN(); got != fen {
			t.Errorf("round trip: got %q, want %q", got, fen)
		}
	}
}

func TestFiftyMoveClockResets(t *testing.T) {
	pos := mustParse(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 10 20")
	knight, _ := ParseMove("g1f3", &pos)
	if next := pos.Apply(knight); next.HalfMoveClock != 11 {
		t.Errorf("quiet piece move: clock = %d, want 11", next.HalfMoveClock)
	}
	pawn, _ := ParseMove("e2e4", &pos)
	if next := pos.Apply(pawn); next.HalfMoveClock != 0 {
		t.Errorf("pawn move: clock = %d, want 0", next.HalfMoveClock)
	}
}
