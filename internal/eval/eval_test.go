package eval

import (
	"testing"

	"github.com/swgillespie/a4/internal/board"
)

func mustParse(t *testing.T, fen string) board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func TestStartPositionNearBalanced(t *testing.T) {
	pos := mustParse(t, board.StartFEN)
	e := New()
	score := e.Evaluate(&pos)
	if score < 0 || score > 50 {
		t.Errorf("start position scored %d, want small positive tempo edge", score)
	}
}

func TestMaterialDominates(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		min  int
	}{
		{
			"queen up",
			"rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
			700,
		},
		{
			"rook up",
			"1nbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQk - 0 1",
			350,
		},
		{
			"minor up",
			"r1bqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
			200,
		},
	}
	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := mustParse(t, tt.fen)
			if got := e.Evaluate(&pos); got < tt.min {
				t.Errorf("Evaluate() = %d, want at least %d", got, tt.min)
			}
		})
	}
}

func TestSideToMovePerspective(t *testing.T) {
	// The same material imbalance must flip sign with the side to move.
	white := mustParse(t, "rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	black := mustParse(t, "rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1")
	e := New()
	ws := e.Evaluate(&white)
	bs := e.Evaluate(&black)
	if ws <= 0 {
		t.Errorf("white to move scored %d, want positive", ws)
	}
	if bs >= 0 {
		t.Errorf("black to move scored %d, want negative", bs)
	}
}

func TestMirrorSymmetry(t *testing.T) {
	// A vertically mirrored position with colors swapped scores the same
	// for the side to move.
	tests := []struct {
		name     string
		fen      string
		mirrored string
	}{
		{
			"kings and pawns",
			"4k3/pppp4/8/8/8/8/PPPP4/4K3 w - - 0 1",
			"4k3/pppp4/8/8/8/8/PPPP4/4K3 b - - 0 1",
		},
		{
			"rook endgame",
			"4k3/8/8/8/8/8/R7/4K3 w - - 0 1",
			"4k3/r7/8/8/8/8/8/4K3 b - - 0 1",
		},
	}
	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustParse(t, tt.fen)
			b := mustParse(t, tt.mirrored)
			if sa, sb := e.Evaluate(&a), e.Evaluate(&b); sa != sb {
				t.Errorf("mirror scores differ: %d vs %d", sa, sb)
			}
		})
	}
}

func TestPassedPawnRewarded(t *testing.T) {
	// Identical material, but white's d-pawn is passed in the second FEN.
	blocked := mustParse(t, "4k3/3p4/8/3P4/8/8/8/4K3 w - - 0 1")
	passed := mustParse(t, "4k3/p7/8/3P4/8/8/8/4K3 w - - 0 1")
	e := New()
	if b, p := e.Evaluate(&blocked), e.Evaluate(&passed); p <= b {
		t.Errorf("passed pawn scored %d, blocked pawn %d, want passed higher", p, b)
	}
}

func TestPawnCacheConsistent(t *testing.T) {
	pos := mustParse(t, "4k3/pp3ppp/8/8/8/8/PPP3PP/4K3 w - - 0 1")
	e := New()
	first := e.Evaluate(&pos)
	for i := 0; i < 3; i++ {
		if got := e.Evaluate(&pos); got != first {
			t.Fatalf("evaluation changed between calls: %d then %d", first, got)
		}
	}
}
