package engine

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

func mustMove(t *testing.T, pos *board.Position, uci string) board.Move {
	t.Helper()
	m, err := board.ParseMove(uci, pos)
	if err != nil {
		t.Fatalf("ParseMove(%q): %v", uci, err)
	}
	return m
}

func TestSEE(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		move string
		want int
	}{
		{
			"free pawn",
			"1k6/8/8/3p4/8/8/8/1K1R4 w - - 0 1",
			"d1d5",
			100,
		},
		{
			"defended pawn loses the rook",
			"1k6/8/2p5/3p4/8/8/8/1K1R4 w - - 0 1",
			"d1d5",
			-400,
		},
		{
			"pawn takes defended pawn",
			"1k6/8/2p5/3p4/4P3/8/8/1K6 w - - 0 1",
			"e4d5",
			0,
		},
		{
			"recapture declined when backed up",
			"1k1r4/8/8/3p4/8/4N3/8/1K1R4 w - - 0 1",
			"e3d5",
			100,
		},
		{
			"quiet move",
			"1k6/8/8/8/8/8/8/1K1R4 w - - 0 1",
			"d1d4",
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := mustParse(t, tt.fen)
			m := mustMove(t, &pos, tt.move)
			if got := SEE(&pos, m); got != tt.want {
				t.Errorf("SEE(%s) = %d, want %d", tt.move, got, tt.want)
			}
		})
	}
}
