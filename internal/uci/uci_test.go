package uci

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/swgillespie/a4/internal/board"
	"github.com/swgillespie/a4/internal/engine"
	"github.com/swgillespie/a4/internal/eval"
)

func newTestHandler(script string) (*UCI, *bytes.Buffer) {
	var out bytes.Buffer
	coord := engine.NewCoordinator(4, 1, func() engine.Evaluator { return eval.New() })
	return New(coord, nil, strings.NewReader(script), &out), &out
}

func TestUCIHandshake(t *testing.T) {
	u, out := newTestHandler("uci\nquit\n")
	u.Run()

	got := out.String()
	for _, want := range []string{
		"id name a4",
		"option name Hash type spin",
		"option name Threads type spin",
		"option name OwnBook type check",
		"uciok",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("handshake output missing %q:\n%s", want, got)
		}
	}
}

func TestIsReady(t *testing.T) {
	u, out := newTestHandler("isready\nquit\n")
	u.Run()
	if !strings.Contains(out.String(), "readyok") {
		t.Errorf("no readyok in output:\n%s", out.String())
	}
}

func TestPositionStartposWithMoves(t *testing.T) {
	u, _ := newTestHandler("")
	u.handlePosition(strings.Fields("startpos moves e2e4 e7e5 g1f3"))

	if u.pos.SideToMove != board.Black {
		t.Errorf("side to move = %v, want black", u.pos.SideToMove)
	}
	if u.pos.FullMoveNumber != 2 {
		t.Errorf("fullmove = %d, want 2", u.pos.FullMoveNumber)
	}
	if len(u.hashes) != 4 {
		t.Errorf("tracked %d hashes, want 4", len(u.hashes))
	}
}

func TestPositionFEN(t *testing.T) {
	fen := "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1"
	u, _ := newTestHandler("")
	u.handlePosition(append([]string{"fen"}, strings.Fields(fen)...))
	if got := u.pos.ToFEN(); got != fen {
		t.Errorf("position = %q, want %q", got, fen)
	}
}

func TestPositionFENWithMoves(t *testing.T) {
	u, _ := newTestHandler("")
	args := append([]string{"fen"}, strings.Fields(board.StartFEN)...)
	args = append(args, "moves", "d2d4", "d7d5")
	u.handlePosition(args)
	if u.pos.FullMoveNumber != 2 || u.pos.SideToMove != board.White {
		t.Errorf("position after moves: %s", u.pos.ToFEN())
	}
}

func TestPositionRejectsIllegalMove(t *testing.T) {
	u, _ := newTestHandler("")
	before := u.pos
	u.handlePosition(strings.Fields("startpos moves e2e5"))
	// The handler stops applying at the illegal move; position setup may be
	// partial but never corrupt.
	if u.pos != before && u.pos.Validate() != nil {
		t.Errorf("position corrupted by illegal move: %v", u.pos.Validate())
	}
}

func TestGoDepthEmitsBestmove(t *testing.T) {
	u, out := newTestHandler("position startpos\ngo depth 3\nquit\n")
	done := make(chan struct{})
	go func() {
		u.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("Run did not return")
	}

	got := out.String()
	if !strings.Contains(got, "bestmove ") {
		t.Fatalf("no bestmove in output:\n%s", got)
	}
	if !strings.Contains(got, "info depth ") {
		t.Errorf("no info lines in output:\n%s", got)
	}
}

func TestParseLimits(t *testing.T) {
	tests := []struct {
		name string
		args string
		want engine.Limits
	}{
		{
			"depth",
			"depth 12",
			engine.Limits{Depth: 12},
		},
		{
			"nodes and movetime",
			"nodes 500000 movetime 2000",
			engine.Limits{Nodes: 500000, MoveTime: 2 * time.Second},
		},
		{
			"clock",
			"wtime 60000 btime 55000 winc 1000 binc 1000 movestogo 20",
			engine.Limits{
				Time:      [2]time.Duration{60 * time.Second, 55 * time.Second},
				Inc:       [2]time.Duration{time.Second, time.Second},
				MovesToGo: 20,
			},
		},
		{
			"infinite",
			"infinite",
			engine.Limits{Infinite: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLimits(strings.Fields(tt.args)); got != tt.want {
				t.Errorf("parseLimits(%q) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func TestSetOptionThreadsAndHash(t *testing.T) {
	u, _ := newTestHandler("")
	u.handleSetOption(strings.Fields("name Threads value 4"))
	if u.opts.Threads != 4 {
		t.Errorf("Threads option = %d, want 4", u.opts.Threads)
	}
	u.handleSetOption(strings.Fields("name Hash value 128"))
	if u.opts.HashMB != 128 {
		t.Errorf("Hash option = %d, want 128", u.opts.HashMB)
	}
	// Bad values leave the options untouched.
	u.handleSetOption(strings.Fields("name Threads value zero"))
	if u.opts.Threads != 4 {
		t.Errorf("Threads changed by invalid value: %d", u.opts.Threads)
	}
}

func TestPerftCommand(t *testing.T) {
	u, out := newTestHandler("position startpos\nperft 3\nquit\n")
	u.Run()
	if !strings.Contains(out.String(), "Nodes searched: 8902") {
		t.Errorf("perft 3 output:\n%s", out.String())
	}
}
