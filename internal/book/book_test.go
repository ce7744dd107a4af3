package book

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/swgillespie/a4/internal/board"
)

// writeEntry appends one raw Polyglot entry to buf.
func writeEntry(buf *bytes.Buffer, key uint64, move, weight uint16) {
	binary.Write(buf, binary.BigEndian, key)
	binary.Write(buf, binary.BigEndian, move)
	binary.Write(buf, binary.BigEndian, weight)
	binary.Write(buf, binary.BigEndian, uint32(0))
}

// encodeMove packs from and to into the Polyglot move format.
func encodeMove(from, to board.Square) uint16 {
	return uint16(to.File()) | uint16(to.Rank())<<3 |
		uint16(from.File())<<6 | uint16(from.Rank())<<9
}

func TestPolyglotHashChangesWithPosition(t *testing.T) {
	pos := board.NewPosition()
	h1 := pos.PolyglotHash()
	if h2 := pos.PolyglotHash(); h1 != h2 {
		t.Errorf("hash not stable: %x vs %x", h1, h2)
	}

	next := pos.Apply(board.NewMove(board.E2, board.E4))
	if h3 := next.PolyglotHash(); h1 == h3 {
		t.Error("hash unchanged after a move")
	}
	if h4 := pos.PolyglotHash(); h1 != h4 {
		t.Errorf("hash of original position changed: %x vs %x", h1, h4)
	}
}

func TestReadAndProbe(t *testing.T) {
	pos := board.NewPosition()

	var buf bytes.Buffer
	writeEntry(&buf, pos.PolyglotHash(), encodeMove(board.E2, board.E4), 100)

	b, err := ReadFrom(&buf)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if b.Size() != 1 {
		t.Errorf("Size() = %d, want 1", b.Size())
	}

	m, ok := b.Probe(&pos)
	if !ok {
		t.Fatal("Probe missed the start position")
	}
	if m.From() != board.E2 || m.To() != board.E4 {
		t.Errorf("Probe returned %s, want e2e4", m)
	}
}

func TestProbeMiss(t *testing.T) {
	b := New()
	pos := board.NewPosition()
	if m, ok := b.Probe(&pos); ok || m != board.NoMove {
		t.Errorf("empty book returned %s, %v", m, ok)
	}
}

func TestProbeRejectsIllegalMove(t *testing.T) {
	pos := board.NewPosition()

	// e2e5 is not a legal move from the start position.
	var buf bytes.Buffer
	writeEntry(&buf, pos.PolyglotHash(), encodeMove(board.E2, board.E5), 100)

	b, err := ReadFrom(&buf)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if m, ok := b.Probe(&pos); ok || m != board.NoMove {
		t.Errorf("illegal book move returned %s, %v", m, ok)
	}
}

func TestProbeConvertsCastling(t *testing.T) {
	// Polyglot books store castling as king takes own rook; the probe must
	// hand back the engine's own castling move.
	pos, err := board.ParseFEN("r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	var buf bytes.Buffer
	writeEntry(&buf, pos.PolyglotHash(), encodeMove(board.E1, board.H1), 50)

	b, err := ReadFrom(&buf)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	m, ok := b.Probe(&pos)
	if !ok {
		t.Fatal("Probe missed the castling entry")
	}
	if !m.IsCastling() || m.From() != board.E1 || m.To() != board.G1 {
		t.Errorf("Probe returned %s, want castling e1g1", m)
	}
}

func TestProbeAllSortedByWeight(t *testing.T) {
	pos := board.NewPosition()

	var buf bytes.Buffer
	key := pos.PolyglotHash()
	writeEntry(&buf, key, encodeMove(board.D2, board.D4), 30)
	writeEntry(&buf, key, encodeMove(board.E2, board.E4), 90)
	writeEntry(&buf, key, encodeMove(board.G1, board.F3), 60)

	b, err := ReadFrom(&buf)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	entries := b.ProbeAll(&pos)
	if len(entries) != 3 {
		t.Fatalf("ProbeAll returned %d entries", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Weight > entries[i-1].Weight {
			t.Errorf("entries not sorted by weight: %v", entries)
		}
	}
	if entries[0].Move.To() != board.E4 {
		t.Errorf("heaviest move is %s, want e2e4", entries[0].Move)
	}
}

func TestDecodeMove(t *testing.T) {
	tests := []struct {
		name     string
		from, to board.Square
	}{
		{"e2e4", board.E2, board.E4},
		{"d7d5", board.D7, board.D5},
		{"g8f6", board.G8, board.F6},
	}
	for _, tt := range tests {
		m := decodeMove(encodeMove(tt.from, tt.to))
		if m.From() != tt.from || m.To() != tt.to {
			t.Errorf("%s decoded to %s", tt.name, m)
		}
	}
}

func TestProbeDeterministic(t *testing.T) {
	pos := board.NewPosition()

	var buf bytes.Buffer
	writeEntry(&buf, pos.PolyglotHash(), encodeMove(board.E2, board.E4), 3)
	writeEntry(&buf, pos.PolyglotHash(), encodeMove(board.D2, board.D4), 2)
	writeEntry(&buf, pos.PolyglotHash(), encodeMove(board.G1, board.F3), 1)

	raw := buf.Bytes()
	b1, err := ReadFrom(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	b2, err := ReadFrom(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}

	for i := 0; i < 32; i++ {
		m1, ok1 := b1.Probe(&pos)
		m2, ok2 := b2.Probe(&pos)
		if !ok1 || !ok2 {
			t.Fatalf("probe %d missed: %v %v", i, ok1, ok2)
		}
		if m1 != m2 {
			t.Fatalf("probe %d diverged: %s vs %s", i, m1, m2)
		}
	}
}
