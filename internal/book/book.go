// Package book implements Polyglot opening books: parsing the binary format,
// weighted move selection, and verification against the legal moves of the
// probed position.
package book

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"

	"github.com/swgillespie/a4/internal/board"
)

// Entry is one weighted book move for a position.
type Entry struct {
	Move   board.Move
	Weight uint16
}

// Book maps Polyglot position keys to their weighted candidate moves.
type Book struct {
	entries map[uint64][]Entry
	rng     *rand.Rand
}

// bookSeed fixes the weighted-selection stream so a fresh book probes the
// same line every run.
const bookSeed = 0x1D872B41

// New creates an empty book.
func New() *Book {
	return &Book{
		entries: make(map[uint64][]Entry),
		rng:     rand.New(rand.NewSource(bookSeed)),
	}
}

// Load reads a Polyglot format book from a file.
func Load(filename string) (*Book, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("reading book %s: %w", filename, err)
	}
	return b, nil
}

// ReadFrom reads Polyglot entries from r until EOF. Each entry is 16 bytes,
// big-endian: position key, move, weight, and learn data, which is ignored.
func ReadFrom(r io.Reader) (*Book, error) {
	b := New()
	var raw [16]byte
	for {
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			if err == io.EOF {
				return b, nil
			}
			return nil, err
		}
		key := binary.BigEndian.Uint64(raw[0:8])
		move := decodeMove(binary.BigEndian.Uint16(raw[8:10]))
		weight := binary.BigEndian.Uint16(raw[10:12])
		if move != board.NoMove {
			b.Add(key, move, weight)
		}
	}
}

// Add records a candidate move for a position key.
func (b *Book) Add(key uint64, m board.Move, weight uint16) {
	b.entries[key] = append(b.entries[key], Entry{Move: m, Weight: weight})
}

// decodeMove converts the Polyglot move encoding, to square in the low six
// bits, from square above it, then the promotion piece.
func decodeMove(data uint16) board.Move {
	to := board.NewSquare(int(data&7), int(data>>3&7))
	from := board.NewSquare(int(data>>6&7), int(data>>9&7))

	// Polyglot encodes castling as king takes own rook.
	switch {
	case from == board.E1 && to == board.H1:
		to = board.G1
	case from == board.E1 && to == board.A1:
		to = board.C1
	case from == board.E8 && to == board.H8:
		to = board.G8
	case from == board.E8 && to == board.A8:
		to = board.C8
	}

	if promo := data >> 12 & 7; promo > 0 {
		kinds := [5]board.PieceType{board.NoPieceType, board.Knight, board.Bishop, board.Rook, board.Queen}
		if promo > 4 {
			return board.NoMove
		}
		return board.NewPromotion(from, to, kinds[promo])
	}
	return board.NewMove(from, to)
}

// Probe picks a book move for pos by weighted random selection, returning
// false when the position is out of book. The returned move carries the
// flags of the matching legal move, so castling and en passant apply
// correctly.
func (b *Book) Probe(pos *board.Position) (board.Move, bool) {
	if b == nil {
		return board.NoMove, false
	}
	entries := b.lookup(pos)
	if len(entries) == 0 {
		return board.NoMove, false
	}

	total := uint32(0)
	for _, e := range entries {
		total += uint32(e.Weight)
	}
	if total == 0 {
		return verify(pos, entries[0].Move)
	}

	r := b.rng.Uint32() % total
	for _, e := range entries {
		w := uint32(e.Weight)
		if r < w {
			return verify(pos, e.Move)
		}
		r -= w
	}
	return verify(pos, entries[0].Move)
}

// ProbeAll returns every book move for pos, heaviest first.
func (b *Book) ProbeAll(pos *board.Position) []Entry {
	if b == nil {
		return nil
	}
	return b.lookup(pos)
}

func (b *Book) lookup(pos *board.Position) []Entry {
	entries := b.entries[pos.PolyglotHash()]
	if len(entries) == 0 {
		return nil
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Weight > out[j].Weight
	})
	return out
}

// verify swaps the decoded move for the matching legal move so the engine
// applies it with the right flags, and rejects moves that are not legal in
// pos at all.
func verify(pos *board.Position, m board.Move) (board.Move, bool) {
	var legal board.MoveList
	pos.LegalMoves(&legal)
	for _, lm := range legal.Slice() {
		if lm.From() != m.From() || lm.To() != m.To() {
			continue
		}
		if lm.IsPromotion() != m.IsPromotion() {
			continue
		}
		if lm.IsPromotion() && lm.Promotion() != m.Promotion() {
			continue
		}
		return lm, true
	}
	return board.NoMove, false
}

// Each calls fn for every entry in the book, in no particular order.
func (b *Book) Each(fn func(key uint64, e Entry)) {
	for key, entries := range b.entries {
		for _, e := range entries {
			fn(key, e)
		}
	}
}

// Size returns the number of unique positions in the book.
func (b *Book) Size() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}
