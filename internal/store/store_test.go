package store

import (
	"testing"

	"github.com/swgillespie/a4/internal/board"
	"github.com/swgillespie/a4/internal/book"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOptionsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	opts, err := s.LoadOptions()
	if err != nil {
		t.Fatalf("LoadOptions on empty store: %v", err)
	}
	if opts.HashMB != 64 || opts.Threads != 1 || opts.OwnBook {
		t.Errorf("defaults = %+v", opts)
	}

	opts.HashMB = 256
	opts.Threads = 8
	opts.OwnBook = true
	opts.BookFile = "/tmp/book.bin"
	if err := s.SaveOptions(opts); err != nil {
		t.Fatalf("SaveOptions: %v", err)
	}

	loaded, err := s.LoadOptions()
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if *loaded != *opts {
		t.Errorf("loaded %+v, saved %+v", loaded, opts)
	}
}

func TestBookImportAndProbe(t *testing.T) {
	s := openTestStore(t)
	pos := board.NewPosition()

	b := book.New()
	b.Add(pos.PolyglotHash(), board.NewMove(board.E2, board.E4), 90)
	b.Add(pos.PolyglotHash(), board.NewMove(board.D2, board.D4), 40)
	b.Add(0x1111, board.NewMove(board.G1, board.F3), 10)

	if err := s.ImportBook(b); err != nil {
		t.Fatalf("ImportBook: %v", err)
	}

	entries, err := s.ProbeBook(&pos)
	if err != nil {
		t.Fatalf("ProbeBook: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ProbeBook returned %d entries, want 2", len(entries))
	}
	moves := map[board.Move]uint16{}
	for _, e := range entries {
		moves[e.Move] = e.Weight
	}
	if moves[board.NewMove(board.E2, board.E4)] != 90 {
		t.Errorf("e2e4 weight = %d, want 90", moves[board.NewMove(board.E2, board.E4)])
	}
	if moves[board.NewMove(board.D2, board.D4)] != 40 {
		t.Errorf("d2d4 weight = %d, want 40", moves[board.NewMove(board.D2, board.D4)])
	}
}

func TestLoadBookRebuildsEntries(t *testing.T) {
	s := openTestStore(t)
	pos := board.NewPosition()

	b := book.New()
	b.Add(pos.PolyglotHash(), board.NewMove(board.E2, board.E4), 90)
	b.Add(0x2222, board.NewMove(board.B1, board.C3), 5)
	if err := s.ImportBook(b); err != nil {
		t.Fatalf("ImportBook: %v", err)
	}

	loaded, err := s.LoadBook()
	if err != nil {
		t.Fatalf("LoadBook: %v", err)
	}
	if loaded.Size() != 2 {
		t.Errorf("Size() = %d, want 2", loaded.Size())
	}
	if m, ok := loaded.Probe(&pos); !ok || m.From() != board.E2 || m.To() != board.E4 {
		t.Errorf("Probe after reload = %s, %v", m, ok)
	}
}

func TestImportReplacesOldBook(t *testing.T) {
	s := openTestStore(t)
	pos := board.NewPosition()

	first := book.New()
	first.Add(pos.PolyglotHash(), board.NewMove(board.E2, board.E4), 1)
	if err := s.ImportBook(first); err != nil {
		t.Fatalf("ImportBook: %v", err)
	}

	second := book.New()
	second.Add(0x3333, board.NewMove(board.D2, board.D4), 1)
	if err := s.ImportBook(second); err != nil {
		t.Fatalf("ImportBook replacement: %v", err)
	}

	entries, err := s.ProbeBook(&pos)
	if err != nil {
		t.Fatalf("ProbeBook: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("old book entries survived import: %v", entries)
	}
}

func TestDropBookKeepsOptions(t *testing.T) {
	s := openTestStore(t)

	opts := DefaultOptions()
	opts.Threads = 4
	if err := s.SaveOptions(opts); err != nil {
		t.Fatalf("SaveOptions: %v", err)
	}

	b := book.New()
	b.Add(0x4444, board.NewMove(board.E2, board.E4), 1)
	if err := s.ImportBook(b); err != nil {
		t.Fatalf("ImportBook: %v", err)
	}
	if err := s.DropBook(); err != nil {
		t.Fatalf("DropBook: %v", err)
	}

	loaded, err := s.LoadOptions()
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if loaded.Threads != 4 {
		t.Errorf("options lost after DropBook: %+v", loaded)
	}
}
