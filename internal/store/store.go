// Package store persists engine state between sessions in BadgerDB: the UCI
// option values and an imported opening book, keyed by Polyglot position
// hash so probing is a single point lookup.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/swgillespie/a4/internal/board"
	"github.com/swgillespie/a4/internal/book"
)

const keyOptions = "options"

// bookPrefix namespaces book entries away from the option record.
const bookPrefix = "book:"

// Options are the persisted engine settings.
type Options struct {
	HashMB   int    `json:"hash_mb"`
	Threads  int    `json:"threads"`
	OwnBook  bool   `json:"own_book"`
	BookFile string `json:"book_file"`
}

// DefaultOptions returns the settings a fresh install runs with.
func DefaultOptions() *Options {
	return &Options{
		HashMB:  64,
		Threads: 1,
	}
}

// Store wraps a Badger database.
type Store struct {
	db *badger.DB
}

// Open opens or creates the database in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a database backed by memory only, for tests.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveOptions persists the engine settings.
func (s *Store) SaveOptions(opts *Options) error {
	data, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyOptions), data)
	})
}

// LoadOptions loads the engine settings, returning defaults when none have
// been saved yet.
func (s *Store) LoadOptions() (*Options, error) {
	opts := DefaultOptions()
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyOptions))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, opts)
		})
	})
	return opts, err
}

// bookKey builds the database key for a Polyglot position hash.
func bookKey(hash uint64) []byte {
	key := make([]byte, len(bookPrefix)+8)
	copy(key, bookPrefix)
	binary.BigEndian.PutUint64(key[len(bookPrefix):], hash)
	return key
}

// ImportBook writes every entry of b into the database, replacing any
// previously imported book. Entries for one position pack into a single
// value, four bytes each: move then weight, big-endian.
func (s *Store) ImportBook(b *book.Book) error {
	if err := s.DropBook(); err != nil {
		return err
	}

	packed := make(map[uint64][]byte, b.Size())
	b.Each(func(hash uint64, e book.Entry) {
		var raw [4]byte
		binary.BigEndian.PutUint16(raw[0:2], uint16(e.Move))
		binary.BigEndian.PutUint16(raw[2:4], e.Weight)
		packed[hash] = append(packed[hash], raw[:]...)
	})

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for hash, val := range packed {
		if err := wb.Set(bookKey(hash), val); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// ProbeBook returns the stored book entries for pos, heaviest first, or nil
// when the position is out of book.
func (s *Store) ProbeBook(pos *board.Position) ([]book.Entry, error) {
	var entries []book.Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(bookKey(pos.PolyglotHash()))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			for i := 0; i+4 <= len(val); i += 4 {
				entries = append(entries, book.Entry{
					Move:   board.Move(binary.BigEndian.Uint16(val[i : i+2])),
					Weight: binary.BigEndian.Uint16(val[i+2 : i+4]),
				})
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// LoadBook rebuilds an in-memory book from every stored entry.
func (s *Store) LoadBook() (*book.Book, error) {
	b := book.New()
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(bookPrefix)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			hash := binary.BigEndian.Uint64(item.Key()[len(bookPrefix):])
			if err := item.Value(func(val []byte) error {
				for i := 0; i+4 <= len(val); i += 4 {
					b.Add(hash,
						board.Move(binary.BigEndian.Uint16(val[i:i+2])),
						binary.BigEndian.Uint16(val[i+2:i+4]))
				}
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// DropBook deletes every stored book entry.
func (s *Store) DropBook() error {
	return s.db.DropPrefix([]byte(bookPrefix))
}
