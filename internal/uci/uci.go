// Package uci speaks the Universal Chess Interface protocol over stdio,
// driving the search coordinator and the opening book.
package uci

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/swgillespie/a4/internal/board"
	"github.com/swgillespie/a4/internal/book"
	"github.com/swgillespie/a4/internal/engine"
	"github.com/swgillespie/a4/internal/store"
)

const (
	engineName   = "a4"
	engineAuthor = "Sean Gillespie"
)

// UCI is the protocol handler. Commands arrive on in, protocol replies go to
// out, and diagnostics go through the standard logger.
type UCI struct {
	coord *engine.Coordinator
	st    *store.Store
	opts  *store.Options
	book  *book.Book

	pos    board.Position
	hashes []uint64

	searchDone chan struct{}

	in  io.Reader
	out io.Writer
}

// New creates a protocol handler. st may be nil, in which case options are
// not persisted between sessions.
func New(coord *engine.Coordinator, st *store.Store, in io.Reader, out io.Writer) *UCI {
	u := &UCI{
		coord: coord,
		st:    st,
		opts:  store.DefaultOptions(),
		pos:   board.NewPosition(),
		in:    in,
		out:   out,
	}
	u.hashes = []uint64{u.pos.Hash}

	if st != nil {
		opts, err := st.LoadOptions()
		if err != nil {
			log.Printf("loading options: %v", err)
		} else {
			u.opts = opts
			u.applyOptions()
		}
	}
	return u
}

// applyOptions pushes the current option values into the coordinator and
// reloads the book.
func (u *UCI) applyOptions() {
	u.coord.ResizeTable(u.opts.HashMB)
	u.coord.SetThreads(u.opts.Threads)
	if u.opts.OwnBook {
		u.loadBook()
	}
}

// loadBook loads the configured book file, falling back to the copy imported
// into the store.
func (u *UCI) loadBook() {
	if u.opts.BookFile != "" {
		b, err := book.Load(u.opts.BookFile)
		if err == nil {
			u.book = b
			return
		}
		log.Printf("loading book: %v", err)
	}
	if u.st != nil {
		if b, err := u.st.LoadBook(); err == nil && b.Size() > 0 {
			u.book = b
		}
	}
}

func (u *UCI) printf(format string, args ...any) {
	fmt.Fprintf(u.out, format, args...)
}

// Run processes commands until quit or EOF. It blocks; the caller owns the
// process lifecycle.
func (u *UCI) Run() {
	scanner := bufio.NewScanner(u.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.printf("readyok\n")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "setoption":
			u.handleSetOption(args)
		case "quit":
			u.handleStop()
			return
		// Debug commands.
		case "d":
			u.printf("%s\n", u.pos.String())
		case "perft":
			u.handlePerft(args)
		}
	}
}

func (u *UCI) handleUCI() {
	u.printf("id name %s\n", engineName)
	u.printf("id author %s\n", engineAuthor)
	u.printf("\n")
	u.printf("option name Hash type spin default %d min 1 max 4096\n", u.opts.HashMB)
	u.printf("option name Threads type spin default %d min 1 max 256\n", u.opts.Threads)
	u.printf("option name OwnBook type check default %v\n", u.opts.OwnBook)
	u.printf("option name BookFile type string default %s\n", orEmpty(u.opts.BookFile))
	u.printf("uciok\n")
}

func orEmpty(s string) string {
	if s == "" {
		return "<empty>"
	}
	return s
}

func (u *UCI) handleNewGame() {
	u.coord.ClearState()
	u.pos = board.NewPosition()
	u.hashes = []uint64{u.pos.Hash}
}

// handlePosition sets up the position from either "startpos" or "fen ...",
// then applies the optional move list, tracking hashes for repetition
// detection.
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesIdx := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesIdx = i
			break
		}
	}

	switch args[0] {
	case "startpos":
		u.pos = board.NewPosition()
	case "fen":
		pos, err := board.ParseFEN(strings.Join(args[1:movesIdx], " "))
		if err != nil {
			log.Printf("invalid fen: %v", err)
			return
		}
		u.pos = pos
	default:
		return
	}

	u.hashes = []uint64{u.pos.Hash}
	moveStart := min(movesIdx+1, len(args))
	for _, s := range args[moveStart:] {
		m, err := board.ParseMove(s, &u.pos)
		if err != nil || !u.isLegal(m) {
			log.Printf("invalid move %q in position command", s)
			return
		}
		u.pos = u.pos.Apply(m)
		u.hashes = append(u.hashes, u.pos.Hash)
	}
}

func (u *UCI) isLegal(m board.Move) bool {
	var legal board.MoveList
	u.pos.LegalMoves(&legal)
	return legal.Contains(m)
}

// handleGo starts a search, or answers straight from the opening book.
func (u *UCI) handleGo(args []string) {
	limits := parseLimits(args)

	if u.opts.OwnBook && !limits.Infinite {
		if m, ok := u.book.Probe(&u.pos); ok {
			u.printf("bestmove %s\n", m)
			return
		}
	}

	u.coord.OnInfo = u.sendInfo

	u.searchDone = make(chan struct{})
	pos := u.pos
	hashes := append([]uint64(nil), u.hashes...)

	go func() {
		defer close(u.searchDone)
		res := u.coord.Go(pos, limits, hashes)

		best := res.Move
		if best != board.NoMove {
			var legal board.MoveList
			pos.LegalMoves(&legal)
			if !legal.Contains(best) {
				log.Printf("search returned illegal move %s", best)
				best = board.NoMove
			}
		}
		if best == board.NoMove {
			// Mate and stalemate have no move to send. Anything else
			// falls back to the first legal move.
			var legal board.MoveList
			pos.LegalMoves(&legal)
			if legal.Len() > 0 {
				best = legal.Get(0)
			}
		}
		u.printf("bestmove %s\n", best)
	}()
}

// parseLimits converts "go" arguments into search limits.
func parseLimits(args []string) engine.Limits {
	var limits engine.Limits

	ms := func(s string) time.Duration {
		n, _ := strconv.Atoi(s)
		return time.Duration(n) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		next := ""
		if i+1 < len(args) {
			next = args[i+1]
		}
		switch args[i] {
		case "depth":
			limits.Depth, _ = strconv.Atoi(next)
			i++
		case "nodes":
			limits.Nodes, _ = strconv.ParseUint(next, 10, 64)
			i++
		case "movetime":
			limits.MoveTime = ms(next)
			i++
		case "wtime":
			limits.Time[board.White] = ms(next)
			i++
		case "btime":
			limits.Time[board.Black] = ms(next)
			i++
		case "winc":
			limits.Inc[board.White] = ms(next)
			i++
		case "binc":
			limits.Inc[board.Black] = ms(next)
			i++
		case "movestogo":
			limits.MovesToGo, _ = strconv.Atoi(next)
			i++
		case "infinite":
			limits.Infinite = true
		}
	}
	return limits
}

// sendInfo prints one iteration report in UCI info format.
func (u *UCI) sendInfo(info engine.Info) {
	var b strings.Builder
	fmt.Fprintf(&b, "info depth %d score %s nodes %d time %d",
		info.Depth, engine.ScoreString(info.Score), info.Nodes, info.Time.Milliseconds())
	if info.Time > 0 {
		fmt.Fprintf(&b, " nps %d", uint64(float64(info.Nodes)/info.Time.Seconds()))
	}
	if info.Hashfull > 0 {
		fmt.Fprintf(&b, " hashfull %d", info.Hashfull)
	}
	if len(info.PV) > 0 {
		b.WriteString(" pv")
		for _, m := range info.PV {
			b.WriteByte(' ')
			b.WriteString(m.String())
		}
	}
	u.printf("%s\n", b.String())
}

func (u *UCI) handleStop() {
	if u.searchDone == nil {
		return
	}
	u.coord.Stop()
	<-u.searchDone
	u.searchDone = nil
}

// handleSetOption parses "setoption name <name> value <value>", where both
// the name and the value may contain spaces.
func (u *UCI) handleSetOption(args []string) {
	var name, value string
	target := &name
	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			if *target != "" {
				*target += " "
			}
			*target += arg
		}
	}

	switch strings.ToLower(name) {
	case "hash":
		mb, err := strconv.Atoi(value)
		if err != nil || mb < 1 {
			return
		}
		u.opts.HashMB = mb
		u.coord.ResizeTable(mb)
	case "threads":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return
		}
		u.opts.Threads = n
		u.coord.SetThreads(n)
	case "ownbook":
		u.opts.OwnBook = strings.EqualFold(value, "true")
		if u.opts.OwnBook && u.book == nil {
			u.loadBook()
		}
	case "bookfile":
		u.opts.BookFile = value
		u.book = nil
		u.loadBook()
		if u.book != nil && u.st != nil {
			if err := u.st.ImportBook(u.book); err != nil {
				log.Printf("importing book: %v", err)
			}
		}
	default:
		return
	}

	if u.st != nil {
		if err := u.st.SaveOptions(u.opts); err != nil {
			log.Printf("saving options: %v", err)
		}
	}
}

// handlePerft counts leaf nodes to the given depth and prints per-move
// subtotals the way divide output is usually read.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}

	start := time.Now()
	moves, counts, total := board.PerftDivide(&u.pos, depth)
	elapsed := time.Since(start)

	for i, m := range moves {
		u.printf("%s: %d\n", m, counts[i])
	}
	u.printf("\nNodes searched: %d\n", total)
	u.printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		u.printf("NPS: %.0f\n", float64(total)/elapsed.Seconds())
	}
}
