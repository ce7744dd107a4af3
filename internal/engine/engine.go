package engine

import (
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/swgillespie/a4/internal/board"
)

// Info is a progress report emitted each time any worker completes an
// iteration deeper than anything reported so far.
type Info struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	Hashfull int
}

// Coordinator owns the shared search state and runs a pool of workers
// against it. Workers share the transposition table, the stop flag, and the
// node counter; each owns its position clone and ordering state. The
// coordinator never moves pieces itself, it only launches workers and picks
// the winning result.
type Coordinator struct {
	tt      *TranspositionTable
	newEval func() Evaluator
	threads int

	stop      atomic.Bool
	searching atomic.Bool
	nodes     atomic.Uint64

	// OnInfo, when set, receives progress reports during Go.
	OnInfo func(Info)
}

// NewCoordinator builds a coordinator with the given table size and worker
// count. newEval is called once per worker, since evaluators carry caches
// that are not safe to share. threads below 1 is treated as 1; a single
// worker makes the search fully deterministic under fixed depth or node
// limits.
func NewCoordinator(ttSizeMB, threads int, newEval func() Evaluator) *Coordinator {
	if threads < 1 {
		threads = 1
	}
	return &Coordinator{
		tt:      NewTranspositionTable(ttSizeMB),
		newEval: newEval,
		threads: threads,
	}
}

// SetThreads changes the worker count for subsequent searches.
func (c *Coordinator) SetThreads(n int) {
	if n < 1 {
		n = 1
	}
	c.threads = n
}

// ResizeTable replaces the transposition table. Not for use mid-search.
func (c *Coordinator) ResizeTable(sizeMB int) {
	c.tt = NewTranspositionTable(sizeMB)
}

// ClearState wipes the table for a new game.
func (c *Coordinator) ClearState() {
	c.tt.Clear()
}

// Nodes returns the aggregate node count of the current or last search.
func (c *Coordinator) Nodes() uint64 {
	return c.nodes.Load()
}

// Stop asks a running search to wind down. Workers observe the flag within
// a bounded number of nodes; Go still returns a completed depth 1 result.
func (c *Coordinator) Stop() {
	c.stop.Store(true)
}

// Go searches pos under limits and returns the winning result: the deepest
// fully completed iteration of any worker, ties broken toward the lowest
// worker index. gameHashes are the position hashes of the game so far,
// newest last, used for repetition detection inside the tree.
func (c *Coordinator) Go(pos board.Position, limits Limits, gameHashes []uint64) Result {
	c.stop.Store(false)
	c.nodes.Store(0)
	c.searching.Store(true)
	defer c.searching.Store(false)
	c.tt.NewSearch()

	tm := newTimeManager(limits, pos.SideToMove, pos.FullMoveNumber*2)

	shared := &searchShared{
		tt:        c.tt,
		stop:      &c.stop,
		nodes:     &c.nodes,
		nodeLimit: limits.Nodes,
		deadline:  tm.deadline(),
		maxDepth:  limits.Depth,
	}

	workers := make([]*worker, c.threads)
	for i := range workers {
		workers[i] = newWorker(i, shared, c.newEval(), pos, gameHashes)
	}

	// Progress reporting and soft time management ride on worker 0's
	// iterations: the coordinator reports its deepest line and stops the
	// pool when another iteration would overrun the optimum budget.
	stability := 0
	var lastBest board.Move
	workers[0].onIteration = func(w *worker, r Result) {
		if c.OnInfo != nil {
			c.OnInfo(Info{
				Depth:    r.Depth,
				Score:    r.Score,
				Nodes:    c.nodes.Load() + uint64(w.sinceCheck),
				Time:     tm.elapsed(),
				PV:       r.PV,
				Hashfull: c.tt.Hashfull(),
			})
		}
		if r.Move == lastBest {
			stability++
		} else {
			stability = 0
			lastBest = r.Move
		}
		if tm.pastOptimum(stability) {
			c.stop.Store(true)
		}
	}

	results := make([]Result, c.threads)
	var g errgroup.Group
	for i := range workers {
		g.Go(func() error {
			results[i] = workers[i].iterate()
			if i == 0 {
				// Worker 0 finishing means a limit was reached; the
				// helpers have nothing more to contribute.
				c.stop.Store(true)
			}
			return nil
		})
	}
	g.Wait()

	best := results[0]
	for i := 1; i < len(results); i++ {
		if results[i].Depth > best.Depth && results[i].Move != board.NoMove {
			best = results[i]
		}
	}
	best.Nodes = c.nodes.Load()
	return best
}

// Searching reports whether a Go call is in flight.
func (c *Coordinator) Searching() bool {
	return c.searching.Load()
}

// ScoreString formats a score the way score lines print it: either
// centipawns or a signed mate distance.
func ScoreString(score int) string {
	if !IsMateScore(score) {
		return "cp " + strconv.Itoa(score)
	}
	return "mate " + strconv.Itoa(MateIn(score))
}
