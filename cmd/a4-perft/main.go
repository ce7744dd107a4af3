// Command a4-perft counts move generation leaf nodes for a position,
// splitting the root moves across CPUs. Useful for validating the move
// generator against published perft tables.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/swgillespie/a4/internal/board"
)

var (
	depth   = flag.Int("depth", 6, "perft depth")
	fen     = flag.String("fen", board.StartFEN, "position to count from")
	divide  = flag.Bool("divide", false, "print per move subtotals")
	workers = flag.Int("workers", runtime.NumCPU(), "parallel root workers")
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(0)
	flag.Parse()

	pos, err := board.ParseFEN(*fen)
	if err != nil {
		log.Fatalf("invalid fen: %v", err)
	}
	if *depth < 1 {
		log.Fatal("depth must be at least 1")
	}

	start := time.Now()
	moves, counts, total := parallelDivide(&pos, *depth, *workers)
	elapsed := time.Since(start)

	if *divide {
		for i, m := range moves {
			fmt.Printf("%s: %d\n", m, counts[i])
		}
		fmt.Println()
	}
	fmt.Printf("Nodes searched: %d\n", total)
	fmt.Printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		fmt.Printf("NPS: %.0f\n", float64(total)/elapsed.Seconds())
	}
}

// parallelDivide counts the subtree below each root move on its own
// goroutine, at most workers at a time.
func parallelDivide(pos *board.Position, depth, workers int) ([]board.Move, []uint64, uint64) {
	var ml board.MoveList
	pos.LegalMoves(&ml)

	moves := append([]board.Move(nil), ml.Slice()...)
	counts := make([]uint64, len(moves))
	var total atomic.Uint64

	var g errgroup.Group
	g.SetLimit(max(1, workers))
	for i, m := range moves {
		g.Go(func() error {
			next := pos.Apply(m)
			n := uint64(1)
			if depth > 1 {
				n = board.Perft(&next, depth-1)
			}
			counts[i] = n
			total.Add(n)
			return nil
		})
	}
	g.Wait()

	return moves, counts, total.Load()
}
