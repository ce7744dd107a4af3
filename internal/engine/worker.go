package engine

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/swgillespie/a4/internal/board"
)

// Evaluator scores a position in centipawns from the side to move's point of
// view. The search treats it as opaque; any deterministic implementation
// keeps the search deterministic.
type Evaluator interface {
	Evaluate(pos *board.Position) int
}

// lmrReductions precomputes logarithmic late move reductions by depth and
// move number.
var lmrReductions [64][64]int

func init() {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			lmrReductions[d][m] = int(0.5 + math.Log(float64(d))*math.Log(float64(m))/2.25)
		}
	}
}

// Result is a fully completed iteration: the best move and score at Depth,
// with the principal variation behind them. Workers only report completed
// iterations; a depth interrupted mid-search is discarded.
type Result struct {
	Move  board.Move
	Score int
	Depth int
	PV    []board.Move
	Nodes uint64
}

// searchShared is the state a coordinator hands to all of its workers: the
// transposition table, one stop flag, the aggregate node counter, and the
// search bounds. Everything else a worker touches is private to it.
type searchShared struct {
	tt        *TranspositionTable
	stop      *atomic.Bool
	nodes     *atomic.Uint64
	nodeLimit uint64    // 0 = unbounded
	deadline  time.Time // zero = unbounded
	maxDepth  int
}

// worker runs one iterative deepening search. Each worker owns its position
// copy, move ordering state, and PV table; it communicates with its siblings
// only through the shared table and stop flag.
type worker struct {
	id     int
	shared *searchShared
	eval   Evaluator

	pos     board.Position
	orderer *MoveOrderer
	pv      pvTable

	// Position hashes from the game so far plus the current search path,
	// for repetition detection. pathBase is where the search path starts.
	repHashes [MaxPly + 1024]uint64
	pathBase  int

	nodes      uint64 // local count, folded into shared.nodes periodically
	sinceCheck int
	aborted    bool
	exempt     bool // the mandatory depth 1 iteration ignores stop requests

	onIteration func(*worker, Result)
}

func newWorker(id int, shared *searchShared, ev Evaluator, pos board.Position, gameHashes []uint64) *worker {
	w := &worker{
		id:      id,
		shared:  shared,
		eval:    ev,
		pos:     pos,
		orderer: NewMoveOrderer(),
	}
	n := len(gameHashes)
	if n > len(w.repHashes)-MaxPly {
		gameHashes = gameHashes[n-(len(w.repHashes)-MaxPly):]
		n = len(gameHashes)
	}
	copy(w.repHashes[:n], gameHashes)
	w.pathBase = n
	return w
}

// iterate runs iterative deepening until the depth limit, the time budget,
// or the stop flag ends it. Workers after the first skew their starting
// depth so the pool does not search in lockstep.
func (w *worker) iterate() Result {
	maxDepth := w.shared.maxDepth
	if maxDepth <= 0 || maxDepth > MaxPly-1 {
		maxDepth = MaxPly - 1
	}

	startDepth := 1
	if w.id > 0 {
		startDepth += w.id % 2
	}

	var best Result
	alpha, beta := -Infinity, Infinity
	const window = 50

	for depth := startDepth; depth <= maxDepth; depth++ {
		// The first depth always completes so that a stop arriving
		// immediately after go still yields a legal best move.
		w.exempt = depth == 1
		score := w.searchRoot(depth, alpha, beta)

		// An aspiration miss re-searches the same depth with a wider
		// window before the result counts as completed.
		if !w.aborted && (score <= alpha || score >= beta) {
			alpha, beta = -Infinity, Infinity
			score = w.searchRoot(depth, alpha, beta)
		}

		if w.aborted {
			break
		}

		pv := w.pv.line()
		best = Result{
			Depth: depth,
			Score: score,
			Nodes: w.nodes,
			PV:    append([]board.Move(nil), pv...),
		}
		if len(pv) > 0 {
			best.Move = pv[0]
		}
		if w.onIteration != nil {
			w.onIteration(w, best)
		}

		if IsMateScore(score) && depth > 1 {
			break
		}
		alpha, beta = score-window, score+window
	}

	w.flushNodes()
	best.Nodes = w.nodes
	return best
}

func (w *worker) searchRoot(depth, alpha, beta int) int {
	return w.negamax(&w.pos, depth, 0, alpha, beta, board.NoMove)
}

// checkAbort polls the shared stop conditions every stopCheckInterval nodes
// and folds the local node count into the shared counter at the same rhythm.
func (w *worker) checkAbort() bool {
	if w.aborted {
		return true
	}
	w.sinceCheck++
	if w.sinceCheck < stopCheckInterval {
		return false
	}
	w.flushNodes()

	if w.exempt {
		return false
	}
	if w.shared.stop.Load() {
		w.aborted = true
		return true
	}
	if w.shared.nodeLimit > 0 && w.shared.nodes.Load() >= w.shared.nodeLimit {
		w.shared.stop.Store(true)
		w.aborted = true
		return true
	}
	if !w.shared.deadline.IsZero() && time.Now().After(w.shared.deadline) {
		w.shared.stop.Store(true)
		w.aborted = true
		return true
	}
	return false
}

func (w *worker) flushNodes() {
	if w.sinceCheck > 0 {
		w.shared.nodes.Add(uint64(w.sinceCheck))
		w.sinceCheck = 0
	}
}

// isRepetition reports whether the position at ply repeats an earlier
// position on the search path or in the game history. One repetition scores
// as a draw inside the tree.
func (w *worker) isRepetition(pos *board.Position, ply int) bool {
	end := w.pathBase + ply
	start := end - pos.HalfMoveClock
	if start < 0 {
		start = 0
	}
	for i := end - 2; i >= start; i -= 2 {
		if w.repHashes[i] == pos.Hash {
			return true
		}
	}
	return false
}

func (w *worker) negamax(pos *board.Position, depth, ply, alpha, beta int, prevMove board.Move) int {
	w.pv.clear(ply)
	if w.checkAbort() {
		return 0
	}

	w.nodes++
	w.repHashes[w.pathBase+ply] = pos.Hash

	if ply > 0 {
		if w.isRepetition(pos, ply) || pos.HalfMoveClock >= 100 || pos.IsInsufficientMaterial() {
			return 0
		}
		if ply >= MaxPly-1 {
			return w.eval.Evaluate(pos)
		}

		// Mate distance pruning: a shorter mate is already known.
		alpha = max(alpha, -MateScore+ply)
		beta = min(beta, MateScore-ply-1)
		if alpha >= beta {
			return alpha
		}
	}

	isPV := beta-alpha > 1
	ttMove := board.NoMove
	if entry, ok := w.shared.tt.Probe(pos.Hash); ok {
		ttMove = entry.Move
		if ply > 0 && !isPV && entry.Depth >= depth {
			score := ScoreFromTT(entry.Score, ply)
			switch entry.Bound {
			case BoundExact:
				return score
			case BoundLower:
				if score >= beta {
					return score
				}
			case BoundUpper:
				if score <= alpha {
					return score
				}
			}
		}
	}

	inCheck := pos.InCheck()
	if depth <= 0 && !inCheck {
		return w.quiescence(pos, ply, alpha, beta)
	}
	if depth <= 0 {
		depth = 1
	}

	// Null move pruning: if passing still beats beta, a real move will too.
	// Skipped in PV nodes, in check, for mate windows, and without pieces,
	// where zugzwang makes it unsound.
	if !isPV && !inCheck && depth >= 3 && ply > 0 && prevMove != board.NoMove &&
		pos.HasNonPawnMaterial() && !IsMateScore(beta) {
		r := 2 + depth/4
		null := pos.ApplyNull()
		score := -w.negamax(&null, depth-1-r, ply+1, -beta, -beta+1, board.NoMove)
		if w.aborted {
			return 0
		}
		if score >= beta && !IsMateScore(score) {
			return beta
		}
	}

	var moves board.MoveList
	pos.LegalMoves(&moves)
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	var scores [256]int
	w.orderer.ScoreMoves(pos, &moves, scores[:moves.Len()], ply, ttMove, prevMove)

	bestScore := -Infinity
	bestMove := board.NoMove
	bound := BoundUpper

	for i := 0; i < moves.Len(); i++ {
		m := PickMove(&moves, scores[:moves.Len()], i)
		next := pos.Apply(m)

		quiet := !m.IsCapture(pos) && !m.IsPromotion()
		givesCheck := next.InCheck()

		newDepth := depth - 1
		if inCheck {
			newDepth++
		}

		var score int
		if i == 0 {
			score = -w.negamax(&next, newDepth, ply+1, -beta, -alpha, m)
		} else {
			// Late quiet moves start with a reduced null-window probe.
			reduction := 0
			if quiet && !givesCheck && depth >= 3 && i >= 3 {
				reduction = lmrReductions[min(depth, 63)][min(i, 63)]
				if isPV && reduction > 0 {
					reduction--
				}
				if reduction >= newDepth {
					reduction = newDepth - 1
				}
				if reduction < 0 {
					reduction = 0
				}
			}
			score = -w.negamax(&next, newDepth-reduction, ply+1, -alpha-1, -alpha, m)
			if score > alpha && reduction > 0 {
				score = -w.negamax(&next, newDepth, ply+1, -alpha-1, -alpha, m)
			}
			if score > alpha && score < beta {
				score = -w.negamax(&next, newDepth, ply+1, -beta, -alpha, m)
			}
		}
		if w.aborted {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
		}
		if score > alpha {
			alpha = score
			bound = BoundExact
			w.pv.store(ply, m)
		}
		if alpha >= beta {
			bound = BoundLower
			if quiet {
				w.orderer.UpdateKillers(m, ply)
				w.orderer.UpdateHistory(pos.SideToMove, m, depth, true)
				w.orderer.UpdateCounterMove(pos, prevMove, m)
				// The quiets tried before the cutoff were overrated.
				for j := 0; j < i; j++ {
					tried := moves.Get(j)
					if !tried.IsCapture(pos) && !tried.IsPromotion() {
						w.orderer.UpdateHistory(pos.SideToMove, tried, depth, false)
					}
				}
			}
			break
		}
	}

	w.shared.tt.Store(pos.Hash, bestMove, ScoreToTT(bestScore, ply), depth, bound)
	return bestScore
}

// quiescence resolves captures until the position is quiet enough for the
// static evaluation to be trusted.
func (w *worker) quiescence(pos *board.Position, ply, alpha, beta int) int {
	if w.checkAbort() {
		return 0
	}
	w.nodes++

	standPat := w.eval.Evaluate(pos)
	if standPat >= beta {
		return standPat
	}
	if standPat > alpha {
		alpha = standPat
	}
	if ply >= MaxPly-1 {
		return standPat
	}

	var moves board.MoveList
	pos.LegalCaptures(&moves)

	var scores [256]int
	w.orderer.ScoreMoves(pos, &moves, scores[:moves.Len()], min(ply, MaxPly-1), board.NoMove, board.NoMove)

	best := standPat
	for i := 0; i < moves.Len(); i++ {
		m := PickMove(&moves, scores[:moves.Len()], i)

		// Losing captures cannot rescue a position the stand pat already
		// condemned.
		if !m.IsPromotion() && SEE(pos, m) < 0 {
			continue
		}

		next := pos.Apply(m)
		score := -w.quiescence(&next, ply+1, -beta, -alpha)
		if w.aborted {
			return 0
		}
		if score > best {
			best = score
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}
	return best
}
