package engine

import (
	"time"

	"github.com/swgillespie/a4/internal/board"
)

// Limits bounds a search. Zero values mean unbounded; an unbounded search
// runs until Stop.
type Limits struct {
	Time      [2]time.Duration // remaining clock per color
	Inc       [2]time.Duration // increment per move per color
	MovesToGo int              // moves to the next time control, 0 = sudden death
	MoveTime  time.Duration    // fixed time for this move
	Depth     int              // maximum iteration depth
	Nodes     uint64           // maximum nodes across all workers
	Infinite  bool             // ignore the clock entirely
}

// timeManager turns the clock situation into two budgets: an optimum after
// which no new iteration starts, and a maximum past which the search aborts
// mid-iteration.
type timeManager struct {
	optimum time.Duration
	maximum time.Duration
	started time.Time
	managed bool
}

func newTimeManager(limits Limits, us board.Color, gamePly int) *timeManager {
	tm := &timeManager{started: time.Now()}

	if limits.MoveTime > 0 {
		tm.optimum = limits.MoveTime
		tm.maximum = limits.MoveTime
		tm.managed = true
		return tm
	}
	if limits.Infinite || limits.Time[us] == 0 {
		return tm
	}
	tm.managed = true

	remaining := limits.Time[us]
	inc := limits.Inc[us]

	mtg := limits.MovesToGo
	if mtg == 0 {
		// Sudden death: assume fewer moves remain as the game goes on.
		mtg = 50 - gamePly/4
		if mtg < 10 {
			mtg = 10
		}
	}

	tm.optimum = remaining/time.Duration(mtg) + inc*9/10
	if gamePly < 8 {
		tm.optimum = tm.optimum * 85 / 100
	}

	tm.maximum = min(tm.optimum*5, remaining*8/10)
	if tm.optimum < 10*time.Millisecond {
		tm.optimum = 10 * time.Millisecond
	}
	if tm.maximum < 50*time.Millisecond {
		tm.maximum = 50 * time.Millisecond
	}
	return tm
}

func (tm *timeManager) elapsed() time.Duration {
	return time.Since(tm.started)
}

// deadline returns the hard abort time, or the zero time when unmanaged.
func (tm *timeManager) deadline() time.Time {
	if !tm.managed {
		return time.Time{}
	}
	return tm.started.Add(tm.maximum)
}

// pastOptimum reports that starting another iteration would likely waste the
// clock. stability counts consecutive iterations with an unchanged best
// move; the more stable, the earlier we give up the remaining budget.
func (tm *timeManager) pastOptimum(stability int) bool {
	if !tm.managed {
		return false
	}
	budget := tm.optimum
	switch {
	case stability >= 6:
		budget = budget * 40 / 100
	case stability >= 4:
		budget = budget * 60 / 100
	case stability >= 2:
		budget = budget * 80 / 100
	}
	return tm.elapsed() >= budget
}
