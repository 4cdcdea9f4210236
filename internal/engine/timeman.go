package engine

import (
	"time"

	"github.com/hailam/othelloplay/internal/board"
)

// Phase carries the game-phase signals used to pick a search budget.
type Phase struct {
	MoveCount int // Moves played so far
	Empties   int // Empty squares on the board
}

// PhaseOf derives the phase of pos. A moveCount of zero or less is taken
// from the disc count.
func PhaseOf(pos board.Position, moveCount int) Phase {
	if moveCount <= 0 {
		moveCount = pos.Occupied().PopCount() - 4
	}
	return Phase{MoveCount: moveCount, Empties: pos.Empties()}
}

// Budget is the depth and wall-clock allowance for one analysis.
type Budget struct {
	MaxDepth  int
	TimeLimit time.Duration
}

// Phase budgets
var (
	EndgameBudget = Budget{MaxDepth: 11, TimeLimit: 8000 * time.Millisecond}
	OpeningBudget = Budget{MaxDepth: 9, TimeLimit: 7000 * time.Millisecond}
	MidgameBudget = Budget{MaxDepth: 10, TimeLimit: 9000 * time.Millisecond}
)

// BudgetFor maps the game phase to a search budget.
//
// Late game (<= 16 empties) searches deepest since branching is low and
// exact solving takes over. The opening is volatile and gets the cheapest
// search. The midgame gets the most time.
func BudgetFor(p Phase) Budget {
	switch {
	case p.Empties <= 16:
		return EndgameBudget
	case p.MoveCount < 12 || p.Empties > 44:
		return OpeningBudget
	default:
		return MidgameBudget
	}
}

// TimeManager tracks the deadline of one search.
type TimeManager struct {
	limit     time.Duration // Zero means no time limit
	startTime time.Time
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{startTime: time.Now()}
}

// Init starts the clock for a new search.
func (tm *TimeManager) Init(limit time.Duration) {
	tm.startTime = time.Now()
	tm.limit = limit
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// Limit returns the time allowed.
func (tm *TimeManager) Limit() time.Duration {
	return tm.limit
}

// ShouldStop returns true once the time limit is used up.
func (tm *TimeManager) ShouldStop() bool {
	return tm.limit > 0 && tm.Elapsed() >= tm.limit
}

// CanStartIteration returns false once more than half the time is used:
// the next iteration would most likely not finish.
func (tm *TimeManager) CanStartIteration() bool {
	if tm.limit <= 0 {
		return true
	}
	elapsed := tm.Elapsed()
	return tm.limit-elapsed >= elapsed
}
