package engine

import (
	"github.com/hailam/othelloplay/internal/board"
)

// DefaultPlyGate is the ply from which the TT move is always tried first.
// Below it the TT move only breaks exact ties of the static score.
const DefaultPlyGate = 6

// Move ordering priorities
const (
	tierNone    = 0
	tierKiller2 = 1 // Second killer move
	tierKiller1 = 2 // First killer move
	tierTT      = 3 // TT move at or beyond the ply gate

	historyLimit = 1 << 20
)

// MoveOrderer handles move ordering for the search.
type MoveOrderer struct {
	// Killer moves (moves that caused beta cutoffs), per ply
	killers [MaxPly][2]board.Move

	// History heuristic indexed by [side][move]; index 64 is Pass
	history [2][65]int

	plyGate int
}

// moveKey is the sort key of one move; fields compare in order.
type moveKey struct {
	tier    int
	history int
	static  int
	ttTie   bool // TT move below the ply gate
}

func (a moveKey) better(b moveKey) bool {
	if a.tier != b.tier {
		return a.tier > b.tier
	}
	if a.history != b.history {
		return a.history > b.history
	}
	if a.static != b.static {
		return a.static > b.static
	}
	return a.ttTie && !b.ttTie
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer(plyGate int) *MoveOrderer {
	if plyGate <= 0 {
		plyGate = DefaultPlyGate
	}
	mo := &MoveOrderer{plyGate: plyGate}
	mo.ClearKillers()
	return mo
}

// ClearKillers resets killer moves for a new root search.
func (mo *MoveOrderer) ClearKillers() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}
}

// AgeHistory halves all history scores.
func (mo *MoveOrderer) AgeHistory() {
	for i := range mo.history {
		for j := range mo.history[i] {
			mo.history[i][j] /= 2
		}
	}
}

// ResetHistory zeroes all history scores.
func (mo *MoveOrderer) ResetHistory() {
	mo.history = [2][65]int{}
}

// Clear resets killers and history.
func (mo *MoveOrderer) Clear() {
	mo.ClearKillers()
	mo.ResetHistory()
}

func historyIndex(m board.Move) int {
	if m == board.Pass {
		return 64
	}
	return int(m)
}

func (mo *MoveOrderer) key(pos board.Position, m board.Move, ply int, ttMove board.Move) moveKey {
	k := moveKey{
		history: mo.history[pos.SideToMove][historyIndex(m)],
		static:  StaticMoveScore(pos, m),
	}

	isTT := ttMove != board.NoMove && m == ttMove
	switch {
	case isTT && ply >= mo.plyGate:
		k.tier = tierTT
	case ply < MaxPly && m == mo.killers[ply][0]:
		k.tier = tierKiller1
	case ply < MaxPly && m == mo.killers[ply][1]:
		k.tier = tierKiller2
	}

	// Shallow TT hits never outrank the positional order
	k.ttTie = isTT && ply < mo.plyGate

	return k
}

// OrderMoves sorts moves in place, best first.
//
// Priority: TT move (from the ply gate on), killers for this ply, history
// score, the static square score, then the TT move below the gate.
// Remaining ties keep ascending square order so the result is stable for
// identical inputs.
func (mo *MoveOrderer) OrderMoves(pos board.Position, moves *board.MoveList, ply int, ttMove board.Move) {
	n := moves.Len()
	if n < 2 {
		return
	}

	var keys [board.MaxMoves]moveKey
	for i := 0; i < n; i++ {
		keys[i] = mo.key(pos, moves.Get(i), ply, ttMove)
	}

	// Selection sort (sufficient for ~30 moves)
	for i := 0; i < n-1; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if keys[j].better(keys[best]) ||
				(!keys[best].better(keys[j]) && moves.Get(j) < moves.Get(best)) {
				best = j
			}
		}
		if best != i {
			moves.Swap(i, best)
			keys[i], keys[best] = keys[best], keys[i]
		}
	}
}

// UpdateKillers adds a killer move at the given ply.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || m == board.Pass {
		return
	}

	// Don't store if it's already the first killer
	if mo.killers[ply][0] == m {
		return
	}

	// Shift killers
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// Killers returns the killer moves recorded at ply.
func (mo *MoveOrderer) Killers(ply int) [2]board.Move {
	if ply >= MaxPly {
		return [2]board.Move{board.NoMove, board.NoMove}
	}
	return mo.killers[ply]
}

// UpdateHistory rewards a move that caused a cutoff, weighted by depth.
func (mo *MoveOrderer) UpdateHistory(side board.Color, m board.Move, depth int) {
	idx := historyIndex(m)
	mo.history[side][idx] += depth * depth

	// Prevent overflow
	if mo.history[side][idx] > historyLimit {
		mo.AgeHistory()
	}
}

// HistoryScore returns the history score for a move.
func (mo *MoveOrderer) HistoryScore(side board.Color, m board.Move) int {
	return mo.history[side][historyIndex(m)]
}
