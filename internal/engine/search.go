package engine

import (
	"context"
	"sync/atomic"

	"github.com/hailam/othelloplay/internal/board"
)

// Search constants
const (
	MaxPly = 128

	// The stop conditions are polled once every pollMask+1 nodes.
	pollMask = 1023
)

// PVTable stores the principal variation.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// Searcher performs the negamax alpha-beta search for one engine.
// Its tables live as long as the engine; nothing here is shared between
// engines.
type Searcher struct {
	tt        *TranspositionTable
	orderer   *MoveOrderer
	evalCache *EvalTable

	nodes uint64
	pv    PVTable

	// Stop conditions
	ctx      context.Context
	tm       *TimeManager
	stopFlag *atomic.Bool

	// Per-iteration state
	abortable bool
	aborted   bool
	horizon   bool // A heuristic leaf or TT cutoff was used
	rootBest  board.Move
}

// NewSearcher creates a new searcher.
func NewSearcher(tt *TranspositionTable, orderer *MoveOrderer, evalCache *EvalTable, stopFlag *atomic.Bool) *Searcher {
	return &Searcher{
		tt:        tt,
		orderer:   orderer,
		evalCache: evalCache,
		stopFlag:  stopFlag,
		tm:        NewTimeManager(),
		ctx:       context.Background(),
	}
}

// Reset prepares the searcher for a new root search.
func (s *Searcher) Reset(ctx context.Context, tm *TimeManager) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx = ctx
	s.tm = tm
	s.nodes = 0
	s.aborted = false
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Aborted returns true if the last iteration was cut short.
func (s *Searcher) Aborted() bool {
	return s.aborted
}

// Solved returns true if the last iteration reached only terminal leaves,
// so deeper iterations cannot change its result.
func (s *Searcher) Solved() bool {
	return !s.horizon
}

// shouldStop checks the deadline, the stop flag and the context.
func (s *Searcher) shouldStop() bool {
	if s.stopFlag != nil && s.stopFlag.Load() {
		return true
	}
	if s.ctx.Err() != nil {
		return true
	}
	return s.tm.ShouldStop()
}

// Search performs a full-window search at the given depth.
func (s *Searcher) Search(pos board.Position, depth int, abortable bool) (board.Move, int) {
	return s.SearchWithBounds(pos, depth, -Infinity, Infinity, abortable)
}

// SearchWithBounds searches the root with a custom window (for aspiration
// windows). When abortable is false the iteration always runs to completion.
func (s *Searcher) SearchWithBounds(pos board.Position, depth, alpha, beta int, abortable bool) (board.Move, int) {
	s.abortable = abortable
	s.aborted = false
	s.horizon = false
	s.rootBest = board.NoMove

	score := s.negamax(pos, depth, 0, alpha, beta)
	return s.rootBest, score
}

// GetPV returns the principal variation from the last search.
func (s *Searcher) GetPV() []board.Move {
	pv := make([]board.Move, s.pv.length[0])
	copy(pv, s.pv.moves[0][:s.pv.length[0]])
	return pv
}

func (s *Searcher) updatePV(ply int, m board.Move) {
	s.pv.moves[ply][ply] = m
	for j := ply + 1; j < s.pv.length[ply+1]; j++ {
		s.pv.moves[ply][j] = s.pv.moves[ply+1][j]
	}
	s.pv.length[ply] = s.pv.length[ply+1]
	if s.pv.length[ply] <= ply {
		s.pv.length[ply] = ply + 1
	}
}

// negamax implements the negamax algorithm with alpha-beta pruning.
// Scores are relative to the side to move at pos.
func (s *Searcher) negamax(pos board.Position, depth, ply, alpha, beta int) int {
	if s.abortable && s.nodes&pollMask == 0 && s.shouldStop() {
		s.aborted = true
	}
	if s.aborted {
		return 0
	}

	s.nodes++
	s.pv.length[ply] = ply

	us := pos.SideToMove
	moves := pos.LegalMoves()

	if moves == 0 && pos.OpponentMoves() == 0 {
		return TerminalScore(pos.Count(us) - pos.Count(us.Other()))
	}

	// Bounds check keeps pv.length[ply+1] in range
	if depth <= 0 || ply >= MaxPly-1 {
		s.horizon = true
		return s.evalCache.Evaluate(pos, us)
	}

	// Probe transposition table
	ttMove := board.NoMove
	if entry, found := s.tt.Probe(pos.Hash); found {
		ttMove = entry.BestMove

		// The root always searches so a best move is produced
		if ply > 0 && int(entry.Depth) >= depth {
			score := int(entry.Score)
			switch entry.Flag {
			case TTExact:
				s.horizon = true
				return score
			case TTLowerBound:
				if score > alpha {
					alpha = score
				}
			case TTUpperBound:
				if score < beta {
					beta = score
				}
			}
			if alpha >= beta {
				s.horizon = true
				return score
			}
		}
	}

	// Window actually searched, after TT tightening
	alphaStart := alpha

	// Forced pass: same position, other side, one ply consumed
	if moves == 0 {
		child := pos.Apply(board.Pass)
		score := -s.negamax(child, depth-1, ply+1, -beta, -alpha)
		if s.aborted {
			return 0
		}
		s.updatePV(ply, board.Pass)
		if ply == 0 {
			s.rootBest = board.Pass
		}
		s.tt.Store(pos.Hash, depth, score, boundFor(score, alphaStart, beta), board.Pass)
		return score
	}

	list := pos.GenerateMoves()
	s.orderer.OrderMoves(pos, list, ply, ttMove)

	bestScore := -Infinity
	bestMove := board.NoMove

	for i := 0; i < list.Len(); i++ {
		move := list.Get(i)

		score := -s.negamax(pos.Apply(move), depth-1, ply+1, -beta, -alpha)

		if s.aborted {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = move
			if ply == 0 {
				s.rootBest = move
			}

			if score > alpha {
				alpha = score
				s.updatePV(ply, move)
			}
		}

		// Beta cutoff
		if score >= beta {
			s.orderer.UpdateKillers(move, ply)
			s.orderer.UpdateHistory(us, move, depth)
			break
		}
	}

	s.tt.Store(pos.Hash, depth, bestScore, boundFor(bestScore, alphaStart, beta), bestMove)

	return bestScore
}

// boundFor classifies a fail-soft result against the window it was searched with.
func boundFor(score, alpha, beta int) TTFlag {
	switch {
	case score <= alpha:
		return TTUpperBound
	case score >= beta:
		return TTLowerBound
	default:
		return TTExact
	}
}
