package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/othelloplay/internal/board"
)

// SearchInfo contains information about one completed iteration.
type SearchInfo struct {
	Depth    int           `json:"depth"`
	Score    int           `json:"score"` // Black-relative
	Nodes    uint64        `json:"nodes"`
	Time     time.Duration `json:"-"`
	TimeMs   int64         `json:"timeMs"`
	PV       []board.Move  `json:"pv"`
	HashFull int           `json:"hashFull"` // Permille of hash table used
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = MaxPly)
	MoveTime time.Duration // Time for this move (0 = no limit)
}

// HistoryPolicy controls what happens to history scores between analyses.
type HistoryPolicy int

const (
	HistoryAge   HistoryPolicy = iota // Halve all scores
	HistoryReset                      // Zero all scores
	HistoryKeep                       // Carry scores over unchanged
)

// String returns the policy name.
func (h HistoryPolicy) String() string {
	switch h {
	case HistoryAge:
		return "age"
	case HistoryReset:
		return "reset"
	case HistoryKeep:
		return "keep"
	default:
		return "unknown"
	}
}

// ParseHistoryPolicy parses a policy name.
func ParseHistoryPolicy(s string) (HistoryPolicy, error) {
	switch strings.ToLower(s) {
	case "age":
		return HistoryAge, nil
	case "reset":
		return HistoryReset, nil
	case "keep":
		return HistoryKeep, nil
	}
	return HistoryAge, fmt.Errorf("unknown history policy %q", s)
}

// Config holds the tunable parameters of an engine.
type Config struct {
	HashMB           int           `json:"hashMB"`
	EvalCacheMB      int           `json:"evalCacheMB"`
	PlyGate          int           `json:"plyGate"`
	HistoryPolicy    HistoryPolicy `json:"historyPolicy"`
	AspirationWindow int           `json:"aspirationWindow"` // 0 disables aspiration windows
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		HashMB:           64,
		EvalCacheMB:      4,
		PlyGate:          DefaultPlyGate,
		HistoryPolicy:    HistoryAge,
		AspirationWindow: 40,
	}
}

// OpeningBook supplies prepared moves for known positions.
type OpeningBook interface {
	Probe(pos board.Position) (board.Move, bool)
}

// Request describes one analysis.
//
// When neither Depth nor TimeLimit is set, the budget is derived from the
// game phase using MoveCount and the number of empty squares.
type Request struct {
	Position  board.Position
	Depth     int
	TimeLimit time.Duration
	MoveCount int

	// OnInfo, if set, is called after every completed iteration.
	OnInfo func(SearchInfo)
}

// Result is the outcome of one analysis.
type Result struct {
	BestMove           board.Move   `json:"bestMove"`   // NoMove when the side to move has no placement
	Evaluation         int          `json:"evaluation"` // Black-relative
	NodesSearched      uint64       `json:"nodesSearched"`
	DepthReached       int          `json:"depthReached"`
	TimeUsedMs         int64        `json:"timeUsedMs"`
	PrincipalVariation []board.Move `json:"principalVariation"`
	Book               bool         `json:"book,omitempty"`
}

// Engine is the Othello search engine. One engine runs one analysis at a
// time; concurrent calls to Analyze are serialized.
type Engine struct {
	mu sync.Mutex

	cfg       Config
	searcher  *Searcher
	tt        *TranspositionTable
	orderer   *MoveOrderer
	evalCache *EvalTable
	book      OpeningBook
	stopFlag  atomic.Bool

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates a new engine.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.HashMB <= 0 {
		cfg.HashMB = def.HashMB
	}
	if cfg.EvalCacheMB <= 0 {
		cfg.EvalCacheMB = def.EvalCacheMB
	}
	if cfg.PlyGate <= 0 {
		cfg.PlyGate = def.PlyGate
	}

	e := &Engine{
		cfg:       cfg,
		tt:        NewTranspositionTable(cfg.HashMB),
		orderer:   NewMoveOrderer(cfg.PlyGate),
		evalCache: NewEvalTable(cfg.EvalCacheMB),
	}
	e.searcher = NewSearcher(e.tt, e.orderer, e.evalCache, &e.stopFlag)
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// SetBook installs an opening book consulted before searching. Nil disables it.
func (e *Engine) SetBook(b OpeningBook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.book = b
}

// Analyze searches req.Position and returns the best move found.
func (e *Engine) Analyze(ctx context.Context, req Request) (Result, error) {
	if err := req.Position.Validate(); err != nil {
		return Result{}, err
	}

	limits := LimitsFor(req)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.book != nil && req.Position.LegalMoves() != 0 {
		if m, ok := e.book.Probe(req.Position); ok && req.Position.IsLegal(m) {
			log.Debug().Str("move", m.String()).Msg("book-hit")
			return Result{
				BestMove:           m,
				Evaluation:         e.evalCache.Evaluate(req.Position.Apply(m), board.Black),
				PrincipalVariation: []board.Move{m},
				Book:               true,
			}, nil
		}
	}

	onInfo := req.OnInfo
	if onInfo == nil {
		onInfo = e.OnInfo
	}
	return e.search(ctx, req.Position, limits, onInfo), nil
}

// LimitsFor resolves the search limits of a request. Explicit limits win;
// a missing depth means MaxPly and a missing time means no deadline.
func LimitsFor(req Request) SearchLimits {
	if req.Depth > 0 || req.TimeLimit > 0 {
		return SearchLimits{Depth: req.Depth, MoveTime: req.TimeLimit}
	}
	b := BudgetFor(PhaseOf(req.Position, req.MoveCount))
	return SearchLimits{Depth: b.MaxDepth, MoveTime: b.TimeLimit}
}

func (e *Engine) prepare() {
	e.stopFlag.Store(false)
	e.tt.NewSearch()
	e.orderer.ClearKillers()
	switch e.cfg.HistoryPolicy {
	case HistoryAge:
		e.orderer.AgeHistory()
	case HistoryReset:
		e.orderer.ResetHistory()
	}
}

func (e *Engine) search(ctx context.Context, pos board.Position, limits SearchLimits, onInfo func(SearchInfo)) Result {
	e.prepare()

	tm := NewTimeManager()
	tm.Init(limits.MoveTime)
	e.searcher.Reset(ctx, tm)

	result := Result{BestMove: board.NoMove}

	if pos.IsTerminal() {
		result.Evaluation = TerminalScore(pos.DiscDiff())
		return result
	}

	hasPlacement := pos.LegalMoves() != 0

	maxDepth := MaxPly - 1
	if limits.Depth > 0 && limits.Depth < maxDepth {
		maxDepth = limits.Depth
	}

	toBlack := func(score int) int {
		if pos.SideToMove == board.White {
			return -score
		}
		return score
	}

	bestMove := board.NoMove
	var bestScore int

	// Iterative deepening
	for depth := 1; depth <= maxDepth; depth++ {
		// Depth 1 always runs so a move exists even under a tiny budget
		if depth > 1 && (!tm.CanStartIteration() || e.searcher.shouldStop()) {
			break
		}
		abortable := depth > 1

		var move board.Move
		var score int

		// Use aspiration windows after depth 4 and when we have a previous score
		if window := e.cfg.AspirationWindow; window > 0 && depth >= 5 && !IsDecided(bestScore) {
			alpha := bestScore - window
			beta := bestScore + window

			// Aspiration window search with widening
			for {
				move, score = e.searcher.SearchWithBounds(pos, depth, alpha, beta, abortable)

				if e.searcher.Aborted() {
					break
				}

				if score <= alpha {
					// Fail low - widen window down
					alpha = -Infinity
				} else if score >= beta {
					// Fail high - widen window up
					beta = Infinity
				} else {
					break
				}

				// If both bounds are infinite, we've done a full search
				if alpha == -Infinity && beta == Infinity {
					break
				}
			}
		} else {
			move, score = e.searcher.Search(pos, depth, abortable)
		}

		if e.searcher.Aborted() {
			break
		}

		bestMove = move
		bestScore = score

		if hasPlacement {
			result.BestMove = bestMove
		}
		result.Evaluation = toBlack(bestScore)
		result.DepthReached = depth
		result.PrincipalVariation = e.searcher.GetPV()

		elapsed := tm.Elapsed()
		log.Debug().
			Int("depth", depth).
			Int("score", result.Evaluation).
			Uint64("nodes", e.searcher.Nodes()).
			Dur("elapsed", elapsed).
			Str("best", bestMove.String()).
			Msg("iteration-complete")

		if onInfo != nil {
			onInfo(SearchInfo{
				Depth:    depth,
				Score:    result.Evaluation,
				Nodes:    e.searcher.Nodes(),
				Time:     elapsed,
				TimeMs:   elapsed.Milliseconds(),
				PV:       result.PrincipalVariation,
				HashFull: e.tt.HashFull(),
			})
		}

		// Early termination: every line reached the end of the game
		if e.searcher.Solved() {
			break
		}
	}

	// A single fixed-depth iteration always leaves a root move; the fallback
	// only covers placements when no iteration completed.
	if hasPlacement && result.BestMove == board.NoMove {
		list := pos.GenerateMoves()
		e.orderer.OrderMoves(pos, list, 0, board.NoMove)
		result.BestMove = list.Get(0)
	}

	result.NodesSearched = e.searcher.Nodes()
	result.TimeUsedMs = tm.Elapsed().Milliseconds()

	log.Info().
		Str("best", result.BestMove.String()).
		Int("eval", result.Evaluation).
		Int("depth", result.DepthReached).
		Uint64("nodes", result.NodesSearched).
		Int64("ms", result.TimeUsedMs).
		Msg("analysis-complete")

	return result
}

// Stop stops the current search. The result of the last completed
// iteration is returned by the running Analyze.
func (e *Engine) Stop() {
	e.stopFlag.Store(true)
}

// Clear clears the transposition table and other caches.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tt.Clear()
	e.orderer.Clear()
	e.evalCache.Clear()
}

// HashFull returns the permille of the transposition table in use.
func (e *Engine) HashFull() int {
	return e.tt.HashFull()
}

// Evaluate returns the static evaluation of pos, Black-relative.
func (e *Engine) Evaluate(pos board.Position) int {
	return Evaluate(pos, board.Black)
}

// Perft performs a perft test (for debugging move generation).
func (e *Engine) Perft(pos board.Position, depth int) uint64 {
	return board.Perft(pos, depth)
}
