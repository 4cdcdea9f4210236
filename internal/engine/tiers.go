package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/hailam/othelloplay/internal/board"
)

// ErrUnknownTier is returned when a tier name or number is not recognized.
var ErrUnknownTier = errors.New("unknown tier")

// Tier represents a strength level of the move chooser.
type Tier int

const (
	TierRandom  Tier = iota // Uniform random legal move
	TierGreedy              // Best static evaluation after one move
	TierShallow             // Short fixed-depth search
	TierFull                // Phase-budgeted search with book
)

// Tiers lists every tier from weakest to strongest.
var Tiers = []Tier{TierRandom, TierGreedy, TierShallow, TierFull}

// TierSettings maps the searching tiers to their limits. TierFull uses the
// phase budget instead.
var TierSettings = map[Tier]SearchLimits{
	TierShallow: {Depth: 3, MoveTime: 500 * time.Millisecond},
}

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierRandom:
		return "random"
	case TierGreedy:
		return "greedy"
	case TierShallow:
		return "shallow"
	case TierFull:
		return "full"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ParseTier accepts a tier name or its letter (a-d).
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "random", "a":
		return TierRandom, nil
	case "greedy", "b":
		return TierGreedy, nil
	case "shallow", "c":
		return TierShallow, nil
	case "full", "d":
		return TierFull, nil
	}
	return TierRandom, fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

// MarshalText encodes the tier as its name.
func (t Tier) MarshalText() ([]byte, error) {
	if t < TierRandom || t > TierFull {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTier, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Analyzer chooses a move for a position.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (Result, error)
}

// RandomAnalyzer plays a uniformly random legal move.
type RandomAnalyzer struct{}

// Analyze implements Analyzer.
func (RandomAnalyzer) Analyze(ctx context.Context, req Request) (Result, error) {
	pos := req.Position
	if err := pos.Validate(); err != nil {
		return Result{}, err
	}
	start := time.Now()
	result := Result{BestMove: board.NoMove, Evaluation: Evaluate(pos, board.Black)}

	moves := pos.GenerateMoves()
	if moves.Len() > 0 {
		m := moves.Get(frand.Intn(moves.Len()))
		result.BestMove = m
		result.Evaluation = Evaluate(pos.Apply(m), board.Black)
		result.NodesSearched = 1
		result.PrincipalVariation = []board.Move{m}
	}
	result.TimeUsedMs = time.Since(start).Milliseconds()
	return result, nil
}

// GreedyAnalyzer plays the move with the best static evaluation one ply ahead.
type GreedyAnalyzer struct{}

// Analyze implements Analyzer.
func (GreedyAnalyzer) Analyze(ctx context.Context, req Request) (Result, error) {
	pos := req.Position
	if err := pos.Validate(); err != nil {
		return Result{}, err
	}
	start := time.Now()
	us := pos.SideToMove
	result := Result{BestMove: board.NoMove, Evaluation: Evaluate(pos, board.Black)}

	moves := pos.GenerateMoves()
	bestScore := -Infinity
	bestStatic := -Infinity
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		child := pos.Apply(m)
		score := Evaluate(child, us)
		static := StaticMoveScore(pos, m)
		result.NodesSearched++
		if score > bestScore || (score == bestScore && static > bestStatic) {
			bestScore = score
			bestStatic = static
			result.BestMove = m
			result.Evaluation = Evaluate(child, board.Black)
		}
	}
	if result.BestMove != board.NoMove {
		result.DepthReached = 1
		result.PrincipalVariation = []board.Move{result.BestMove}
	}
	result.TimeUsedMs = time.Since(start).Milliseconds()
	return result, nil
}

// LimitedAnalyzer runs an engine with limits capped by Limits.
type LimitedAnalyzer struct {
	Engine *Engine
	Limits SearchLimits
}

// Analyze implements Analyzer.
func (la LimitedAnalyzer) Analyze(ctx context.Context, req Request) (Result, error) {
	if req.Depth <= 0 || req.Depth > la.Limits.Depth {
		req.Depth = la.Limits.Depth
	}
	if req.TimeLimit <= 0 || req.TimeLimit > la.Limits.MoveTime {
		req.TimeLimit = la.Limits.MoveTime
	}
	return la.Engine.Analyze(ctx, req)
}

// NewAnalyzer builds the analyzer for a tier. The full tier uses book when
// it is not nil.
func NewAnalyzer(t Tier, cfg Config, book OpeningBook) (Analyzer, error) {
	switch t {
	case TierRandom:
		return RandomAnalyzer{}, nil
	case TierGreedy:
		return GreedyAnalyzer{}, nil
	case TierShallow:
		return LimitedAnalyzer{Engine: NewEngine(cfg), Limits: TierSettings[TierShallow]}, nil
	case TierFull:
		e := NewEngine(cfg)
		if book != nil {
			e.SetBook(book)
		}
		return e, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownTier, int(t))
}

// AnalyzeTiers analyzes req with a fresh analyzer for every tier in tiers,
// concurrently. Results are returned in the order of tiers.
func AnalyzeTiers(ctx context.Context, tiers []Tier, cfg Config, req Request) ([]Result, error) {
	analyzers := make([]Analyzer, len(tiers))
	for i, t := range tiers {
		a, err := NewAnalyzer(t, cfg, nil)
		if err != nil {
			return nil, err
		}
		analyzers[i] = a
	}

	results := make([]Result, len(tiers))
	g, ctx := errgroup.WithContext(ctx)
	for i, a := range analyzers {
		i, a := i, a
		g.Go(func() error {
			r := req
			r.OnInfo = nil
			res, err := a.Analyze(ctx, r)
			if err != nil {
				return fmt.Errorf("%s: %w", tiers[i], err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
