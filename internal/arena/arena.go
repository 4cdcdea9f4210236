// Package arena plays matches between two analyzer tiers.
package arena

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"lukechampine.com/frand"

	"github.com/hailam/othelloplay/internal/board"
	"github.com/hailam/othelloplay/internal/engine"
)

// Config describes a match.
type Config struct {
	TierA, TierB engine.Tier
	Games        int // Rounded up to an even number: each opening is played with both colors
	Concurrency  int
	OpeningMoves int // Random moves played before the tiers take over
	Depth        int
	MoveTime     time.Duration
	Engine       engine.Config
	Book         engine.OpeningBook
}

// Game describes one game to play.
type Game struct {
	Number   int
	AIsBlack bool
	Opening  []board.Move
}

// GameResult is a finished game.
type GameResult struct {
	Game
	Moves     []board.Move
	Final     board.Position
	DiscDiffA int // Tier A discs minus tier B discs
	Duration  time.Duration
}

// Report summarizes a match from tier A's side.
type Report struct {
	Games    int
	WinsA    int
	LossesA  int
	Draws    int
	WinRate  float64 // Draws count half
	MeanDiff float64
	StdDiff  float64
}

// RandomOpening plays up to n uniformly random moves from the start position.
func RandomOpening(n int) []board.Move {
	pos := board.NewPosition()
	var moves []board.Move
	for len(moves) < n && !pos.IsTerminal() {
		legal := pos.GenerateLegalMoves()
		m := legal.Get(frand.Intn(legal.Len()))
		moves = append(moves, m)
		pos = pos.Apply(m)
	}
	return moves
}

// PlayGame plays opening and then alternates black and white until the game
// ends. Forced passes are played without asking the analyzers.
func PlayGame(ctx context.Context, black, white engine.Analyzer, opening []board.Move, limits engine.SearchLimits) (board.Position, []board.Move, error) {
	pos := board.NewPosition()
	moves := make([]board.Move, 0, 64)

	for _, m := range opening {
		if !pos.IsLegal(m) {
			return pos, moves, fmt.Errorf("illegal opening move %s", m)
		}
		pos = pos.Apply(m)
		moves = append(moves, m)
	}

	for !pos.IsTerminal() {
		if err := ctx.Err(); err != nil {
			return pos, moves, err
		}

		if pos.MustPass() {
			pos = pos.Apply(board.Pass)
			moves = append(moves, board.Pass)
			continue
		}

		a := black
		if pos.SideToMove == board.White {
			a = white
		}
		res, err := a.Analyze(ctx, engine.Request{
			Position:  pos,
			Depth:     limits.Depth,
			TimeLimit: limits.MoveTime,
			MoveCount: len(moves),
		})
		if err != nil {
			return pos, moves, err
		}
		if !pos.IsLegal(res.BestMove) {
			return pos, moves, fmt.Errorf("%s played illegal move %s in\n%s", pos.SideToMove, res.BestMove, pos)
		}
		pos = pos.Apply(res.BestMove)
		moves = append(moves, res.BestMove)
	}

	return pos, moves, nil
}

// Run plays the match. onResult, if set, is called for every finished game
// from a single goroutine.
func Run(ctx context.Context, cfg Config, onResult func(GameResult)) (Report, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	limits := engine.SearchLimits{Depth: cfg.Depth, MoveTime: cfg.MoveTime}

	log.Info().
		Str("a", cfg.TierA.String()).
		Str("b", cfg.TierB.String()).
		Int("games", cfg.Games).
		Int("concurrency", cfg.Concurrency).
		Msg("arena-started")

	g, ctx := errgroup.WithContext(ctx)

	games := make(chan Game)
	results := make(chan GameResult)

	g.Go(func() error {
		defer close(games)
		for i := 0; i < cfg.Games; i += 2 {
			opening := RandomOpening(cfg.OpeningMoves)
			for j := 0; j < 2; j++ {
				select {
				case games <- Game{Number: i + j + 1, AIsBlack: j == 0, Opening: opening}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return playGames(ctx, cfg, limits, games, results)
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(results)
		return nil
	})

	var finished []GameResult
	g.Go(func() error {
		for res := range results {
			finished = append(finished, res)
			log.Info().
				Int("game", res.Number).
				Bool("a_black", res.AIsBlack).
				Int("diff_a", res.DiscDiffA).
				Dur("elapsed", res.Duration).
				Msg("game-finished")
			if onResult != nil {
				onResult(res)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return Summarize(finished), err
	}
	return Summarize(finished), nil
}

func playGames(ctx context.Context, cfg Config, limits engine.SearchLimits, games <-chan Game, results chan<- GameResult) error {
	a, err := engine.NewAnalyzer(cfg.TierA, cfg.Engine, cfg.Book)
	if err != nil {
		return err
	}
	b, err := engine.NewAnalyzer(cfg.TierB, cfg.Engine, cfg.Book)
	if err != nil {
		return err
	}

	for game := range games {
		black, white := a, b
		if !game.AIsBlack {
			black, white = b, a
		}

		start := time.Now()
		final, moves, err := PlayGame(ctx, black, white, game.Opening, limits)
		if err != nil {
			return fmt.Errorf("game %d: %w", game.Number, err)
		}

		diff := final.DiscDiff()
		if !game.AIsBlack {
			diff = -diff
		}

		select {
		case results <- GameResult{Game: game, Moves: moves, Final: final, DiscDiffA: diff, Duration: time.Since(start)}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Summarize computes the match statistics.
func Summarize(results []GameResult) Report {
	r := Report{Games: len(results)}
	if len(results) == 0 {
		return r
	}

	diffs := make([]float64, len(results))
	for i, res := range results {
		diffs[i] = float64(res.DiscDiffA)
		switch {
		case res.DiscDiffA > 0:
			r.WinsA++
		case res.DiscDiffA < 0:
			r.LossesA++
		default:
			r.Draws++
		}
	}

	r.WinRate = (float64(r.WinsA) + 0.5*float64(r.Draws)) / float64(r.Games)
	r.MeanDiff, r.StdDiff = stat.MeanStdDev(diffs, nil)
	return r
}
