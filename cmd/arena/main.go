// Command arena plays one engine tier against another and reports the score.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/othelloplay/internal/arena"
	"github.com/hailam/othelloplay/internal/book"
	"github.com/hailam/othelloplay/internal/engine"
	"github.com/hailam/othelloplay/internal/logging"
	"github.com/hailam/othelloplay/internal/storage"
)

func main() {
	tierA := flag.String("a", engine.TierFull.String(), "first tier")
	tierB := flag.String("b", engine.TierShallow.String(), "second tier")
	games := flag.Int("games", 20, "number of games, rounded up to an even number")
	concurrency := flag.Int("concurrency", runtime.NumCPU()/2, "games played at once")
	openingMoves := flag.Int("opening", 4, "random moves played before the tiers take over")
	depth := flag.Int("depth", 6, "search depth per move (0 for the phase budget)")
	moveTime := flag.Duration("movetime", 0, "time limit per move (0 for none)")
	hashMB := flag.Int("hash", 16, "transposition table size per engine in MB")
	useBook := flag.Bool("book", false, "let the full tier use the built-in opening book")
	dbDir := flag.String("db", "none", "database to record results in (empty for the platform default, none to disable)")
	logLevel := flag.String("loglevel", "info", "log level")
	flag.Parse()

	if err := logging.Setup(os.Stderr, *logLevel, true); err != nil {
		log.Fatal().Err(err).Msg("logging")
	}

	a, err := engine.ParseTier(*tierA)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid -a")
	}
	b, err := engine.ParseTier(*tierB)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid -b")
	}

	cfg := arena.Config{
		TierA:        a,
		TierB:        b,
		Games:        *games + *games%2,
		Concurrency:  max(1, *concurrency),
		OpeningMoves: *openingMoves,
		Depth:        *depth,
		MoveTime:     *moveTime,
		Engine:       engine.DefaultConfig(),
	}
	cfg.Engine.HashMB = *hashMB
	if *useBook {
		cfg.Book = book.Default()
	}

	var store *storage.Storage
	switch *dbDir {
	case "none":
	case "":
		store, err = storage.NewStorage()
	default:
		store, err = storage.Open(*dbDir)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("storage")
	}
	if store != nil {
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	report, err := arena.Run(ctx, cfg, func(res arena.GameResult) {
		if store == nil {
			return
		}
		if err := store.RecordGame(storage.GameResult{
			Tier:     a,
			Opponent: b,
			DiscDiff: res.DiscDiffA,
			Duration: res.Duration,
		}); err != nil {
			log.Warn().Err(err).Msg("record-failed")
		}
	})
	if err != nil {
		log.Error().Err(err).Msg("arena stopped")
	}

	fmt.Printf("%s vs %s: %d games in %v\n", a, b, report.Games, time.Since(start).Round(time.Second))
	fmt.Printf("+%d -%d =%d  score %.1f%%\n", report.WinsA, report.LossesA, report.Draws, report.WinRate*100)
	fmt.Printf("disc margin %.2f +- %.2f\n", report.MeanDiff, report.StdDiff)

	if store != nil {
		if stats, err := store.LoadStats(a, b); err == nil && stats.GamesPlayed > 0 {
			fmt.Printf("all time: %d games, %.1f%%\n", stats.GamesPlayed, stats.GetWinRate())
		}
	}
}
