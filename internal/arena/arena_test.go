package arena

import (
	"context"
	"math"
	"testing"

	"github.com/hailam/othelloplay/internal/board"
	"github.com/hailam/othelloplay/internal/engine"
)

func TestRandomOpening(t *testing.T) {
	moves := RandomOpening(6)
	if len(moves) != 6 {
		t.Fatalf("got %d moves, want 6", len(moves))
	}
	pos := board.NewPosition()
	for _, m := range moves {
		if !pos.IsLegal(m) {
			t.Fatalf("illegal opening move %s", m)
		}
		pos = pos.Apply(m)
	}
}

func TestPlayGame(t *testing.T) {
	final, moves, err := PlayGame(context.Background(),
		engine.GreedyAnalyzer{}, engine.RandomAnalyzer{},
		RandomOpening(2), engine.SearchLimits{})
	if err != nil {
		t.Fatal(err)
	}
	if !final.IsTerminal() {
		t.Errorf("game ended in a non-terminal position\n%s", final)
	}

	pos := board.NewPosition()
	for _, m := range moves {
		pos = pos.Apply(m)
	}
	if pos != final {
		t.Error("replaying the moves does not reach the final position")
	}
}

func TestPlayGameRejectsIllegalOpening(t *testing.T) {
	_, _, err := PlayGame(context.Background(),
		engine.RandomAnalyzer{}, engine.RandomAnalyzer{},
		[]board.Move{board.NewMove(0, 0)}, engine.SearchLimits{})
	if err == nil {
		t.Error("expected an error for an illegal opening")
	}
}

func TestPlayGameCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, moves, err := PlayGame(ctx, engine.RandomAnalyzer{}, engine.RandomAnalyzer{}, nil, engine.SearchLimits{})
	if err == nil || len(moves) != 0 {
		t.Errorf("err = %v after %d moves", err, len(moves))
	}
}

func TestRun(t *testing.T) {
	var seen int
	report, err := Run(context.Background(), Config{
		TierA:        engine.TierGreedy,
		TierB:        engine.TierRandom,
		Games:        4,
		Concurrency:  2,
		OpeningMoves: 2,
		Engine:       engine.Config{HashMB: 1},
	}, func(GameResult) { seen++ })
	if err != nil {
		t.Fatal(err)
	}
	if report.Games != 4 || seen != 4 {
		t.Errorf("games = %d, callbacks = %d", report.Games, seen)
	}
	if report.WinsA+report.LossesA+report.Draws != 4 {
		t.Errorf("outcomes do not add up: %+v", report)
	}
}

func TestSummarize(t *testing.T) {
	results := []GameResult{
		{DiscDiffA: 10},
		{DiscDiffA: -4},
		{DiscDiffA: 0},
		{DiscDiffA: 6},
	}
	r := Summarize(results)
	if r.WinsA != 2 || r.LossesA != 1 || r.Draws != 1 {
		t.Errorf("unexpected outcomes %+v", r)
	}
	if r.WinRate != 0.625 {
		t.Errorf("win rate = %v, want 0.625", r.WinRate)
	}
	if r.MeanDiff != 3 {
		t.Errorf("mean = %v, want 3", r.MeanDiff)
	}
	// Sample standard deviation of {10, -4, 0, 6}
	if want := math.Sqrt(116.0 / 3); math.Abs(r.StdDiff-want) > 1e-9 {
		t.Errorf("std = %v, want %v", r.StdDiff, want)
	}

	if empty := Summarize(nil); empty.Games != 0 || empty.WinRate != 0 {
		t.Errorf("unexpected empty report %+v", empty)
	}
}
