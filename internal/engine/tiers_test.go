package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/hailam/othelloplay/internal/board"
)

type fixedBook struct {
	move board.Move
}

func (b fixedBook) Probe(pos board.Position) (board.Move, bool) {
	return b.move, true
}

func TestParseTier(t *testing.T) {
	for _, tier := range Tiers {
		got, err := ParseTier(tier.String())
		if err != nil || got != tier {
			t.Errorf("ParseTier(%q) = %v, %v", tier.String(), got, err)
		}
	}
	if got, _ := ParseTier("C"); got != TierShallow {
		t.Errorf("ParseTier(C) = %v", got)
	}
	if _, err := ParseTier("grandmaster"); !errors.Is(err, ErrUnknownTier) {
		t.Errorf("unexpected error %v", err)
	}
	if _, err := NewAnalyzer(Tier(9), DefaultConfig(), nil); !errors.Is(err, ErrUnknownTier) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestTiersReturnLegalMoves(t *testing.T) {
	pos := walk(board.NewPosition(), 10)
	cfg := Config{HashMB: 1}

	for _, tier := range Tiers {
		a, err := NewAnalyzer(tier, cfg, nil)
		if err != nil {
			t.Fatal(err)
		}
		res, err := a.Analyze(context.Background(), Request{Position: pos, Depth: 4})
		if err != nil {
			t.Fatalf("%s: %v", tier, err)
		}
		if !pos.IsLegal(res.BestMove) {
			t.Errorf("%s: illegal move %s", tier, res.BestMove)
		}
		if tier == TierShallow && res.DepthReached > 3 {
			t.Errorf("shallow tier searched to depth %d", res.DepthReached)
		}
	}
}

func TestGreedyPicksBestStaticReply(t *testing.T) {
	pos := walk(board.NewPosition(), 6)
	res, err := GreedyAnalyzer{}.Analyze(context.Background(), Request{Position: pos})
	if err != nil {
		t.Fatal(err)
	}

	us := pos.SideToMove
	best := Evaluate(pos.Apply(res.BestMove), us)
	moves := pos.GenerateMoves()
	for i := 0; i < moves.Len(); i++ {
		if s := Evaluate(pos.Apply(moves.Get(i)), us); s > best {
			t.Errorf("%s scores %d, better than chosen %s (%d)", moves.Get(i), s, res.BestMove, best)
		}
	}
}

func TestFullTierUsesBook(t *testing.T) {
	d3 := board.NewMove(2, 3)
	a, err := NewAnalyzer(TierFull, Config{HashMB: 1}, fixedBook{move: d3})
	if err != nil {
		t.Fatal(err)
	}
	res, err := a.Analyze(context.Background(), Request{Position: board.NewPosition()})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Book || res.BestMove != d3 {
		t.Errorf("expected book move d3, got %+v", res)
	}

	// An illegal book move falls through to search
	res, err = a.Analyze(context.Background(), Request{Position: walk(board.NewPosition(), 2), Depth: 2})
	if err != nil {
		t.Fatal(err)
	}
	if res.Book {
		t.Error("illegal book move was played")
	}
}

func TestAnalyzeTiers(t *testing.T) {
	pos := walk(board.NewPosition(), 8)
	results, err := AnalyzeTiers(context.Background(), Tiers, Config{HashMB: 1}, Request{Position: pos, Depth: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(Tiers) {
		t.Fatalf("got %d results, want %d", len(results), len(Tiers))
	}
	for i, res := range results {
		if !pos.IsLegal(res.BestMove) {
			t.Errorf("%s: illegal move %s", Tiers[i], res.BestMove)
		}
	}
	if results[TierRandom].DepthReached != 0 || results[TierFull].DepthReached == 0 {
		t.Errorf("unexpected depths %d / %d", results[TierRandom].DepthReached, results[TierFull].DepthReached)
	}

	if _, err := AnalyzeTiers(context.Background(), []Tier{Tier(9)}, Config{}, Request{Position: pos}); !errors.Is(err, ErrUnknownTier) {
		t.Errorf("expected ErrUnknownTier, got %v", err)
	}
}
