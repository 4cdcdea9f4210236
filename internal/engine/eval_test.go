package engine

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/hailam/othelloplay/internal/board"
)

func TestEvaluateSymmetry(t *testing.T) {
	positions := []board.Position{board.NewPosition()}
	for n := 1; n <= 30; n += 3 {
		positions = append(positions, walk(board.NewPosition(), n))
	}
	over, _ := board.ParsePosition("XX" + strings.Repeat("-", 62) + " O")
	positions = append(positions, over)

	for i, pos := range positions {
		b := Evaluate(pos, board.Black)
		w := Evaluate(pos, board.White)
		if b != -w {
			t.Errorf("position %d: black %d, white %d", i, b, w)
		}
		if !IsDecided(b) && (b > MaxHeuristic || b < -MaxHeuristic) {
			t.Errorf("position %d: heuristic %d out of range", i, b)
		}
	}
}

func TestEvaluateTerminal(t *testing.T) {
	over, _ := board.ParsePosition("XX" + strings.Repeat("-", 62) + " O")
	if got, want := Evaluate(over, board.Black), WinScore+2; got != want {
		t.Errorf("terminal eval = %d, want %d", got, want)
	}
	if got := Evaluate(board.NewPosition(), board.Black); got != 0 {
		t.Errorf("start position eval = %d, want 0", got)
	}
}

func TestEvalTableCachesScore(t *testing.T) {
	et := NewEvalTable(1)
	pos := walk(board.NewPosition(), 9)

	if _, ok := et.Probe(pos.Hash); ok {
		t.Fatal("expected a miss on an empty table")
	}
	want := Evaluate(pos, board.White)
	if got := et.Evaluate(pos, board.White); got != want {
		t.Errorf("cached eval = %d, want %d", got, want)
	}
	if got := et.Evaluate(pos, board.Black); got != -want {
		t.Errorf("cached eval = %d, want %d", got, -want)
	}
	if et.HitRate() == 0 {
		t.Error("second lookup should hit")
	}
}

func TestStaticMoveScoreNeutralizesCornerNeighbours(t *testing.T) {
	b2 := board.NewMove(1, 1)
	if got := StaticMoveScore(board.NewPosition(), b2); got != -40 {
		t.Errorf("b2 with empty corner = %d, want -40", got)
	}

	taken, _ := board.ParsePosition("X" + strings.Repeat("-", 26) + "OX------XO" + strings.Repeat("-", 27) + " X")
	if got := StaticMoveScore(taken, b2); got != 0 {
		t.Errorf("b2 with occupied corner = %d, want 0", got)
	}
	if got := StaticMoveScore(taken, board.Pass); got != 0 {
		t.Errorf("pass = %d, want 0", got)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(board.NewPosition(), board.Black)
	if s.StoneDiff != 0 || s.Normalized != 0 {
		t.Errorf("start summary = %+v", s)
	}

	over, _ := board.ParsePosition("XX" + strings.Repeat("-", 62) + " O")
	s = Summarize(over, board.White)
	if s.StoneDiff != -2 || s.Normalized != -2 {
		t.Errorf("terminal summary = %+v", s)
	}
}

func TestScoreAdapters(t *testing.T) {
	p, err := WinProbability(0)
	if err != nil || p != 0.5 {
		t.Errorf("WinProbability(0) = %v, %v", p, err)
	}
	if p, _ := WinProbability(500); p <= 0.5 || p >= 1 {
		t.Errorf("WinProbability(500) = %v", p)
	}

	if v, _ := StoneEquivalent(1e6); v != 64 {
		t.Errorf("StoneEquivalent(1e6) = %d, want 64", v)
	}
	if v, _ := StoneEquivalent(-1e6); v != -64 {
		t.Errorf("StoneEquivalent(-1e6) = %d, want -64", v)
	}

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := WinProbability(bad); !errors.Is(err, ErrNonFiniteScore) {
			t.Errorf("WinProbability(%v) error = %v", bad, err)
		}
		if _, err := StoneEquivalent(bad); !errors.Is(err, ErrNonFiniteScore) {
			t.Errorf("StoneEquivalent(%v) error = %v", bad, err)
		}
	}
}

func TestScoreToString(t *testing.T) {
	cases := map[int]string{
		0:                  "0",
		35:                 "+35",
		-12:                "-12",
		TerminalScore(6):   "Win +6",
		TerminalScore(-10): "Loss -10",
	}
	for score, want := range cases {
		if got := ScoreToString(score); got != want {
			t.Errorf("ScoreToString(%d) = %q, want %q", score, got, want)
		}
	}
}

func TestBudgetFor(t *testing.T) {
	cases := []struct {
		phase Phase
		want  Budget
	}{
		{Phase{MoveCount: 50, Empties: 10}, Budget{11, 8000 * time.Millisecond}},
		{Phase{MoveCount: 5, Empties: 50}, Budget{9, 7000 * time.Millisecond}},
		{Phase{MoveCount: 20, Empties: 30}, Budget{10, 9000 * time.Millisecond}},
		{Phase{MoveCount: 44, Empties: 16}, Budget{11, 8000 * time.Millisecond}},
	}
	for _, c := range cases {
		if got := BudgetFor(c.phase); got != c.want {
			t.Errorf("BudgetFor(%+v) = %+v, want %+v", c.phase, got, c.want)
		}
	}
}

func TestLimitsFor(t *testing.T) {
	req := Request{Position: board.NewPosition()}
	if got := LimitsFor(req); got.Depth != 9 || got.MoveTime != 7*time.Second {
		t.Errorf("start position limits = %+v", got)
	}

	req.Depth = 4
	if got := LimitsFor(req); got.Depth != 4 || got.MoveTime != 0 {
		t.Errorf("explicit depth limits = %+v", got)
	}
}

func TestTimeManager(t *testing.T) {
	tm := NewTimeManager()
	tm.Init(0)
	if tm.ShouldStop() || !tm.CanStartIteration() {
		t.Error("unlimited clock should never stop")
	}

	tm.Init(time.Nanosecond)
	time.Sleep(time.Millisecond)
	if !tm.ShouldStop() || tm.CanStartIteration() {
		t.Error("expired clock should stop")
	}
}
