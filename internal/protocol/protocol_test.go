package protocol

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hailam/othelloplay/internal/board"
	"github.com/hailam/othelloplay/internal/engine"
	"github.com/hailam/othelloplay/internal/storage"
)

func run(t *testing.T, input string) (*Protocol, string) {
	t.Helper()
	var out bytes.Buffer
	p := New(engine.Config{HashMB: 1}, engine.TierFull, strings.NewReader(input), &out)
	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return p, out.String()
}

func lastLine(out, prefix string) string {
	var last string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, prefix) {
			last = line
		}
	}
	return last
}

func TestHandshake(t *testing.T) {
	_, out := run(t, "othello\nisready\n")
	if !strings.Contains(out, "id name OthelloPlay") || !strings.Contains(out, "othellook") {
		t.Errorf("missing identification:\n%s", out)
	}
	if !strings.HasSuffix(out, "readyok\n") {
		t.Errorf("missing readyok:\n%s", out)
	}
}

func TestPositionCommands(t *testing.T) {
	p, _ := run(t, "position startpos moves f5 d6 c3\n")
	want := board.NewPosition().
		Apply(board.NewMove(4, 5)).
		Apply(board.NewMove(5, 3)).
		Apply(board.NewMove(2, 2))
	if p.Position() != want {
		t.Errorf("position mismatch:\n%s", p.Position())
	}
	if p.moveCount != 3 {
		t.Errorf("move count = %d, want 3", p.moveCount)
	}

	p, _ = run(t, "position board "+board.StartText+" moves d3\n")
	if p.Position() != board.NewPosition().Apply(board.NewMove(2, 3)) {
		t.Errorf("board position mismatch:\n%s", p.Position())
	}

	p, out := run(t, "position startpos moves a1\n")
	if p.Position() != board.NewPosition() || !strings.Contains(out, "invalid move: a1") {
		t.Errorf("illegal move accepted:\n%s", out)
	}

	_, out = run(t, "position board XO X\n")
	if !strings.Contains(out, "invalid board") {
		t.Errorf("bad board accepted:\n%s", out)
	}
}

func TestGoDepth(t *testing.T) {
	_, out := run(t, "position startpos\ngo depth 3\n")

	info := lastLine(out, "info depth")
	if !strings.HasPrefix(info, "info depth 3 ") || !strings.Contains(info, " pv ") {
		t.Errorf("unexpected info line %q\n%s", info, out)
	}

	best := strings.TrimPrefix(lastLine(out, "bestmove"), "bestmove ")
	m, err := board.ParseMove(best)
	if err != nil || !board.NewPosition().IsLegal(m) {
		t.Errorf("bad bestmove %q\n%s", best, out)
	}
}

func TestGoPassAndGameOver(t *testing.T) {
	pass := "OX" + strings.Repeat("-", 62) + " X"
	_, out := run(t, "position board "+pass+"\ngo depth 2\n")
	if got := lastLine(out, "bestmove"); got != "bestmove pass" {
		t.Errorf("got %q, want bestmove pass\n%s", got, out)
	}

	over := "XX" + strings.Repeat("-", 62) + " O"
	_, out = run(t, "position board "+over+"\ngo depth 2\n")
	if got := lastLine(out, "bestmove"); got != "bestmove none" {
		t.Errorf("got %q, want bestmove none\n%s", got, out)
	}
}

func TestStopAndQuit(t *testing.T) {
	_, out := run(t, "position startpos moves f5 d6\ngo\nstop\ngo movetime 10\nquit\ngo depth 1\n")
	if n := strings.Count(out, "bestmove "); n != 2 {
		t.Errorf("expected 2 bestmove lines before quit, got %d\n%s", n, out)
	}
}

func TestSetOptions(t *testing.T) {
	p, out := run(t, strings.Join([]string{
		"setoption name Tier value greedy",
		"setoption name Hash value 2",
		"setoption name PlyGate value 4",
		"setoption name HistoryPolicy value reset",
		"setoption name Tier value grandmaster",
		"setoption name Bogus value 1",
		"",
	}, "\n"))

	if p.tier != engine.TierGreedy {
		t.Errorf("tier = %s", p.tier)
	}
	if p.cfg.HashMB != 2 || p.cfg.PlyGate != 4 || p.cfg.HistoryPolicy != engine.HistoryReset {
		t.Errorf("config = %+v", p.cfg)
	}
	if !strings.Contains(out, "unknown tier") || !strings.Contains(out, "unknown option Bogus") {
		t.Errorf("missing errors:\n%s", out)
	}
}

func TestTierCommand(t *testing.T) {
	p, out := run(t, "tier\ntier c\ntier nonsense\n")
	if p.tier != engine.TierShallow {
		t.Errorf("tier = %s, want shallow", p.tier)
	}
	if !strings.Contains(out, "tier full\ntier shallow\n") || !strings.Contains(out, "unknown tier") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestBookOption(t *testing.T) {
	_, out := run(t, "setoption name Book value default\nposition startpos\ngo depth 2\n")
	if !strings.Contains(out, "info string book move") || lastLine(out, "bestmove") != "bestmove f5" {
		t.Errorf("book move not played:\n%s", out)
	}

	_, out = run(t, "setoption name Book value /nonexistent/book.bin\n")
	if !strings.Contains(out, "failed to load book") {
		t.Errorf("missing load error:\n%s", out)
	}
}

func TestCachedSearch(t *testing.T) {
	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	var out bytes.Buffer
	p := New(engine.Config{HashMB: 1}, engine.TierShallow, strings.NewReader("go depth 2\ngo depth 2\n"), &out)
	p.SetStore(store)
	if err := p.Run(); err != nil {
		t.Fatal(err)
	}

	// The second answer comes from the cache without iteration reports
	if n := strings.Count(out.String(), "info depth 2"); n != 1 {
		t.Errorf("expected one searched answer, got %d\n%s", n, out.String())
	}
	if n := strings.Count(out.String(), "bestmove "); n != 2 {
		t.Errorf("expected 2 bestmove lines, got %d", n)
	}
}

func TestDebugCommands(t *testing.T) {
	_, out := run(t, "d\neval\nperft 3\nfoo\n")
	if !strings.Contains(out, "a b c d e f g h") {
		t.Errorf("missing board:\n%s", out)
	}
	if !strings.Contains(out, "eval 0 winprob 0.500 stones 0") {
		t.Errorf("missing eval:\n%s", out)
	}
	if !strings.Contains(out, "Nodes: 56") {
		t.Errorf("missing perft:\n%s", out)
	}
	if !strings.Contains(out, "unknown command foo") {
		t.Errorf("missing unknown command:\n%s", out)
	}
}

func TestBestMoveText(t *testing.T) {
	if got := BestMoveText(board.NewPosition(), board.NewMove(2, 3)); got != "d3" {
		t.Errorf("got %q", got)
	}
	if got := BestMoveText(board.NewPosition(), board.NoMove); got != "none" {
		t.Errorf("got %q", got)
	}
}
