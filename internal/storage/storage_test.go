package storage

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/hailam/othelloplay/internal/board"
	"github.com/hailam/othelloplay/internal/engine"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// countingAnalyzer returns a fixed result and counts calls.
type countingAnalyzer struct {
	calls int
}

func (c *countingAnalyzer) Analyze(ctx context.Context, req engine.Request) (engine.Result, error) {
	c.calls++
	return engine.Result{
		BestMove:           board.NewMove(2, 3),
		Evaluation:         12,
		DepthReached:       4,
		PrincipalVariation: []board.Move{board.NewMove(2, 3), board.NewMove(2, 2)},
	}, nil
}

func TestSettings(t *testing.T) {
	s := openTest(t)

	t.Run("Defaults", func(t *testing.T) {
		settings, err := s.LoadSettings()
		if err != nil {
			t.Fatal(err)
		}
		if settings.Tier != engine.TierFull || !settings.UseBook {
			t.Errorf("unexpected defaults %+v", settings)
		}
		if settings.Engine.HashMB != engine.DefaultConfig().HashMB {
			t.Errorf("hash = %d", settings.Engine.HashMB)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		settings := DefaultSettings()
		settings.Tier = engine.TierShallow
		settings.Engine.HistoryPolicy = engine.HistoryReset
		settings.BookPath = "/tmp/book.bin"
		if err := s.SaveSettings(settings); err != nil {
			t.Fatal(err)
		}

		loaded, err := s.LoadSettings()
		if err != nil {
			t.Fatal(err)
		}
		if loaded.Tier != engine.TierShallow || loaded.Engine.HistoryPolicy != engine.HistoryReset || loaded.BookPath != "/tmp/book.bin" {
			t.Errorf("loaded %+v", loaded)
		}
	})
}

func TestFirstLaunch(t *testing.T) {
	s := openTest(t)

	first, err := s.IsFirstLaunch()
	if err != nil || !first {
		t.Fatalf("IsFirstLaunch = %v, %v", first, err)
	}
	if err := s.MarkFirstLaunchComplete(); err != nil {
		t.Fatal(err)
	}
	if first, _ := s.IsFirstLaunch(); first {
		t.Error("still first launch after marking complete")
	}
}

func TestRecordGame(t *testing.T) {
	s := openTest(t)

	games := []GameResult{
		{Tier: engine.TierFull, Opponent: engine.TierGreedy, DiscDiff: 20},
		{Tier: engine.TierFull, Opponent: engine.TierGreedy, DiscDiff: -4},
		{Tier: engine.TierFull, Opponent: engine.TierGreedy, DiscDiff: 0},
		{Tier: engine.TierFull, Opponent: engine.TierGreedy, DiscDiff: 8},
	}
	for _, g := range games {
		if err := s.RecordGame(g); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := s.LoadStats(engine.TierFull, engine.TierGreedy)
	if err != nil {
		t.Fatal(err)
	}
	if stats.GamesPlayed != 4 || stats.Wins != 2 || stats.Losses != 1 || stats.Draws != 1 || stats.DiscDiff != 24 {
		t.Errorf("stats %+v", stats)
	}
	if rate := stats.GetWinRate(); rate != 62.5 {
		t.Errorf("win rate %.2f, want 62.5", rate)
	}

	other, _ := s.LoadStats(engine.TierGreedy, engine.TierFull)
	if other.Wins != 1 || other.Losses != 2 || other.DiscDiff != -24 {
		t.Errorf("opponent stats %+v", other)
	}

	if empty := (&MatchStats{}).GetWinRate(); empty != 0 {
		t.Errorf("empty win rate %.2f", empty)
	}
}

func TestCachedAnalyzer(t *testing.T) {
	s := openTest(t)
	inner := &countingAnalyzer{}
	cached := CachedAnalyzer{Analyzer: inner, Tier: engine.TierFull, Store: s}

	req := engine.Request{Position: board.NewPosition(), Depth: 4}
	first, err := cached.Analyze(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := cached.Analyze(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if inner.calls != 1 {
		t.Errorf("inner analyzer called %d times, want 1", inner.calls)
	}
	if second.BestMove != first.BestMove || second.Evaluation != first.Evaluation || len(second.PrincipalVariation) != 2 {
		t.Errorf("cached result %+v differs from %+v", second, first)
	}

	// A different budget is a different entry
	req.Depth = 5
	if _, err := cached.Analyze(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("inner analyzer called %d times, want 2", inner.calls)
	}
}

func TestCachedAnalyzerSkipsRandomTier(t *testing.T) {
	s := openTest(t)
	inner := &countingAnalyzer{}
	cached := CachedAnalyzer{Analyzer: inner, Tier: engine.TierRandom, Store: s}

	req := engine.Request{Position: board.NewPosition()}
	cached.Analyze(context.Background(), req)
	cached.Analyze(context.Background(), req)
	if inner.calls != 2 {
		t.Errorf("random tier was cached: %d calls", inner.calls)
	}
}

func TestAnalysisTTL(t *testing.T) {
	s := openTest(t)
	s.SetAnalysisTTL(time.Second)

	key := AnalysisKey(engine.TierFull, engine.Request{Position: board.NewPosition(), Depth: 2})
	if err := s.SaveAnalysis(key, engine.Result{BestMove: board.NewMove(2, 3)}); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := s.LoadAnalysis(key); !found {
		t.Fatal("analysis missing before expiry")
	}

	time.Sleep(2 * time.Second)
	if _, found, _ := s.LoadAnalysis(key); found {
		t.Error("analysis survived its TTL")
	}
}

func TestDataPaths(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_DATA_HOME", base)
	t.Setenv("APPDATA", base)

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if runtime.GOOS != "darwin" && dataDir != filepath.Join(base, appName) {
		t.Errorf("GetDataDir = %q, want it under %q", dataDir, base)
	}

	for name, get := range map[string]func() (string, error){
		"books": GetBookDir,
		"db":    GetDatabaseDir,
	} {
		dir, err := get()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if dir != filepath.Join(dataDir, name) {
			t.Errorf("%s dir = %q", name, dir)
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s dir was not created: %v", name, err)
		}
	}
}
