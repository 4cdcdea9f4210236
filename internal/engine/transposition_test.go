package engine

import (
	"testing"

	"github.com/hailam/othelloplay/internal/board"
)

func TestTranspositionTableProbeStore(t *testing.T) {
	tt := NewTranspositionTableEntries(1024)
	if tt.Size() != 1024 {
		t.Fatalf("size = %d, want 1024", tt.Size())
	}

	const key = 0xABCDEF
	if _, ok := tt.Probe(key); ok {
		t.Fatal("expected a miss on an empty table")
	}

	tt.Store(key, 4, 37, TTLowerBound, board.NewMove(2, 3))
	e, ok := tt.Probe(key)
	if !ok {
		t.Fatal("expected a hit after store")
	}
	if e.Score != 37 || e.Depth != 4 || e.Flag != TTLowerBound || e.BestMove != board.NewMove(2, 3) {
		t.Errorf("unexpected entry %+v", e)
	}

	// A different key in the same slot is not a hit
	if _, ok := tt.Probe(key + tt.Size()); ok {
		t.Error("colliding key reported as a hit")
	}

	// Depth 0 results are never stored
	tt.Store(key+1, 0, 5, TTExact, board.NoMove)
	if _, ok := tt.Probe(key + 1); ok {
		t.Error("depth 0 entry was stored")
	}
}

func TestTranspositionTableReplacement(t *testing.T) {
	tt := NewTranspositionTableEntries(16)
	const key = 3

	tt.Store(key, 6, 10, TTExact, board.NewMove(0, 0))

	// Shallower result of the same search keeps the deeper entry
	tt.Store(key, 2, 99, TTExact, board.NewMove(7, 7))
	if e, _ := tt.Probe(key); e.Depth != 6 || e.Score != 10 {
		t.Errorf("shallow store replaced deep entry: %+v", e)
	}

	// A new search replaces stale entries regardless of depth
	tt.NewSearch()
	tt.Store(key, 2, 99, TTUpperBound, board.NewMove(7, 7))
	if e, _ := tt.Probe(key); e.Depth != 2 || e.Score != 99 {
		t.Errorf("stale entry survived: %+v", e)
	}

	tt.Clear()
	if _, ok := tt.Probe(key); ok {
		t.Error("entry survived Clear")
	}
	if tt.HashFull() != 0 {
		t.Errorf("hashfull after clear = %d", tt.HashFull())
	}
}

func TestBoundFor(t *testing.T) {
	if f := boundFor(-5, -5, 5); f != TTUpperBound {
		t.Errorf("fail low = %s", f)
	}
	if f := boundFor(5, -5, 5); f != TTLowerBound {
		t.Errorf("fail high = %s", f)
	}
	if f := boundFor(0, -5, 5); f != TTExact {
		t.Errorf("inside window = %s", f)
	}
}
