package board

import (
	"errors"
	"strings"
	"testing"
)

func mustParse(t *testing.T, s string) Position {
	t.Helper()
	pos, err := ParsePosition(s)
	if err != nil {
		t.Fatalf("ParsePosition(%q): %v", s, err)
	}
	return pos
}

func TestStartingPositionMoves(t *testing.T) {
	pos := NewPosition()

	moves := pos.GenerateMoves()
	if moves.Len() != 4 {
		t.Fatalf("Black has %d legal moves at start, want 4", moves.Len())
	}

	want := map[string]bool{"d3": true, "c4": true, "f5": true, "e6": true}
	for i := 0; i < moves.Len(); i++ {
		if !want[moves.Get(i).String()] {
			t.Errorf("unexpected legal move %s", moves.Get(i))
		}
	}

	if pos.Text() != StartText {
		t.Errorf("Text() = %q, want %q", pos.Text(), StartText)
	}
}

func TestApplyFlipsAndSwitchesSide(t *testing.T) {
	pos := NewPosition()
	m, err := ParseMove("d3")
	if err != nil {
		t.Fatal(err)
	}

	next := pos.Apply(m)

	if next.SideToMove != White {
		t.Errorf("side to move = %s, want White", next.SideToMove)
	}
	if next.Count(Black) != 4 || next.Count(White) != 1 {
		t.Errorf("counts after d3: X=%d O=%d, want 4/1", next.Count(Black), next.Count(White))
	}
	if next.CellAt(NewSquare(3, 3)) != CellBlack {
		t.Error("d4 should have been flipped to Black")
	}
	if pos.Count(Black) != 2 {
		t.Error("Apply mutated the receiver")
	}
	if err := next.Validate(); err != nil {
		t.Errorf("Validate after apply: %v", err)
	}
}

func TestApplyIllegalPanics(t *testing.T) {
	tests := []struct {
		name string
		move Move
	}{
		{"occupied", NewMove(3, 3)},
		{"no flips", NewMove(0, 0)},
		{"pass with placements", Pass},
		{"no move", NoMove},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("Apply(%s) did not panic", tc.move)
				}
			}()
			NewPosition().Apply(tc.move)
		})
	}
}

func TestPassAndTerminal(t *testing.T) {
	// White on a1, Black on b1: Black cannot move, White can play c1.
	pass := mustParse(t, "OX"+strings.Repeat("-", 62)+" X")

	if pass.LegalMoves() != 0 {
		t.Fatal("Black should have no placements")
	}
	if !pass.MustPass() {
		t.Error("MustPass should be true")
	}
	if pass.IsTerminal() {
		t.Error("position with opponent moves is not terminal")
	}

	moves := pass.GenerateLegalMoves()
	if moves.Len() != 1 || moves.Get(0) != Pass {
		t.Fatalf("GenerateLegalMoves = %v, want [pass]", moves.Slice())
	}

	after := pass.Apply(Pass)
	if after.SideToMove != White {
		t.Error("pass should hand the move to White")
	}
	if after.Discs != pass.Discs {
		t.Error("pass must not change discs")
	}
	if err := after.Validate(); err != nil {
		t.Errorf("Validate after pass: %v", err)
	}

	terminal := mustParse(t, "XX"+strings.Repeat("-", 62)+" O")
	if !terminal.IsTerminal() {
		t.Error("single-colour board should be terminal")
	}
	if terminal.GenerateLegalMoves().Len() != 0 {
		t.Error("terminal position has no legal moves, not even pass")
	}
}

func TestParsePositionErrors(t *testing.T) {
	tests := []string{
		"",
		"XO X",
		strings.Repeat("-", 64),
		strings.Repeat("-", 63) + "Z X",
		strings.Repeat("-", 64) + " Q",
	}

	for _, s := range tests {
		if _, err := ParsePosition(s); !errors.Is(err, ErrInvalidPosition) {
			t.Errorf("ParsePosition(%q) error = %v, want ErrInvalidPosition", s, err)
		}
	}
}

func TestParsePositionRoundTrip(t *testing.T) {
	pos := NewPosition().Apply(NewMove(2, 3)).Apply(NewMove(2, 2))
	parsed := mustParse(t, pos.Text())
	if parsed != pos {
		t.Errorf("round trip mismatch:\n%s\n%s", pos, parsed)
	}
}

func TestParseMove(t *testing.T) {
	tests := []struct {
		in   string
		want Move
	}{
		{"a1", NewMove(0, 0)},
		{"H8", NewMove(7, 7)},
		{"d3", NewMove(2, 3)},
		{"pass", Pass},
	}
	for _, tc := range tests {
		got, err := ParseMove(tc.in)
		if err != nil {
			t.Errorf("ParseMove(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseMove(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}

	if _, err := ParseMove("z9"); err == nil {
		t.Error("ParseMove(z9) should fail")
	}
}
