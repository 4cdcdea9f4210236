package board

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Move is either a placement square (0-63) or the Pass sentinel.
type Move int8

const (
	// Pass is legal only when the side to move has no placement.
	Pass Move = 64

	// NoMove represents the absence of a move.
	NoMove Move = -1
)

// MaxMoves bounds the number of legal placements in any position.
const MaxMoves = 64

// NewMove creates a placement move at (row, col).
func NewMove(row, col int) Move {
	return Move(NewSquare(row, col))
}

// MoveAt creates a placement move on the given square.
func MoveAt(sq Square) Move {
	return Move(sq)
}

// Square returns the placement square, or NoSquare for Pass/NoMove.
func (m Move) Square() Square {
	if m < 0 || m >= 64 {
		return NoSquare
	}
	return Square(m)
}

// IsPass returns true if this is the pass sentinel.
func (m Move) IsPass() bool {
	return m == Pass
}

// IsPlacement returns true if the move places a disc.
func (m Move) IsPlacement() bool {
	return m >= 0 && m < 64
}

// Row returns the placement row (0-7).
func (m Move) Row() int {
	return m.Square().Row()
}

// Col returns the placement column (0-7).
func (m Move) Col() int {
	return m.Square().Col()
}

// String returns "pass", "none" or the square in algebraic notation.
func (m Move) String() string {
	switch {
	case m == Pass:
		return "pass"
	case m.IsPlacement():
		return m.Square().String()
	default:
		return "none"
	}
}

// ParseMove parses "pass" or a square such as "d3".
func ParseMove(s string) (Move, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "pass" || s == "ps" {
		return Pass, nil
	}
	sq, err := ParseSquare(s)
	if err != nil {
		return NoMove, fmt.Errorf("invalid move: %w", err)
	}
	return MoveAt(sq), nil
}

// MarshalJSON encodes NoMove as null and other moves in text form.
func (m Move) MarshalJSON() ([]byte, error) {
	if m == NoMove {
		return []byte("null"), nil
	}
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes the text form produced by MarshalJSON.
func (m *Move) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = NoMove
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	mv, err := ParseMove(s)
	if err != nil {
		return err
	}
	*m = mv
	return nil
}

// MoveList is a fixed-size list of moves.
type MoveList struct {
	moves [MaxMoves]Move
	count int
}

// Add appends a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at the given index.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Set replaces the move at the given index.
func (ml *MoveList) Set(i int, m Move) {
	ml.moves[i] = m
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Contains reports whether m is in the list.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns a copy of the moves as a slice.
func (ml *MoveList) Slice() []Move {
	out := make([]Move, ml.count)
	copy(out, ml.moves[:ml.count])
	return out
}

// NewMoveList builds a list from the given moves.
func NewMoveList(moves ...Move) *MoveList {
	ml := &MoveList{}
	for _, m := range moves {
		ml.Add(m)
	}
	return ml
}
