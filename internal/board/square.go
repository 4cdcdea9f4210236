// Package board implements the Othello board representation using bitboards.
package board

import "fmt"

// Square represents a cell on the 8x8 board (0-63), index = row*8 + col.
// Row 0 is printed as "1" and column 0 as "a", so a1 is the top-left corner.
type Square int8

// NoSquare represents an invalid square.
const NoSquare Square = -1

// NewSquare creates a square from row and column (0-7).
func NewSquare(row, col int) Square {
	return Square(row*8 + col)
}

// Row returns the row (0-7).
func (sq Square) Row() int {
	return int(sq) / 8
}

// Col returns the column (0-7).
func (sq Square) Col() int {
	return int(sq) % 8
}

// Valid returns true if the square lies on the board.
func (sq Square) Valid() bool {
	return sq >= 0 && sq < 64
}

// String returns the algebraic notation of the square (e.g., "d3").
func (sq Square) String() string {
	if !sq.Valid() {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+sq.Col(), '1'+sq.Row())
}

// ParseSquare parses algebraic notation (e.g., "d3") into a square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}

	col := int(s[0] - 'a')
	if s[0] >= 'A' && s[0] <= 'H' {
		col = int(s[0] - 'A')
	}
	row := int(s[1] - '1')

	if col < 0 || col > 7 || row < 0 || row > 7 {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}

	return NewSquare(row, col), nil
}
