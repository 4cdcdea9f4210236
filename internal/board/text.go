package board

import (
	"fmt"
	"strings"
)

// StartText is the starting position in text form.
const StartText = "---------------------------OX------XO--------------------------- X"

// ParsePosition parses a position from text form: 64 cells in row-major
// order followed by the side to move.
//
// Cells: 'X', 'x', 'B', '*' = Black; 'O', 'o', 'W' = White; '-', '.' = empty.
// Side: 'X'/'B'/"black" or 'O'/'W'/"white".
func ParsePosition(s string) (Position, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Position{}, fmt.Errorf("%w: empty input", ErrInvalidPosition)
	}

	// Allow the grid to be split across rows.
	var grid strings.Builder
	i := 0
	for ; i < len(fields) && grid.Len() < 64; i++ {
		grid.WriteString(fields[i])
	}
	cellsText := grid.String()
	if len(cellsText) != 64 {
		return Position{}, fmt.Errorf("%w: expected 64 cells, got %d", ErrInvalidPosition, len(cellsText))
	}
	if i >= len(fields) {
		return Position{}, fmt.Errorf("%w: missing side to move", ErrInvalidPosition)
	}

	toMove, err := parseColor(fields[i])
	if err != nil {
		return Position{}, err
	}

	var cells [8][8]Cell
	for idx := 0; idx < 64; idx++ {
		var c Cell
		switch cellsText[idx] {
		case 'X', 'x', 'B', 'b', '*':
			c = CellBlack
		case 'O', 'o', 'W', 'w':
			c = CellWhite
		case '-', '.', '_':
			c = CellEmpty
		default:
			return Position{}, fmt.Errorf("%w: bad cell %q at %d", ErrInvalidPosition, cellsText[idx], idx)
		}
		cells[idx/8][idx%8] = c
	}

	return NewPositionFromCells(cells, toMove)
}

func parseColor(s string) (Color, error) {
	switch strings.ToLower(s) {
	case "x", "b", "black", "*":
		return Black, nil
	case "o", "w", "white":
		return White, nil
	}
	return NoColor, fmt.Errorf("%w: bad side to move %q", ErrInvalidPosition, s)
}

// ParseColor parses a side-to-move token ("x", "black", "o", "white").
func ParseColor(s string) (Color, error) {
	return parseColor(s)
}

// Text returns the position in the form accepted by ParsePosition.
func (p Position) Text() string {
	var sb strings.Builder
	sb.Grow(66)
	for sq := Square(0); sq < 64; sq++ {
		switch p.CellAt(sq) {
		case CellBlack:
			sb.WriteByte('X')
		case CellWhite:
			sb.WriteByte('O')
		default:
			sb.WriteByte('-')
		}
	}
	sb.WriteByte(' ')
	sb.WriteByte(p.SideToMove.Symbol())
	return sb.String()
}
