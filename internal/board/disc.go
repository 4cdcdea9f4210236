package board

import "strings"

// Color represents the color of a disc or player.
type Color uint8

const (
	Black Color = iota
	White
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case Black:
		return "Black"
	case White:
		return "White"
	default:
		return "NoColor"
	}
}

// Symbol returns the single-character board symbol for the color.
func (c Color) Symbol() byte {
	switch c {
	case Black:
		return 'X'
	case White:
		return 'O'
	default:
		return '-'
	}
}

// Cell is the state of one board square.
type Cell uint8

const (
	CellEmpty Cell = iota
	CellBlack
	CellWhite
)

// CellOf returns the cell state for a disc of the given color.
func CellOf(c Color) Cell {
	if c == Black {
		return CellBlack
	}
	return CellWhite
}

// MarshalText encodes the color by name.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(c.String())), nil
}

// UnmarshalText decodes a color name or symbol.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := parseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
