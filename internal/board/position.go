package board

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPosition is returned when a position fails validation.
var ErrInvalidPosition = errors.New("invalid position")

// Position represents a complete Othello position.
//
// Position is a small value type. Apply returns a derived copy, so search
// frames never share a mutable board across sibling branches.
type Position struct {
	// Discs per color
	Discs [2]Bitboard

	// Game state
	SideToMove Color

	// Zobrist hash for transposition table
	Hash uint64
}

// NewPosition creates the standard starting position with Black to move.
func NewPosition() Position {
	p := Position{SideToMove: Black}
	p.Discs[White] = SquareBB(NewSquare(3, 3)) | SquareBB(NewSquare(4, 4))
	p.Discs[Black] = SquareBB(NewSquare(3, 4)) | SquareBB(NewSquare(4, 3))
	p.Hash = p.computeHash()
	return p
}

// NewPositionFromCells builds a position from a row-major grid.
func NewPositionFromCells(cells [8][8]Cell, toMove Color) (Position, error) {
	p := Position{SideToMove: toMove}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			sq := NewSquare(row, col)
			switch cells[row][col] {
			case CellBlack:
				p.Discs[Black] |= SquareBB(sq)
			case CellWhite:
				p.Discs[White] |= SquareBB(sq)
			case CellEmpty:
			default:
				return Position{}, fmt.Errorf("%w: bad cell at %s", ErrInvalidPosition, sq)
			}
		}
	}
	p.Hash = p.computeHash()
	return p, p.Validate()
}

// Occupied returns all occupied squares.
func (p Position) Occupied() Bitboard {
	return p.Discs[Black] | p.Discs[White]
}

// EmptySquares returns all empty squares.
func (p Position) EmptySquares() Bitboard {
	return ^p.Occupied()
}

// Empties returns the number of empty squares.
func (p Position) Empties() int {
	return 64 - p.Occupied().PopCount()
}

// Count returns the number of discs of the given color.
func (p Position) Count(c Color) int {
	return p.Discs[c].PopCount()
}

// DiscDiff returns black discs minus white discs.
func (p Position) DiscDiff() int {
	return p.Count(Black) - p.Count(White)
}

// CellAt returns the state of the given square.
func (p Position) CellAt(sq Square) Cell {
	switch {
	case p.Discs[Black].IsSet(sq):
		return CellBlack
	case p.Discs[White].IsSet(sq):
		return CellWhite
	default:
		return CellEmpty
	}
}

// Validate checks the position for internal consistency.
func (p Position) Validate() error {
	if p.SideToMove > White {
		return fmt.Errorf("%w: side to move %d", ErrInvalidPosition, p.SideToMove)
	}
	if p.Discs[Black]&p.Discs[White] != 0 {
		return fmt.Errorf("%w: overlapping discs", ErrInvalidPosition)
	}
	if p.Hash != p.computeHash() {
		return fmt.Errorf("%w: stale hash", ErrInvalidPosition)
	}
	return nil
}

// String returns a human-readable board with coordinates.
func (p Position) String() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")
	for row := 0; row < 8; row++ {
		sb.WriteByte(byte('1' + row))
		for col := 0; col < 8; col++ {
			sb.WriteByte(' ')
			switch p.CellAt(NewSquare(row, col)) {
			case CellBlack:
				sb.WriteByte('X')
			case CellWhite:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "%s to move (X=%d O=%d)\n", p.SideToMove, p.Count(Black), p.Count(White))
	return sb.String()
}
