package board

import (
	"math/bits"
	"strings"
)

// Bitboard represents a 64-bit board where each bit corresponds to a square.
// Bit 0 = a1 (top-left), bit 7 = h1, bit 56 = a8, bit 63 = h8.
type Bitboard uint64

// Column masks
const (
	ColA Bitboard = 0x0101010101010101
	ColH Bitboard = 0x8080808080808080
)

// Special masks
const (
	Empty    Bitboard = 0
	Universe Bitboard = 0xFFFFFFFFFFFFFFFF

	NotColA Bitboard = ^ColA
	NotColH Bitboard = ^ColH

	Corners Bitboard = 0x8100000000000081
	Edges   Bitboard = 0xFF818181818181FF
)

// SquareBB returns a bitboard with only the given square set.
func SquareBB(sq Square) Bitboard {
	return 1 << sq
}

// IsSet returns true if the bit at the given square is set.
func (b Bitboard) IsSet(sq Square) bool {
	return b&(1<<sq) != 0
}

// PopCount returns the number of set bits (population count).
func (b Bitboard) PopCount() int {
	return bits.OnesCount64(uint64(b))
}

// LSB returns the least significant bit (lowest square index).
func (b Bitboard) LSB() Square {
	if b == 0 {
		return NoSquare
	}
	return Square(bits.TrailingZeros64(uint64(b)))
}

// PopLSB removes and returns the least significant bit.
func (b *Bitboard) PopLSB() Square {
	sq := b.LSB()
	*b &= *b - 1
	return sq
}

// direction is one of the eight compass shifts used for flip and move generation.
type direction uint8

const (
	dirN direction = iota
	dirS
	dirE
	dirW
	dirNE
	dirNW
	dirSE
	dirSW
)

var directions = [8]direction{dirN, dirS, dirE, dirW, dirNE, dirNW, dirSE, dirSW}

// shift moves every bit one step in direction d, dropping bits that wrap
// around a column edge.
func (b Bitboard) shift(d direction) Bitboard {
	switch d {
	case dirN:
		return b >> 8
	case dirS:
		return b << 8
	case dirE:
		return (b << 1) & NotColA
	case dirW:
		return (b >> 1) & NotColH
	case dirNE:
		return (b >> 7) & NotColA
	case dirNW:
		return (b >> 9) & NotColH
	case dirSE:
		return (b << 9) & NotColA
	case dirSW:
		return (b << 7) & NotColH
	}
	return 0
}

// String renders the bitboard as an 8x8 grid for debugging.
func (b Bitboard) String() string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if b.IsSet(NewSquare(row, col)) {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Neighbors returns every square adjacent to a set bit, excluding the set
// bits themselves.
func (b Bitboard) Neighbors() Bitboard {
	var n Bitboard
	for _, d := range directions {
		n |= b.shift(d)
	}
	return n &^ b
}
