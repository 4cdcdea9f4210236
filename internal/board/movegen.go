package board

import "fmt"

// placements returns every empty square where a disc of own flips at
// least one contiguous run of opp discs ending on an own disc.
func placements(own, opp Bitboard) Bitboard {
	empty := ^(own | opp)
	var moves Bitboard

	for _, d := range directions {
		// A run is at most six discs long on an 8x8 board.
		x := own.shift(d) & opp
		x |= x.shift(d) & opp
		x |= x.shift(d) & opp
		x |= x.shift(d) & opp
		x |= x.shift(d) & opp
		x |= x.shift(d) & opp
		moves |= x.shift(d) & empty
	}

	return moves
}

// flips returns the discs captured by own placing on sq.
func flips(own, opp Bitboard, sq Square) Bitboard {
	var flipped Bitboard
	origin := SquareBB(sq)

	for _, d := range directions {
		var run Bitboard
		x := origin.shift(d)
		for x&opp != 0 {
			run |= x
			x = x.shift(d)
		}
		if x&own != 0 {
			flipped |= run
		}
	}

	return flipped
}

// LegalMoves returns the placement squares available to the side to move.
func (p Position) LegalMoves() Bitboard {
	us := p.SideToMove
	return placements(p.Discs[us], p.Discs[us.Other()])
}

// OpponentMoves returns the placement squares available to the other side.
func (p Position) OpponentMoves() Bitboard {
	us := p.SideToMove
	return placements(p.Discs[us.Other()], p.Discs[us])
}

// Mobility returns the number of placements available to color c.
func (p Position) Mobility(c Color) int {
	return placements(p.Discs[c], p.Discs[c.Other()]).PopCount()
}

// GenerateMoves returns the legal placements for the side to move in
// ascending square order. The list is empty when the side must pass.
func (p Position) GenerateMoves() *MoveList {
	ml := &MoveList{}
	bb := p.LegalMoves()
	for bb != 0 {
		ml.Add(MoveAt(bb.PopLSB()))
	}
	return ml
}

// GenerateLegalMoves is like GenerateMoves but yields a single Pass when
// the side to move has no placement and the game is not over.
func (p Position) GenerateLegalMoves() *MoveList {
	ml := p.GenerateMoves()
	if ml.Len() == 0 && p.OpponentMoves() != 0 {
		ml.Add(Pass)
	}
	return ml
}

// Flips returns the discs that placing on sq would flip for the side to move.
func (p Position) Flips(sq Square) Bitboard {
	if !sq.Valid() || p.Occupied().IsSet(sq) {
		return 0
	}
	us := p.SideToMove
	return flips(p.Discs[us], p.Discs[us.Other()], sq)
}

// IsLegal reports whether m can be applied to the position.
func (p Position) IsLegal(m Move) bool {
	if m == Pass {
		return p.LegalMoves() == 0 && p.OpponentMoves() != 0
	}
	if !m.IsPlacement() {
		return false
	}
	return p.Flips(m.Square()) != 0
}

// MustPass returns true if the side to move has no placement but the
// opponent does.
func (p Position) MustPass() bool {
	return p.LegalMoves() == 0 && p.OpponentMoves() != 0
}

// IsTerminal returns true when neither side has a legal placement.
func (p Position) IsTerminal() bool {
	return p.LegalMoves() == 0 && p.OpponentMoves() == 0
}

// Apply returns the position after m is played.
// Applying an illegal move is a caller bug and panics.
func (p Position) Apply(m Move) Position {
	us := p.SideToMove
	them := us.Other()

	if m == Pass {
		if p.LegalMoves() != 0 {
			panic(fmt.Sprintf("board: pass applied while %s has placements", us))
		}
		p.SideToMove = them
		p.Hash ^= zobristSideToMove
		return p
	}

	if !m.IsPlacement() {
		panic(fmt.Sprintf("board: apply of invalid move %d", m))
	}

	sq := m.Square()
	if p.Occupied().IsSet(sq) {
		panic(fmt.Sprintf("board: apply of %s on occupied square", m))
	}

	flipped := flips(p.Discs[us], p.Discs[them], sq)
	if flipped == 0 {
		panic(fmt.Sprintf("board: apply of %s flips nothing for %s", m, us))
	}

	p.Discs[us] |= flipped | SquareBB(sq)
	p.Discs[them] &^= flipped

	p.Hash ^= zobristDisc[us][sq]
	for flipped != 0 {
		s := flipped.PopLSB()
		p.Hash ^= zobristDisc[us][s] ^ zobristDisc[them][s]
	}
	p.SideToMove = them
	p.Hash ^= zobristSideToMove

	return p
}

// Perft counts leaf nodes at the given depth. A forced pass counts as one
// move; terminal positions count as a single leaf.
func Perft(p Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := p.GenerateLegalMoves()
	if moves.Len() == 0 {
		return 1
	}
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		nodes += Perft(p.Apply(moves.Get(i)), depth-1)
	}
	return nodes
}
