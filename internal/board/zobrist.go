package board

// Zobrist hash keys for position fingerprinting.
// Uses PRNG with fixed seed for reproducibility.
var (
	zobristDisc       [2][64]uint64 // [Color][Square]
	zobristSideToMove uint64        // XOR when white to move
)

func init() {
	initZobrist()
}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0x0DD5EED0F0E11015)

	for c := Black; c <= White; c++ {
		for sq := Square(0); sq < 64; sq++ {
			zobristDisc[c][sq] = rng.next()
		}
	}

	zobristSideToMove = rng.next()
}

// computeHash builds the fingerprint from scratch.
func (p Position) computeHash() uint64 {
	var h uint64
	for c := Black; c <= White; c++ {
		bb := p.Discs[c]
		for bb != 0 {
			h ^= zobristDisc[c][bb.PopLSB()]
		}
	}
	if p.SideToMove == White {
		h ^= zobristSideToMove
	}
	return h
}
