package engine

import (
	"math"

	"github.com/hailam/othelloplay/internal/board"
)

// Score constants
const (
	Infinity     = 30000
	WinScore     = 20000 // Base of a decided game; the disc margin is added on top
	MaxHeuristic = 10000 // Heuristic scores are clamped to stay below WinScore
)

// Evaluation weights
const (
	mobilityWeight = 8
	frontierWeight = 4
	cornerWeight   = 40
	parityEmpties  = 16 // Disc count starts to matter at this many empties
)

// squareWeights is a static corner/edge table indexed by square.
var squareWeights = [64]int{
	120, -20, 20, 5, 5, 20, -20, 120,
	-20, -40, -5, -5, -5, -5, -40, -20,
	20, -5, 15, 3, 3, 15, -5, 20,
	5, -5, 3, 3, 3, 3, -5, 5,
	5, -5, 3, 3, 3, 3, -5, 5,
	20, -5, 15, 3, 3, 15, -5, 20,
	-20, -40, -5, -5, -5, -5, -40, -20,
	120, -20, 20, 5, 5, 20, -20, 120,
}

// xSquares maps each corner to its diagonal neighbour.
var xSquares = [4][2]board.Square{
	{0, 9}, {7, 14}, {56, 49}, {63, 54},
}

// TerminalScore converts a final disc margin into a decided-game score.
// Any win outranks every heuristic score, and larger margins rank higher.
func TerminalScore(discDiff int) int {
	switch {
	case discDiff > 0:
		return WinScore + discDiff
	case discDiff < 0:
		return -WinScore + discDiff
	default:
		return 0
	}
}

// IsDecided returns true if the score comes from a finished game.
func IsDecided(score int) bool {
	return score >= WinScore || score <= -WinScore
}

// Evaluate returns the static evaluation from the given perspective.
// Positive favours perspective. Evaluate(p, Black) == -Evaluate(p, White).
func Evaluate(pos board.Position, perspective board.Color) int {
	score := evaluateBlack(pos)
	if perspective == board.White {
		return -score
	}
	return score
}

// evaluateBlack scores the position from Black's point of view.
func evaluateBlack(pos board.Position) int {
	mobBlack := pos.Mobility(board.Black)
	mobWhite := pos.Mobility(board.White)

	if mobBlack == 0 && mobWhite == 0 {
		return TerminalScore(pos.DiscDiff())
	}

	black := pos.Discs[board.Black]
	white := pos.Discs[board.White]

	score := positional(black) - positional(white)

	// X-squares stop being a liability once the corner is taken
	for _, xs := range xSquares {
		corner, x := xs[0], xs[1]
		if pos.CellAt(corner) == board.CellEmpty {
			continue
		}
		switch pos.CellAt(x) {
		case board.CellBlack:
			score -= squareWeights[x]
		case board.CellWhite:
			score += squareWeights[x]
		}
	}

	score += cornerWeight * ((black & board.Corners).PopCount() - (white & board.Corners).PopCount())
	score += mobilityWeight * (mobBlack - mobWhite)

	// Frontier discs give the opponent moves later
	frontier := pos.EmptySquares().Neighbors()
	score -= frontierWeight * ((black & frontier).PopCount() - (white & frontier).PopCount())

	if empties := pos.Empties(); empties <= parityEmpties {
		score += (parityEmpties - empties + 1) * pos.DiscDiff()
	}

	if score > MaxHeuristic {
		score = MaxHeuristic
	} else if score < -MaxHeuristic {
		score = -MaxHeuristic
	}

	return score
}

func positional(bb board.Bitboard) int {
	sum := 0
	for bb != 0 {
		sum += squareWeights[bb.PopLSB()]
	}
	return sum
}

// StaticMoveScore is the cheap positional tie-break used by move ordering:
// the square weight of the placement, with X- and C-squares next to an
// occupied corner treated as neutral.
func StaticMoveScore(pos board.Position, m board.Move) int {
	if !m.IsPlacement() {
		return 0
	}
	sq := m.Square()
	w := squareWeights[sq]
	if w < 0 {
		for _, xs := range xSquares {
			corner := xs[0]
			if pos.CellAt(corner) != board.CellEmpty && adjacent(corner, sq) {
				return 0
			}
		}
	}
	return w
}

func adjacent(a, b board.Square) bool {
	dr := a.Row() - b.Row()
	dc := a.Col() - b.Col()
	return dr >= -1 && dr <= 1 && dc >= -1 && dc <= 1 && a != b
}

// EvaluationSummary describes a position for display.
type EvaluationSummary struct {
	Perspective board.Color `json:"perspective"`
	StoneDiff   int         `json:"stoneDiff"`  // Perspective discs minus opponent discs
	Normalized  float64     `json:"normalized"` // In [-64, 64]
}

// Summarize builds an EvaluationSummary from the given perspective.
func Summarize(pos board.Position, perspective board.Color) EvaluationSummary {
	score := Evaluate(pos, perspective)
	diff := pos.Count(perspective) - pos.Count(perspective.Other())

	normalized := float64(diff)
	if !IsDecided(score) {
		normalized = 64 * math.Tanh(float64(score)/ScoreScale)
	}

	return EvaluationSummary{
		Perspective: perspective,
		StoneDiff:   diff,
		Normalized:  normalized,
	}
}
