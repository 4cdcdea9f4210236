package engine

import (
	"errors"
	"fmt"
	"math"
)

// ScoreScale is the logistic/tanh scale shared by the display adapters.
const ScoreScale = 120.0

// ErrNonFiniteScore is returned when a score is NaN or infinite.
var ErrNonFiniteScore = errors.New("non-finite score")

func checkFinite(score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return fmt.Errorf("%w: %v", ErrNonFiniteScore, score)
	}
	return nil
}

// WinProbability maps a Black-relative score to Black's win probability.
func WinProbability(score float64) (float64, error) {
	if err := checkFinite(score); err != nil {
		return 0, err
	}
	return 1 / (1 + math.Exp(-score/ScoreScale)), nil
}

// StoneEquivalent maps a Black-relative score onto the [-64, 64] disc scale.
func StoneEquivalent(score float64) (int, error) {
	if err := checkFinite(score); err != nil {
		return 0, err
	}
	v := int(math.Round(64 * math.Tanh(score/ScoreScale)))
	if v > 64 {
		v = 64
	} else if v < -64 {
		v = -64
	}
	return v, nil
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	switch {
	case score >= WinScore:
		return fmt.Sprintf("Win +%d", score-WinScore)
	case score <= -WinScore:
		return fmt.Sprintf("Loss -%d", -score-WinScore)
	case score == 0:
		return "0"
	default:
		return fmt.Sprintf("%+d", score)
	}
}
