package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/hailam/othelloplay/internal/board"
	"github.com/hailam/othelloplay/internal/engine"
)

// PositionRequest identifies a position: a board in text form (start
// position when empty) followed by moves.
type PositionRequest struct {
	Board string   `json:"board,omitempty"`
	Moves []string `json:"moves,omitempty"`
}

// AnalyzeRequest is the body of POST /api/analyze and the payload of a
// WebSocket "analyze" message.
type AnalyzeRequest struct {
	PositionRequest
	Tier        string `json:"tier,omitempty"` // Defaults to "full"
	Depth       int    `json:"depth,omitempty"`
	TimeLimitMs int    `json:"timeLimitMs,omitempty"`
	MoveCount   int    `json:"moveCount,omitempty"`
}

// AnalyzeResponse is the result of an analysis.
type AnalyzeResponse struct {
	engine.Result
	Pass            bool                     `json:"pass"`     // The side to move must pass
	GameOver        bool                     `json:"gameOver"` // Neither side can move
	WinProbability  float64                  `json:"winProbability"`
	StoneEquivalent int                      `json:"stoneEquivalent"`
	Summary         engine.EvaluationSummary `json:"summary"`
}

// EvaluateResponse is the static evaluation of a position.
type EvaluateResponse struct {
	Position        string                   `json:"position"` // Text form
	SideToMove      board.Color              `json:"sideToMove"`
	Evaluation      int                      `json:"evaluation"` // Black-relative
	WinProbability  float64                  `json:"winProbability"`
	StoneEquivalent int                      `json:"stoneEquivalent"`
	LegalMoves      []board.Move             `json:"legalMoves"`
	Summary         engine.EvaluationSummary `json:"summary"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status  string    `json:"status"`
	Version string    `json:"version"`
	Tiers   []string  `json:"tiers"`
	Pool    PoolStats `json:"pool"`
}

// ErrorResponse is returned on failures.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Position builds the requested position.
func (r PositionRequest) Position() (board.Position, int, error) {
	pos := board.NewPosition()
	if strings.TrimSpace(r.Board) != "" {
		parsed, err := board.ParsePosition(r.Board)
		if err != nil {
			return board.Position{}, 0, err
		}
		pos = parsed
	}

	moveCount := pos.Occupied().PopCount() - 4
	for _, s := range r.Moves {
		m, err := board.ParseMove(s)
		if err != nil {
			return board.Position{}, 0, err
		}
		if !pos.IsLegal(m) {
			return board.Position{}, 0, fmt.Errorf("%w: illegal move %s", board.ErrInvalidPosition, m)
		}
		pos = pos.Apply(m)
		moveCount++
	}
	return pos, moveCount, nil
}

// parse converts the request into a tier and an engine request.
func (r AnalyzeRequest) parse() (engine.Tier, engine.Request, error) {
	tier := engine.TierFull
	if r.Tier != "" {
		t, err := engine.ParseTier(r.Tier)
		if err != nil {
			return tier, engine.Request{}, err
		}
		tier = t
	}

	pos, moveCount, err := r.Position()
	if err != nil {
		return tier, engine.Request{}, err
	}
	if r.MoveCount > 0 {
		moveCount = r.MoveCount
	}

	return tier, engine.Request{
		Position:  pos,
		Depth:     r.Depth,
		TimeLimit: time.Duration(r.TimeLimitMs) * time.Millisecond,
		MoveCount: moveCount,
	}, nil
}

// newAnalyzeResponse decorates a result with display values.
func newAnalyzeResponse(pos board.Position, res engine.Result) (AnalyzeResponse, error) {
	winProb, err := engine.WinProbability(float64(res.Evaluation))
	if err != nil {
		return AnalyzeResponse{}, err
	}
	stones, err := engine.StoneEquivalent(float64(res.Evaluation))
	if err != nil {
		return AnalyzeResponse{}, err
	}
	if engine.IsDecided(res.Evaluation) {
		stones = finalMargin(res.Evaluation)
	}
	return AnalyzeResponse{
		Result:          res,
		Pass:            pos.MustPass(),
		GameOver:        pos.IsTerminal(),
		WinProbability:  winProb,
		StoneEquivalent: stones,
		Summary:         engine.Summarize(pos, board.Black),
	}, nil
}

func finalMargin(score int) int {
	if score > 0 {
		return score - engine.WinScore
	}
	return score + engine.WinScore
}
