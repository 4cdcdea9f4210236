package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/hailam/othelloplay/internal/board"
	"github.com/hailam/othelloplay/internal/engine"
)

// Handlers holds the HTTP handlers and the analyzer pool.
type Handlers struct {
	version string
	pool    *WorkerPool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(version string, pool *WorkerPool) *Handlers {
	return &Handlers{
		version: version,
		pool:    pool,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write-response-failed")
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, msg string, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: msg,
		Code:  code,
	})
}

// errorCode maps request errors to a status and machine-readable code.
func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, engine.ErrUnknownTier):
		return http.StatusBadRequest, "unknown_tier"
	case errors.Is(err, board.ErrInvalidPosition):
		return http.StatusBadRequest, "invalid_position"
	case errors.Is(err, engine.ErrNonFiniteScore):
		return http.StatusInternalServerError, "non_finite_score"
	default:
		return http.StatusBadRequest, "bad_request"
	}
}

// Health reports server status.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	tiers := make([]string, 0, len(engine.Tiers))
	for _, t := range engine.Tiers {
		tiers = append(tiers, t.String())
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
		Tiers:   tiers,
		Pool:    h.pool.Stats(),
	})
}

// Analyze runs a search and returns the best move.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), "invalid_json")
		return
	}

	tier, ereq, err := req.parse()
	if err != nil {
		status, code := errorCode(err)
		writeError(w, status, err.Error(), code)
		return
	}

	res, err := h.pool.Analyze(r.Context(), tier, ereq)
	if err != nil {
		if r.Context().Err() != nil {
			writeError(w, http.StatusServiceUnavailable, "request cancelled", "cancelled")
			return
		}
		status, code := errorCode(err)
		writeError(w, status, err.Error(), code)
		return
	}

	resp, err := newAnalyzeResponse(ereq.Position, res)
	if err != nil {
		status, code := errorCode(err)
		writeError(w, status, err.Error(), code)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Evaluate returns the static evaluation of a position.
func (h *Handlers) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), "invalid_json")
		return
	}

	pos, _, err := req.Position()
	if err != nil {
		status, code := errorCode(err)
		writeError(w, status, err.Error(), code)
		return
	}

	score := engine.Evaluate(pos, board.Black)
	winProb, err := engine.WinProbability(float64(score))
	if err != nil {
		status, code := errorCode(err)
		writeError(w, status, err.Error(), code)
		return
	}
	stones, err := engine.StoneEquivalent(float64(score))
	if err != nil {
		status, code := errorCode(err)
		writeError(w, status, err.Error(), code)
		return
	}

	writeJSON(w, http.StatusOK, EvaluateResponse{
		Position:        pos.Text(),
		SideToMove:      pos.SideToMove,
		Evaluation:      score,
		WinProbability:  winProb,
		StoneEquivalent: stones,
		LegalMoves:      pos.GenerateLegalMoves().Slice(),
		Summary:         engine.Summarize(pos, board.Black),
	})
}
