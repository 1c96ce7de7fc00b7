// Package api provides the HTTP/JSON API for the checkers engine.
package api

import (
	"github.com/yourusername/ckengine/pkg/engine"
	"github.com/yourusername/ckengine/pkg/session"
)

// ============================================================================
// Request Types
// ============================================================================

// CreateGameRequest is the request body for starting a game.
type CreateGameRequest struct {
	CPUSide *string `json:"cpu_side,omitempty"` // "B", "R" or "" for two players; omitted = server default
	Depth   int     `json:"depth,omitempty"`    // CPU search depth (0 = server default)
}

// MoveRequest is a player move as [row, col] pairs.
type MoveRequest struct {
	Start [2]int `json:"start"`
	End   [2]int `json:"end"`
}

// AnalyzeRequest asks for the engine's move in a stateless position. The
// position is either a position ID or a board grid plus side to move.
type AnalyzeRequest struct {
	Position string     `json:"position,omitempty"` // Position ID
	Board    [][]string `json:"board,omitempty"`    // 8x8 labels, used when Position is empty
	Turn     string     `json:"turn,omitempty"`     // Side to move for Board (default "R")
	Side     string     `json:"side,omitempty"`     // Side to search for (default: side to move)
	Depth    int        `json:"depth,omitempty"`    // Search depth (0 = engine default)
	Rank     bool       `json:"rank,omitempty"`     // Also score every legal move
}

// ============================================================================
// Response Types
// ============================================================================

// MoveJSON is a move in both coordinate and square notation.
type MoveJSON struct {
	Start    [2]int `json:"start"`
	End      [2]int `json:"end"`
	Notation string `json:"notation"` // e.g. "22-18" or "15x22"
}

// GameResponse is the full state of a game.
type GameResponse struct {
	ID               string     `json:"id"`
	Version          int        `json:"version"`
	Board            [][]string `json:"board"`
	CurrentPlayer    string     `json:"current_player"`
	ContinueTurn     bool       `json:"continue_turn"`     // a capture chain is in progress
	MandatoryCapture bool       `json:"mandatory_capture"` // the side to move must capture
	GameOver         bool       `json:"game_over"`
	Winner           *string    `json:"winner"`
	NoLegalMoves     bool       `json:"no_legal_moves"`
	Position         string     `json:"position"`
	CPUSide          string     `json:"cpu_side,omitempty"`
	Depth            int        `json:"depth,omitempty"`
	LegalMoves       []MoveJSON `json:"legal_moves"`
	History          []string   `json:"history"`
}

// MoveResponse answers a player move. Rejected moves come back with
// Valid false and a Code naming the reason.
type MoveResponse struct {
	Valid            bool          `json:"valid"`
	Code             string        `json:"code,omitempty"`
	Board            [][]string    `json:"board"`
	CurrentPlayer    string        `json:"current_player"`
	ContinueTurn     bool          `json:"continue_turn"`     // the same piece must capture again
	MandatoryCapture bool          `json:"mandatory_capture"` // rejected because a capture was required
	GameOver         bool          `json:"game_over"`
	Winner           *string       `json:"winner"`
	NoLegalMoves     bool          `json:"no_legal_moves"`
	CPUMoves         []MoveJSON    `json:"cpu_moves"`
	Game             *GameResponse `json:"game"`
}

// EngineMoveResponse lists the moves the engine played for a game.
type EngineMoveResponse struct {
	Moves []MoveJSON    `json:"moves"`
	Game  *GameResponse `json:"game"`
}

// AnalyzeResponse is the engine's choice in a position.
type AnalyzeResponse struct {
	Found      bool         `json:"found"`
	Move       *MoveJSON    `json:"move,omitempty"`
	Score      int          `json:"score"`      // search score for Side
	Evaluation int          `json:"evaluation"` // static material balance for Side
	Side       string       `json:"side"`
	Depth      int          `json:"depth"`
	Nodes      int          `json:"nodes"`
	Cached     bool         `json:"cached"`
	ElapsedMs  float64      `json:"elapsed_ms"`
	NumLegal   int          `json:"num_legal"`
	Position   string       `json:"position"`
	Ranked     []RankedMove `json:"ranked,omitempty"` // all moves, best first, when requested
}

// RankedMove is a legal move with its search score.
type RankedMove struct {
	Move  MoveJSON `json:"move"`
	Score int      `json:"score"`
}

// ErrorResponse is returned when an error occurs.
type ErrorResponse struct {
	Error   string `json:"error"`             // Error message
	Code    string `json:"code,omitempty"`    // Error code
	Details string `json:"details,omitempty"` // Additional details
}

// HealthResponse is the response for health check.
type HealthResponse struct {
	Status  string             `json:"status"`          // "ok" or "error"
	Version string             `json:"version"`         // Engine version
	Ready   bool               `json:"ready"`           // Whether the engine is available
	Games   int                `json:"games"`           // Live games
	Pool    *PoolStats         `json:"pool,omitempty"`  // Worker pool statistics
	Cache   *engine.CacheStats `json:"cache,omitempty"` // Search cache statistics
}

// Error codes
const (
	CodeInvalidJSON     = "INVALID_JSON"
	CodeGameNotFound    = "GAME_NOT_FOUND"
	CodeTooManyGames    = "TOO_MANY_GAMES"
	CodeIllegalMove     = "ILLEGAL_MOVE"
	CodeMustCapture     = "MUST_CAPTURE"
	CodeNotYourTurn     = "NOT_YOUR_TURN"
	CodeGameOver        = "GAME_OVER"
	CodeNoMove          = "NO_MOVE"
	CodeInvalidPosition = "INVALID_POSITION"
	CodeServerBusy      = "SERVER_BUSY"
)

// ============================================================================
// Helper Functions
// ============================================================================

// MoveToJSON converts an engine move.
func MoveToJSON(m engine.Move) MoveJSON {
	return MoveJSON{
		Start:    [2]int{m.From.Row, m.From.Col},
		End:      [2]int{m.To.Row, m.To.Col},
		Notation: m.String(),
	}
}

func movesToJSON(moves []engine.Move) []MoveJSON {
	out := make([]MoveJSON, len(moves))
	for i, m := range moves {
		out[i] = MoveToJSON(m)
	}
	return out
}

func winnerLabel(st session.Snapshot) *string {
	if !st.GameOver {
		return nil
	}
	w := st.Winner.String()
	return &w
}

// GameToResponse converts a game snapshot.
func GameToResponse(st session.Snapshot) *GameResponse {
	b := st.Board
	turn := b.Turn()
	_, chaining := b.MultiCapture()

	resp := &GameResponse{
		ID:               st.ID,
		Version:          st.Version,
		Board:            b.Grid(),
		CurrentPlayer:    turn.String(),
		ContinueTurn:     chaining && !st.GameOver,
		MandatoryCapture: !st.GameOver && b.MustCapture(turn),
		GameOver:         st.GameOver,
		Winner:           winnerLabel(st),
		NoLegalMoves:     st.NoLegalMoves,
		Position:         b.PositionID(),
		Depth:            st.Settings.Depth,
		LegalMoves:       []MoveJSON{},
		History:          make([]string, len(st.History)),
	}
	if st.Settings.CPU {
		resp.CPUSide = st.Settings.CPUSide.String()
	}
	if !st.GameOver {
		resp.LegalMoves = movesToJSON(b.PossibleMoves(turn))
	}
	for i, m := range st.History {
		resp.History[i] = m.String()
	}
	return resp
}

// OutcomeToResponse converts the result of a player move.
func OutcomeToResponse(out session.Outcome) *MoveResponse {
	st := out.State
	res := out.Result
	resp := &MoveResponse{
		Valid:            res.Accepted,
		Board:            st.Board.Grid(),
		CurrentPlayer:    st.Board.Turn().String(),
		ContinueTurn:     res.CapturePending && !st.GameOver,
		MandatoryCapture: res.MandatoryCaptureViolation,
		GameOver:         st.GameOver,
		Winner:           winnerLabel(st),
		NoLegalMoves:     st.NoLegalMoves,
		CPUMoves:         movesToJSON(out.CPUMoves),
		Game:             GameToResponse(st),
	}
	switch {
	case res.Accepted:
	case res.MandatoryCaptureViolation:
		resp.Code = CodeMustCapture
	case res.NotYourTurn:
		resp.Code = CodeNotYourTurn
	default:
		resp.Code = CodeIllegalMove
	}
	return resp
}
