// Package record provides game record import/export for checkers games in
// PDN (Portable Draughts Notation).
package record

import (
	"fmt"
	"strings"

	"github.com/yourusername/ckengine/pkg/engine"
)

// GameType is the PDN game type number of 8x8 checkers.
const GameType = "21"

// Result is the outcome recorded for a game.
type Result int

const (
	ResultUnfinished Result = iota // Game still in progress ("*")
	ResultRedWins                  // "1-0"
	ResultBlackWins                // "0-1"
	ResultDraw                     // "1/2-1/2", e.g. adjudicated at a ply limit
)

var resultTokens = map[Result]string{
	ResultUnfinished: "*",
	ResultRedWins:    "1-0",
	ResultBlackWins:  "0-1",
	ResultDraw:       "1/2-1/2",
}

func (r Result) String() string {
	if s, ok := resultTokens[r]; ok {
		return s
	}
	return "*"
}

// ParseResult converts a PDN result token.
func ParseResult(s string) (Result, error) {
	for r, tok := range resultTokens {
		if tok == s {
			return r, nil
		}
	}
	return ResultUnfinished, fmt.Errorf("unknown result %q", s)
}

// WinnerResult is the result for a finished game won by side.
func WinnerResult(side engine.Side) Result {
	if side == engine.Black {
		return ResultBlackWins
	}
	return ResultRedWins
}

// Game is a single recorded game.
type Game struct {
	Event    string
	Site     string
	Date     string // YYYY.MM.DD
	Red      string // Name of the Red player
	Black    string // Name of the Black player
	Result   Result
	Position string        // Position ID of the start, empty for the standard layout
	Moves    []engine.Move // Single steps and jumps in the order played
}

// NewGame creates an empty game from the standard starting position.
func NewGame(red, black string) *Game {
	return &Game{
		Red:    red,
		Black:  black,
		Result: ResultUnfinished,
		Moves:  make([]engine.Move, 0),
	}
}

// AddMove appends a step or a single jump.
func (g *Game) AddMove(m engine.Move) {
	g.Moves = append(g.Moves, m)
}

// Start returns the initial board of the game.
func (g *Game) Start() (*engine.Board, error) {
	if g.Position == "" {
		return engine.NewBoard(), nil
	}
	return engine.BoardFromPositionID(g.Position)
}

// Turn is everything one side plays before the move passes: a step, a
// single capture or a chain of captures by the same piece.
type Turn struct {
	Side  engine.Side
	Moves []engine.Move
}

// Capture reports whether the turn consists of jumps.
func (t Turn) Capture() bool {
	return len(t.Moves) > 0 && t.Moves[0].IsCapture()
}

// String formats the turn in PDN, e.g. "22-18" or "9x18x27" for a chain.
func (t Turn) String() string {
	if len(t.Moves) == 0 {
		return ""
	}
	sep := "-"
	if t.Capture() {
		sep = "x"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d", t.Moves[0].From.Square())
	for _, m := range t.Moves {
		fmt.Fprintf(&sb, "%s%d", sep, m.To.Square())
	}
	return sb.String()
}

// Turns replays the game and groups its moves by turn. It fails on the
// first move the rules reject, which makes it a validity check as well.
func (g *Game) Turns() ([]Turn, *engine.Board, error) {
	b, err := g.Start()
	if err != nil {
		return nil, nil, err
	}

	var turns []Turn
	var cur *Turn
	for i, m := range g.Moves {
		side := b.Turn()
		res := b.ApplyPlayerMove(m.From, m.To)
		if !res.Accepted {
			return nil, nil, fmt.Errorf("move %d (%s) by %s: %w", i+1, m, side, engine.ErrIllegalMove)
		}
		if cur == nil {
			cur = &Turn{Side: side}
		}
		cur.Moves = append(cur.Moves, m)
		if !res.CapturePending {
			turns = append(turns, *cur)
			cur = nil
		}
	}
	if cur != nil {
		turns = append(turns, *cur)
	}
	return turns, b, nil
}

// Replay plays the game and returns the final board.
func (g *Game) Replay() (*engine.Board, error) {
	_, b, err := g.Turns()
	return b, err
}

// FromSelfPlay converts a self-play game. The record must have been played
// with KeepMoveList set.
func FromSelfPlay(rec engine.GameRecord, red, black string) *Game {
	g := NewGame(red, black)
	g.Moves = append(g.Moves, rec.Moves...)
	switch {
	case rec.Decided:
		g.Result = WinnerResult(rec.Winner)
	default:
		g.Result = ResultDraw
	}
	return g
}
