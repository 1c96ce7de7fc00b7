// Package engine provides the public API for the checkers engine.
package engine

import (
	"errors"
	"fmt"
)

// BoardSize is the number of rows and columns on the board.
const BoardSize = 8

var (
	ErrOffBoard     = errors.New("position off board")
	ErrLightSquare  = errors.New("piece on light square")
	ErrIllegalMove  = errors.New("illegal move")
	ErrUnknownPiece = errors.New("unknown piece label")
	ErrUnknownSide  = errors.New("unknown side")
)

// Side is one of the two players.
type Side uint8

const (
	Red Side = iota
	Black
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == Red {
		return Black
	}
	return Red
}

// Forward is the row delta of a man's simple step.
// Red moves toward row 0, Black toward row 7.
func (s Side) Forward() int {
	if s == Red {
		return -1
	}
	return 1
}

// PromotionRow is the row on which a man of this side becomes a king.
func (s Side) PromotionRow() int {
	if s == Red {
		return 0
	}
	return BoardSize - 1
}

func (s Side) String() string {
	if s == Red {
		return "R"
	}
	return "B"
}

// ParseSide accepts "R"/"B" (and the long names).
func ParseSide(s string) (Side, error) {
	switch s {
	case "R", "r", "red", "Red":
		return Red, nil
	case "B", "b", "black", "Black":
		return Black, nil
	}
	return Red, fmt.Errorf("%w: %q", ErrUnknownSide, s)
}

// Piece is the content of a single cell.
type Piece uint8

const (
	Empty Piece = iota
	RedMan
	RedKing
	BlackMan
	BlackKing
)

// Side returns the owner of the piece. Only meaningful for non-empty cells.
func (p Piece) Side() Side {
	if p == BlackMan || p == BlackKing {
		return Black
	}
	return Red
}

// IsKing reports whether the piece has been promoted.
func (p Piece) IsKing() bool {
	return p == RedKing || p == BlackKing
}

// Owned reports whether the piece belongs to side s.
func (p Piece) Owned(s Side) bool {
	return p != Empty && p.Side() == s
}

// Promoted returns the king of the same side.
func (p Piece) Promoted() Piece {
	switch p {
	case RedMan:
		return RedKing
	case BlackMan:
		return BlackKing
	}
	return p
}

// Demoted returns the man of the same side.
func (p Piece) Demoted() Piece {
	switch p {
	case RedKing:
		return RedMan
	case BlackKing:
		return BlackMan
	}
	return p
}

// Label returns the transport label of the piece: "", "R", "RK", "B" or "BK".
func (p Piece) Label() string {
	switch p {
	case RedMan:
		return "R"
	case RedKing:
		return "RK"
	case BlackMan:
		return "B"
	case BlackKing:
		return "BK"
	}
	return ""
}

// ParsePiece is the inverse of Label. A single space is accepted as empty.
func ParsePiece(label string) (Piece, error) {
	switch label {
	case "", " ", ".":
		return Empty, nil
	case "R":
		return RedMan, nil
	case "RK", "RQ":
		return RedKing, nil
	case "B":
		return BlackMan, nil
	case "BK", "BQ":
		return BlackKing, nil
	}
	return Empty, fmt.Errorf("%w: %q", ErrUnknownPiece, label)
}

// Pos is a cell coordinate. Row 0 is Black's home row.
type Pos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// OnBoard reports whether the position lies within the 8x8 grid.
func (p Pos) OnBoard() bool {
	return p.Row >= 0 && p.Row < BoardSize && p.Col >= 0 && p.Col < BoardSize
}

// Dark reports whether the position is a playable square.
func (p Pos) Dark() bool {
	return (p.Row+p.Col)%2 == 1
}

// Square returns the standard checkers square number (1-32) of a dark
// square, counted row-major from row 0. Returns 0 for light or off-board cells.
func (p Pos) Square() int {
	if !p.OnBoard() || !p.Dark() {
		return 0
	}
	return p.Row*4 + p.Col/2 + 1
}

// SquarePos is the inverse of Pos.Square.
func SquarePos(n int) (Pos, bool) {
	if n < 1 || n > 32 {
		return Pos{}, false
	}
	row := (n - 1) / 4
	col := 2 * ((n - 1) % 4)
	if row%2 == 0 {
		col++
	}
	return Pos{Row: row, Col: col}, true
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Move is a single step or jump of one piece.
type Move struct {
	From Pos `json:"from"`
	To   Pos `json:"to"`
}

// IsCapture reports whether the move has jump geometry.
func (m Move) IsCapture() bool {
	return abs(m.To.Row-m.From.Row) == 2 && abs(m.To.Col-m.From.Col) == 2
}

// Mid returns the jumped-over cell of a capture.
func (m Move) Mid() Pos {
	return Pos{Row: (m.From.Row + m.To.Row) / 2, Col: (m.From.Col + m.To.Col) / 2}
}

// String formats the move in square notation, "11-15" for steps and
// "15x22" for captures.
func (m Move) String() string {
	sep := "-"
	if m.IsCapture() {
		sep = "x"
	}
	return fmt.Sprintf("%d%s%d", m.From.Square(), sep, m.To.Square())
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// diagonals lists the four unit directions in a fixed order; move
// generation order, and therefore search tie-breaking, depends on it.
var diagonals = [4]Pos{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
