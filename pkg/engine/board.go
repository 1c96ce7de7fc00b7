package engine

import (
	"fmt"
	"strings"
)

// Board is the full game state: the grid plus whose turn it is and whether
// that side is in the middle of a capture chain.
//
// Board has no pointer fields, so two boards compare equal with == exactly
// when they are the same position.
type Board struct {
	cells    [BoardSize][BoardSize]Piece
	turn     Side
	chaining bool // a capture chain is in progress for turn
	chain    Pos  // the piece that must continue the chain
}

// NewBoard returns the standard starting position with Red to move.
func NewBoard() *Board {
	b := &Board{turn: Red}
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			p := Pos{row, col}
			if !p.Dark() {
				continue
			}
			switch {
			case row < 3:
				b.cells[row][col] = BlackMan
			case row > 4:
				b.cells[row][col] = RedMan
			}
		}
	}
	return b
}

// EmptyBoard returns a board with no pieces and the given side to move.
func EmptyBoard(turn Side) *Board {
	return &Board{turn: turn}
}

// FromGrid builds a board from transport labels. The grid must be 8x8 and
// pieces may only sit on dark squares.
func FromGrid(grid [][]string, turn Side) (*Board, error) {
	if len(grid) != BoardSize {
		return nil, fmt.Errorf("grid has %d rows, want %d", len(grid), BoardSize)
	}
	b := EmptyBoard(turn)
	for row, cells := range grid {
		if len(cells) != BoardSize {
			return nil, fmt.Errorf("grid row %d has %d cells, want %d", row, len(cells), BoardSize)
		}
		for col, label := range cells {
			p, err := ParsePiece(label)
			if err != nil {
				return nil, fmt.Errorf("cell (%d,%d): %w", row, col, err)
			}
			b.cells[row][col] = p
		}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks that no piece occupies a light square.
func (b *Board) Validate() error {
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			p := Pos{row, col}
			if b.cells[row][col] != Empty && !p.Dark() {
				return fmt.Errorf("%w: %v", ErrLightSquare, p)
			}
		}
	}
	if b.chaining && !b.At(b.chain).Owned(b.turn) {
		return fmt.Errorf("chaining piece at %v does not belong to %v", b.chain, b.turn)
	}
	return nil
}

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	c := *b
	return &c
}

// At returns the piece at p, or Empty if p is off the board.
func (b *Board) At(p Pos) Piece {
	if !p.OnBoard() {
		return Empty
	}
	return b.cells[p.Row][p.Col]
}

// Set places a piece. It is meant for building test and analysis positions
// and refuses off-board or light-square placements.
func (b *Board) Set(p Pos, piece Piece) error {
	if !p.OnBoard() {
		return fmt.Errorf("%w: %v", ErrOffBoard, p)
	}
	if piece != Empty && !p.Dark() {
		return fmt.Errorf("%w: %v", ErrLightSquare, p)
	}
	b.cells[p.Row][p.Col] = piece
	return nil
}

// Turn returns the side to move.
func (b *Board) Turn() Side {
	return b.turn
}

// SetTurn sets the side to move and cancels any capture chain.
func (b *Board) SetTurn(s Side) {
	b.turn = s
	b.chaining = false
	b.chain = Pos{}
}

// MultiCapture reports whether the side to move is in the middle of a
// capture chain, and which piece must continue it.
func (b *Board) MultiCapture() (Pos, bool) {
	return b.chain, b.chaining
}

// SetChain marks p as the piece continuing a capture chain for the side to
// move. Used when restoring a position from its id.
func (b *Board) SetChain(p Pos) error {
	if !b.At(p).Owned(b.turn) {
		return fmt.Errorf("no %v piece at %v", b.turn, p)
	}
	b.chaining = true
	b.chain = p
	return nil
}

// Count returns the number of men and kings side owns.
func (b *Board) Count(side Side) (men, kings int) {
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			p := b.cells[row][col]
			if !p.Owned(side) {
				continue
			}
			if p.IsKing() {
				kings++
			} else {
				men++
			}
		}
	}
	return men, kings
}

// HasPieces reports whether side has anything left on the board.
func (b *Board) HasPieces(side Side) bool {
	men, kings := b.Count(side)
	return men+kings > 0
}

// Grid returns the transport form of the board: 8 rows of 8 labels.
func (b *Board) Grid() [][]string {
	grid := make([][]string, BoardSize)
	for row := range grid {
		grid[row] = make([]string, BoardSize)
		for col := range grid[row] {
			grid[row][col] = b.cells[row][col].Label()
		}
	}
	return grid
}

// String renders the board for terminals and test failures.
func (b *Board) String() string {
	var sb strings.Builder
	sb.WriteString("   0 1 2 3 4 5 6 7\n")
	for row := 0; row < BoardSize; row++ {
		fmt.Fprintf(&sb, "%d ", row)
		for col := 0; col < BoardSize; col++ {
			c := "."
			switch b.cells[row][col] {
			case RedMan:
				c = "r"
			case RedKing:
				c = "R"
			case BlackMan:
				c = "b"
			case BlackKing:
				c = "B"
			default:
				if !(Pos{row, col}).Dark() {
					c = " "
				}
			}
			sb.WriteString(" ")
			sb.WriteString(c)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "turn: %v", b.turn)
	if b.chaining {
		fmt.Fprintf(&sb, " (continue capture from %v)", b.chain)
	}
	return sb.String()
}
