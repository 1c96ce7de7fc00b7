package engine

import (
	"fmt"

	"github.com/yourusername/ckengine/internal/positionid"
)

func (b *Board) state() positionid.State {
	var s positionid.State
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			s.Board[row][col] = uint8(b.cells[row][col])
		}
	}
	s.Turn = uint8(b.turn)
	if b.chaining {
		s.Chaining = true
		s.Chain = uint8(positionid.SquareIndex(b.chain.Row, b.chain.Col))
	}
	return s
}

// Key returns the compact key of the position, including turn state.
func (b *Board) Key() positionid.PositionKey {
	return positionid.MakePositionKey(b.state())
}

// PositionID returns the base64 position ID of the board.
func (b *Board) PositionID() string {
	return positionid.PositionID(b.state())
}

// BoardFromPositionID decodes a position ID produced by PositionID.
func BoardFromPositionID(id string) (*Board, error) {
	s, err := positionid.FromPositionID(id)
	if err != nil {
		return nil, fmt.Errorf("invalid position ID: %w", err)
	}
	b := EmptyBoard(Side(s.Turn))
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			b.cells[row][col] = Piece(s.Board[row][col])
		}
	}
	if s.Chaining {
		row, col := positionid.SquareCoords(int(s.Chain))
		if err := b.SetChain(Pos{row, col}); err != nil {
			return nil, fmt.Errorf("invalid position ID: %w", err)
		}
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid position ID: %w", err)
	}
	return b, nil
}
