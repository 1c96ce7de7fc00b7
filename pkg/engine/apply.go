package engine

import "fmt"

// Applied records everything ApplyMove changed so UndoMove can restore the
// exact previous position.
type Applied struct {
	Move       Move
	Piece      Piece // the moving piece before the move
	Captured   Piece // Empty unless the move was a capture
	CapturedAt Pos
	Promoted   bool
	Continues  bool // the same side must keep capturing with the same piece

	prevTurn     Side
	prevChaining bool
	prevChain    Pos
}

// Capture returns the cell of the removed piece, if any.
func (a Applied) Capture() (Pos, bool) {
	return a.CapturedAt, a.Captured != Empty
}

// ApplyMove plays m on the board. The move must pass IsLegalMove; turn
// order and mandatory capture are not checked here (see ApplyPlayerMove).
//
// After a capture, if the landed piece can capture again the same side keeps
// the move and the board enters a capture chain. Otherwise the turn passes.
func (b *Board) ApplyMove(m Move) (Applied, error) {
	if !b.IsLegalMove(m.From, m.To) {
		return Applied{}, fmt.Errorf("%w: %v -> %v", ErrIllegalMove, m.From, m.To)
	}

	piece := b.At(m.From)
	a := Applied{
		Move:         m,
		Piece:        piece,
		prevTurn:     b.turn,
		prevChaining: b.chaining,
		prevChain:    b.chain,
	}

	b.cells[m.From.Row][m.From.Col] = Empty
	b.cells[m.To.Row][m.To.Col] = piece

	if m.IsCapture() {
		mid := m.Mid()
		a.Captured = b.At(mid)
		a.CapturedAt = mid
		b.cells[mid.Row][mid.Col] = Empty
		// Men capture in all directions, so the chain check does not depend
		// on promotion.
		a.Continues = len(b.capturesFrom(nil, m.To)) > 0
	}

	if !piece.IsKing() && m.To.Row == piece.Side().PromotionRow() {
		b.cells[m.To.Row][m.To.Col] = piece.Promoted()
		a.Promoted = true
	}

	mover := piece.Side()
	if a.Continues {
		b.turn = mover
		b.chaining = true
		b.chain = m.To
	} else {
		b.turn = mover.Opponent()
		b.chaining = false
		b.chain = Pos{}
	}
	return a, nil
}

// UndoMove reverts a move returned by ApplyMove. Moves must be undone in
// reverse order of application.
func (b *Board) UndoMove(a Applied) {
	m := a.Move
	b.cells[m.To.Row][m.To.Col] = Empty
	// a.Piece is the pre-move piece, which also reverts a promotion
	b.cells[m.From.Row][m.From.Col] = a.Piece
	if a.Captured != Empty {
		b.cells[a.CapturedAt.Row][a.CapturedAt.Col] = a.Captured
	}
	b.turn = a.prevTurn
	b.chaining = a.prevChaining
	b.chain = a.prevChain
}
