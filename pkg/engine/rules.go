package engine

// IsLegalMove checks the geometry and occupancy of a single step or jump,
// independent of whose turn it is and of the mandatory-capture rule.
func (b *Board) IsLegalMove(from, to Pos) bool {
	if !from.OnBoard() || !to.OnBoard() {
		return false
	}
	piece := b.At(from)
	if piece == Empty {
		return false
	}
	// Can't move to a cell that's already occupied, own pieces included
	if b.At(to) != Empty {
		return false
	}

	dr := to.Row - from.Row
	dc := abs(to.Col - from.Col)

	switch {
	case abs(dr) == 1 && dc == 1:
		return piece.IsKing() || dr == piece.Side().Forward()
	case abs(dr) == 2 && dc == 2:
		// Men may capture backwards
		mid := b.At(Move{From: from, To: to}.Mid())
		return mid != Empty && mid.Side() != piece.Side()
	}
	return false
}

// capturesFrom appends the legal jumps of the piece at p.
func (b *Board) capturesFrom(dst []Move, p Pos) []Move {
	for _, d := range diagonals {
		to := Pos{p.Row + 2*d.Row, p.Col + 2*d.Col}
		if b.IsLegalMove(p, to) {
			dst = append(dst, Move{From: p, To: to})
		}
	}
	return dst
}

// stepsFrom appends the legal simple moves of the piece at p.
func (b *Board) stepsFrom(dst []Move, p Pos) []Move {
	piece := b.At(p)
	if piece.IsKing() {
		for _, d := range diagonals {
			to := Pos{p.Row + d.Row, p.Col + d.Col}
			if b.IsLegalMove(p, to) {
				dst = append(dst, Move{From: p, To: to})
			}
		}
		return dst
	}
	fwd := piece.Side().Forward()
	for _, dc := range [2]int{-1, 1} {
		to := Pos{p.Row + fwd, p.Col + dc}
		if b.IsLegalMove(p, to) {
			dst = append(dst, Move{From: p, To: to})
		}
	}
	return dst
}

// PossibleCaptures lists every jump available to side, scanning the board
// row by row.
func (b *Board) PossibleCaptures(side Side) []Move {
	var captures []Move
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if b.cells[row][col].Owned(side) {
				captures = b.capturesFrom(captures, Pos{row, col})
			}
		}
	}
	return captures
}

// MustCapture reports whether side has at least one jump available, in
// which case simple moves are forbidden.
func (b *Board) MustCapture(side Side) bool {
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if !b.cells[row][col].Owned(side) {
				continue
			}
			if len(b.capturesFrom(nil, Pos{row, col})) > 0 {
				return true
			}
		}
	}
	return false
}

// PossibleMoves lists the moves side may play now. During a capture chain
// only further jumps by the chaining piece qualify; otherwise captures take
// precedence over simple moves.
func (b *Board) PossibleMoves(side Side) []Move {
	if b.chaining {
		if side != b.turn {
			return nil
		}
		return b.capturesFrom(nil, b.chain)
	}
	if captures := b.PossibleCaptures(side); len(captures) > 0 {
		return captures
	}
	var moves []Move
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if b.cells[row][col].Owned(side) {
				moves = b.stepsFrom(moves, Pos{row, col})
			}
		}
	}
	return moves
}

// HasAnyMove reports whether side owns a piece that can step or jump.
func (b *Board) HasAnyMove(side Side) bool {
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if !b.cells[row][col].Owned(side) {
				continue
			}
			p := Pos{row, col}
			if len(b.stepsFrom(nil, p)) > 0 || len(b.capturesFrom(nil, p)) > 0 {
				return true
			}
		}
	}
	return false
}

// IsTerminal reports whether either side is out of moves, whether because
// it has no pieces left or because all of them are blocked.
func (b *Board) IsTerminal() bool {
	return !b.HasAnyMove(Red) || !b.HasAnyMove(Black)
}
