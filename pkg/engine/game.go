package engine

// MoveResult is the outcome of a move request from a player.
type MoveResult struct {
	Accepted bool
	// CapturePending is set when the move was a capture and the same piece
	// must keep jumping; the turn has not passed.
	CapturePending bool
	// MandatoryCaptureViolation is set when a simple move was attempted while
	// a capture was available (or a chain had to be continued).
	MandatoryCaptureViolation bool
	// NotYourTurn is set when the origin does not hold a piece of the side
	// to move.
	NotYourTurn bool

	Applied Applied
}

// ApplyPlayerMove validates a move for the side to move and plays it.
// Rejected moves leave the board untouched.
func (b *Board) ApplyPlayerMove(from, to Pos) MoveResult {
	if !from.OnBoard() || !to.OnBoard() {
		return MoveResult{}
	}
	if !b.At(from).Owned(b.turn) {
		return MoveResult{NotYourTurn: b.At(from) != Empty}
	}

	m := Move{From: from, To: to}
	if b.chaining {
		// Only the chaining piece may move, and only by jumping again
		if from != b.chain {
			return MoveResult{MandatoryCaptureViolation: true}
		}
		if !m.IsCapture() {
			return MoveResult{MandatoryCaptureViolation: true}
		}
	} else if !m.IsCapture() && b.MustCapture(b.turn) {
		return MoveResult{MandatoryCaptureViolation: true}
	}

	a, err := b.ApplyMove(m)
	if err != nil {
		return MoveResult{}
	}
	return MoveResult{
		Accepted:       true,
		CapturePending: a.Continues,
		Applied:        a,
	}
}

// IsGameOver reports whether one of the sides can no longer move.
func (b *Board) IsGameOver() bool {
	return b.IsTerminal()
}

// Winner returns the winning side once the game is over. The side that
// cannot move loses; Black is checked first, so Red wins if both are stuck.
func (b *Board) Winner() (Side, bool) {
	if !b.IsTerminal() {
		return Red, false
	}
	if !b.HasPieces(Black) || !b.HasAnyMove(Black) {
		return Red, true
	}
	return Black, true
}
