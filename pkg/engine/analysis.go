package engine

import (
	"sort"
	"time"
)

// ScoredMove is a move together with its search score.
type ScoredMove struct {
	Move  Move
	Score int // from the mover's point of view
}

// AnalysisResult contains every legal move of a position, ranked.
type AnalysisResult struct {
	Side      Side
	Depth     int
	Moves     []ScoredMove // best first, ties in generation order
	BestMove  Move
	BestScore int
	NumMoves  int
	Nodes     int
	Elapsed   time.Duration
}

// RankMoves scores each legal move of side with a full-window search of the
// remaining depth. The first entry is the move Analyze would choose at the
// same depth. The board is restored before returning.
func (e *Engine) RankMoves(b *Board, side Side, depth int) AnalysisResult {
	if depth <= 0 {
		depth = e.depth
	}
	depth = clampDepth(depth)

	start := time.Now()
	moves := b.PossibleMoves(side)
	result := AnalysisResult{
		Side:     side,
		Depth:    depth,
		Moves:    make([]ScoredMove, 0, len(moves)),
		NumMoves: len(moves),
	}

	s := &searchT{board: b, root: side, weights: e.weights}
	for _, m := range moves {
		applied, err := b.ApplyMove(m)
		if err != nil {
			continue
		}
		next := side.Opponent()
		if applied.Continues {
			next = side
		}
		score, _, _ := s.search(depth-1, 1, -Infinity, Infinity, next)
		b.UndoMove(applied)

		result.Moves = append(result.Moves, ScoredMove{Move: m, Score: score})
	}

	// Sort by score (best first)
	sort.SliceStable(result.Moves, func(i, j int) bool {
		return result.Moves[i].Score > result.Moves[j].Score
	})
	if len(result.Moves) > 0 {
		result.BestMove = result.Moves[0].Move
		result.BestScore = result.Moves[0].Score
	}
	result.Nodes = s.nodes
	result.Elapsed = time.Since(start)
	return result
}
