package engine

import (
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultDepth is the search depth used by the automated opponent.
	DefaultDepth = 3
	// MaxDepth bounds requested depths; deeper searches are clamped.
	MaxDepth = 10
	// Infinity is larger than any reachable evaluation.
	Infinity = 1 << 30
)

// Engine chooses moves with a fixed-depth minimax search.
// An Engine is safe for concurrent use as long as each call gets its own
// Board.
type Engine struct {
	depth   int
	weights []float64
	cache   *MoveCache
}

// EngineOptions configures the engine
type EngineOptions struct {
	Depth     int              // Search depth in plies (0 = DefaultDepth)
	Weights   *MaterialWeights // Material values (nil = DefaultWeights)
	CacheSize int              // Result cache entries (0 = disabled)
}

// NewEngine creates a new search engine with the given options
func NewEngine(opts EngineOptions) *Engine {
	e := &Engine{
		depth:   clampDepth(opts.Depth),
		weights: DefaultWeights().vector(),
	}
	if opts.Weights != nil {
		e.weights = opts.Weights.vector()
	}
	if opts.CacheSize > 0 {
		e.cache = NewMoveCache(uint32(opts.CacheSize))
	}
	return e
}

func clampDepth(depth int) int {
	if depth <= 0 {
		return DefaultDepth
	}
	if depth > MaxDepth {
		return MaxDepth
	}
	return depth
}

// Depth returns the engine's default search depth.
func (e *Engine) Depth() int {
	return e.depth
}

// Cache returns the result cache, or nil if caching is disabled.
func (e *Engine) Cache() *MoveCache {
	return e.cache
}

// Evaluate scores the board for side with the engine's weights.
func (e *Engine) Evaluate(b *Board, side Side) int {
	return evaluateWeighted(b, side, e.weights)
}

// SearchResult is the outcome of a root search.
type SearchResult struct {
	Move    Move
	Found   bool // false if side has no legal move
	Score   int  // minimax value from side's point of view
	Depth   int
	Nodes   int
	Cutoffs int
	Cached  bool
	Elapsed time.Duration
}

// ChooseMove returns the best move for side at the engine's depth.
func (e *Engine) ChooseMove(b *Board, side Side) (Move, bool) {
	r := e.Analyze(b, side, e.depth)
	return r.Move, r.Found
}

// Analyze runs a search for side to the given depth (0 = engine default).
// The board is used as scratch space and is restored before returning.
func (e *Engine) Analyze(b *Board, side Side, depth int) SearchResult {
	if depth <= 0 {
		depth = e.depth
	}
	depth = clampDepth(depth)

	ctx := MakeSearchContext(depth, side)
	if e.cache != nil {
		if entry, ok := e.cache.Lookup(b.Key(), ctx); ok {
			return SearchResult{Move: entry.Move, Found: entry.Found, Score: entry.Score, Depth: depth, Cached: true}
		}
	}

	start := time.Now()
	s := &searchT{board: b, root: side, weights: e.weights}
	score, move, found := s.search(depth, 0, -Infinity, Infinity, side)
	result := SearchResult{
		Move:    move,
		Found:   found,
		Score:   score,
		Depth:   depth,
		Nodes:   s.nodes,
		Cutoffs: s.cutoffs,
		Elapsed: time.Since(start),
	}

	log.Debug().
		Str("side", side.String()).
		Int("depth", depth).
		Int("nodes", s.nodes).
		Int("cutoffs", s.cutoffs).
		Int("score", score).
		Bool("found", found).
		Str("move", move.String()).
		Dur("elapsed", result.Elapsed).
		Msg("search complete")

	if e.cache != nil {
		e.cache.Add(CacheEntry{Key: b.Key(), Context: ctx, Move: move, Score: score, Found: found})
	}
	return result
}

var defaultEngine = NewEngine(EngineOptions{})

// ChooseMove picks a move for side with a depth-limited alpha-beta search.
// It returns false when side has no legal move. Equal positions, sides and
// depths always yield the same move.
func ChooseMove(b *Board, side Side, depth int) (Move, bool) {
	r := defaultEngine.Analyze(b, side, depth)
	return r.Move, r.Found
}

// searchT holds the state of one root search.
type searchT struct {
	board   *Board
	root    Side
	weights []float64
	nodes   int
	cutoffs int
}

// search is minimax with alpha-beta pruning. toMove is carried explicitly:
// after a capture that continues, the same side moves again. Levels where
// the root side moves maximize, the others minimize. The first move to reach
// the best score is kept.
func (s *searchT) search(depth, ply, alpha, beta int, toMove Side) (int, Move, bool) {
	s.nodes++

	// The root always looks at its own moves, even if the opponent is stuck
	if depth <= 0 || (ply > 0 && s.board.IsTerminal()) {
		return evaluateWeighted(s.board, s.root, s.weights), Move{}, false
	}

	moves := s.board.PossibleMoves(toMove)
	if len(moves) == 0 {
		return evaluateWeighted(s.board, s.root, s.weights), Move{}, false
	}

	maximizing := toMove == s.root
	best := Infinity
	if maximizing {
		best = -Infinity
	}
	var bestMove Move
	found := false

	for _, m := range moves {
		applied, err := s.board.ApplyMove(m)
		if err != nil {
			continue
		}
		next := toMove.Opponent()
		if applied.Continues {
			next = toMove
		}
		score, _, _ := s.search(depth-1, ply+1, alpha, beta, next)
		s.board.UndoMove(applied)

		if maximizing {
			if score > best || !found {
				best, bestMove, found = score, m, true
			}
			alpha = max(alpha, score)
		} else {
			if score < best || !found {
				best, bestMove, found = score, m, true
			}
			beta = min(beta, score)
		}

		if beta <= alpha {
			s.cutoffs++
			break
		}
	}

	return best, bestMove, found
}
