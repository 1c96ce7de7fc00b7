package engine

import (
	"fmt"
)

// SkillType represents the skill rating of a move.
type SkillType int

const (
	SkillVeryBad  SkillType = iota // Blunder: loses a man or more
	SkillBad                       // Error: loses at least half a man
	SkillDoubtful                  // Doubtful: loses anything
	SkillNone                      // Best move or equal to it
)

// String returns the display name of the skill type.
func (s SkillType) String() string {
	return [...]string{"Very Bad", "Bad", "Doubtful", "None"}[s]
}

// Abbr returns the abbreviated notation (??, ?, ?!).
func (s SkillType) Abbr() string {
	return [...]string{"??", "?", "?!", ""}[s]
}

// SkillThresholds are the score losses for skill ratings, in the units of
// Evaluate (a man is worth 100).
var SkillThresholds = [3]int{
	100, // SkillVeryBad
	50,  // SkillBad
	1,   // SkillDoubtful
}

// ClassifySkill returns the skill rating for a score loss against the best
// move. loss is zero or positive.
func ClassifySkill(loss int) SkillType {
	switch {
	case loss >= SkillThresholds[0]:
		return SkillVeryBad
	case loss >= SkillThresholds[1]:
		return SkillBad
	case loss >= SkillThresholds[2]:
		return SkillDoubtful
	}
	return SkillNone
}

// MoveRating is the verdict on a played move.
type MoveRating struct {
	Move      Move
	Score     int
	Best      Move
	BestScore int
	Loss      int
	Rank      int // 1 for the best move
	Skill     SkillType
}

// RateMove ranks the moves of the side to move and reports how m compares
// to the best one.
func (e *Engine) RateMove(b *Board, m Move, depth int) (MoveRating, error) {
	ranked := e.RankMoves(b, b.Turn(), depth)
	for i, sm := range ranked.Moves {
		if sm.Move != m {
			continue
		}
		loss := ranked.BestScore - sm.Score
		return MoveRating{
			Move:      m,
			Score:     sm.Score,
			Best:      ranked.BestMove,
			BestScore: ranked.BestScore,
			Loss:      loss,
			Rank:      i + 1,
			Skill:     ClassifySkill(loss),
		}, nil
	}
	return MoveRating{}, fmt.Errorf("%w: %s", ErrIllegalMove, m)
}

// GameSkill summarises the ratings of one side's moves.
type GameSkill struct {
	Moves       int
	TotalLoss   int
	LossPerMove float64
	Counts      [4]int // indexed by SkillType
}

// Add records a rating.
func (g *GameSkill) Add(r MoveRating) {
	g.Moves++
	g.TotalLoss += r.Loss
	g.Counts[r.Skill]++
	g.LossPerMove = float64(g.TotalLoss) / float64(g.Moves)
}
