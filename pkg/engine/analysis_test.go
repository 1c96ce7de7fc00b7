package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func safeCaptureBoard(t *testing.T) *Board {
	return place(t, Red, map[Pos]Piece{
		{5, 0}: RedMan,
		{6, 7}: RedMan,
		{4, 1}: BlackMan,
		{5, 6}: BlackMan,
		{2, 3}: BlackMan,
		{1, 4}: BlackMan,
	})
}

func TestRankMoves(t *testing.T) {
	b := safeCaptureBoard(t)
	before := *b

	res := NewEngine(EngineOptions{}).RankMoves(b, Red, 2)
	require.Equal(t, before, *b)
	require.Equal(t, 2, res.NumMoves)
	require.Equal(t, []ScoredMove{
		{Move: Move{From: Pos{6, 7}, To: Pos{4, 5}}, Score: -100},
		{Move: Move{From: Pos{5, 0}, To: Pos{3, 2}}, Score: -200},
	}, res.Moves)
	require.Equal(t, res.Moves[0].Move, res.BestMove)
	require.Equal(t, -100, res.BestScore)
	require.Positive(t, res.Nodes)
}

func TestRankMovesAgreesWithAnalyze(t *testing.T) {
	e := NewEngine(EngineOptions{})
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 15; i++ {
		b := randomPosition(t, rng, 4+i*2)
		if b.IsTerminal() {
			continue
		}
		side := b.Turn()
		r := e.Analyze(b, side, 3)
		ranked := e.RankMoves(b, side, 3)
		require.Equal(t, r.Move, ranked.BestMove, "position %s", b.PositionID())
		require.Equal(t, r.Score, ranked.BestScore, "position %s", b.PositionID())
		require.Len(t, ranked.Moves, len(b.PossibleMoves(side)))
	}
}

func TestRankMovesNoMoves(t *testing.T) {
	b := place(t, Black, map[Pos]Piece{{5, 0}: RedMan})
	res := NewEngine(EngineOptions{}).RankMoves(b, Black, 3)
	require.Zero(t, res.NumMoves)
	require.Empty(t, res.Moves)
	require.Equal(t, Move{}, res.BestMove)
}

func TestClassifySkill(t *testing.T) {
	tests := []struct {
		loss int
		want SkillType
	}{
		{0, SkillNone},
		{1, SkillDoubtful},
		{49, SkillDoubtful},
		{50, SkillBad},
		{75, SkillBad},
		{100, SkillVeryBad},
		{250, SkillVeryBad},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, ClassifySkill(tt.loss), "loss %d", tt.loss)
	}
	require.Equal(t, "??", SkillVeryBad.Abbr())
	require.Equal(t, "None", SkillNone.String())
}

func TestRateMove(t *testing.T) {
	e := NewEngine(EngineOptions{})
	b := safeCaptureBoard(t)

	r, err := e.RateMove(b, Move{From: Pos{5, 0}, To: Pos{3, 2}}, 2)
	require.NoError(t, err)
	require.Equal(t, 2, r.Rank)
	require.Equal(t, 100, r.Loss)
	require.Equal(t, SkillVeryBad, r.Skill)
	require.Equal(t, Move{From: Pos{6, 7}, To: Pos{4, 5}}, r.Best)

	r, err = e.RateMove(b, Move{From: Pos{6, 7}, To: Pos{4, 5}}, 2)
	require.NoError(t, err)
	require.Equal(t, 1, r.Rank)
	require.Equal(t, SkillNone, r.Skill)

	_, err = e.RateMove(b, Move{From: Pos{5, 0}, To: Pos{4, 1}}, 2)
	require.ErrorIs(t, err, ErrIllegalMove)

	var gs GameSkill
	gs.Add(MoveRating{Loss: 100, Skill: SkillVeryBad})
	gs.Add(MoveRating{Loss: 0, Skill: SkillNone})
	require.Equal(t, 2, gs.Moves)
	require.Equal(t, 50.0, gs.LossPerMove)
	require.Equal(t, 1, gs.Counts[SkillVeryBad])
}
