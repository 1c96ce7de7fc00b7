package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlayGameReplays(t *testing.T) {
	e := NewEngine(EngineOptions{CacheSize: 4096})
	opts := SelfPlayOptions{MaxPlies: 80, RandomPlies: 4, RedDepth: 2, BlackDepth: 1, KeepMoveList: true}

	rec := e.PlayGame(opts, rand.New(rand.NewSource(3)))
	require.Len(t, rec.Moves, rec.Plies)
	require.LessOrEqual(t, rec.Plies, 80)

	b := NewBoard()
	for i, m := range rec.Moves {
		res := b.ApplyPlayerMove(m.From, m.To)
		require.True(t, res.Accepted, "ply %d: %v", i, m)
	}
	winner, over := b.Winner()
	require.Equal(t, rec.Decided, over)
	if over {
		require.Equal(t, rec.Winner, winner)
	}
}

func TestSelfPlayReport(t *testing.T) {
	e := NewEngine(EngineOptions{})
	opts := SelfPlayOptions{Games: 3, MaxPlies: 60, RedDepth: 1, BlackDepth: 1, Seed: 11}

	report := e.SelfPlay(opts)
	require.Equal(t, 3, report.Games)
	require.Len(t, report.Records, 3)
	require.Equal(t, 3, report.RedWins+report.BlackWins+report.Draws)
	require.Positive(t, report.MeanPlies)
	require.GreaterOrEqual(t, report.StdPlies, 0.0)
	for _, rec := range report.Records {
		require.Empty(t, rec.Moves, "moves are only kept on request")
	}

	again := e.SelfPlay(opts)
	require.Equal(t, report.MeanPlies, again.MeanPlies, "same seed, same games")
}

func TestSelfPlaySingleGame(t *testing.T) {
	report := NewEngine(EngineOptions{}).SelfPlay(SelfPlayOptions{Games: 1, MaxPlies: 20, RedDepth: 1, BlackDepth: 1})
	require.Equal(t, 1, report.Games)
	require.Zero(t, report.StdPlies)
	require.Positive(t, report.MeanPlies)
}
