package engine

import (
	"math/rand"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

// SelfPlayOptions configures engine-vs-engine games.
type SelfPlayOptions struct {
	Games        int   // Number of games (default 10)
	MaxPlies     int   // Adjudicate as a draw after this many plies (default 200)
	RandomPlies  int   // Random opening plies so games differ (0 = none)
	RedDepth     int   // Search depth for Red (0 = engine default)
	BlackDepth   int   // Search depth for Black (0 = engine default)
	Seed         int64 // Random seed for openings
	KeepMoveList bool  // Store the moves of each game
}

// GameRecord summarises one finished game.
type GameRecord struct {
	Winner  Side
	Decided bool // false if the ply limit was reached
	Plies   int
	Nodes   int
	Moves   []Move
}

// SelfPlayReport aggregates a series of games.
type SelfPlayReport struct {
	Games     int
	RedWins   int
	BlackWins int
	Draws     int
	MeanPlies float64
	StdPlies  float64
	MeanNodes float64
	StdNodes  float64
	Records   []GameRecord
}

func (o *SelfPlayOptions) setDefaults() {
	if o.Games <= 0 {
		o.Games = 10
	}
	if o.MaxPlies <= 0 {
		o.MaxPlies = 200
	}
	if o.RandomPlies < 0 {
		o.RandomPlies = 0
	}
}

// PlayGame plays a single game from the starting position. The first
// RandomPlies moves are drawn from rng, the rest are chosen by search.
func (e *Engine) PlayGame(opts SelfPlayOptions, rng *rand.Rand) GameRecord {
	opts.setDefaults()
	b := NewBoard()
	var rec GameRecord

	for rec.Plies < opts.MaxPlies {
		if b.IsGameOver() {
			rec.Winner, rec.Decided = b.Winner()
			break
		}
		side := b.Turn()

		var move Move
		if rec.Plies < opts.RandomPlies {
			moves := b.PossibleMoves(side)
			if len(moves) == 0 {
				break
			}
			move = moves[rng.Intn(len(moves))]
		} else {
			depth := opts.RedDepth
			if side == Black {
				depth = opts.BlackDepth
			}
			r := e.Analyze(b, side, depth)
			rec.Nodes += r.Nodes
			if !r.Found {
				break
			}
			move = r.Move
		}

		if _, err := b.ApplyMove(move); err != nil {
			log.Error().Err(err).Str("move", move.String()).Msg("self-play produced an illegal move")
			break
		}
		if opts.KeepMoveList {
			rec.Moves = append(rec.Moves, move)
		}
		rec.Plies++
	}
	if !rec.Decided && b.IsGameOver() {
		rec.Winner, rec.Decided = b.Winner()
	}
	return rec
}

// SelfPlay runs a series of games and reports the results.
func (e *Engine) SelfPlay(opts SelfPlayOptions) SelfPlayReport {
	opts.setDefaults()
	rng := rand.New(rand.NewSource(opts.Seed))

	report := SelfPlayReport{Games: opts.Games}
	plies := make([]float64, 0, opts.Games)
	nodes := make([]float64, 0, opts.Games)

	for i := 0; i < opts.Games; i++ {
		rec := e.PlayGame(opts, rng)
		switch {
		case !rec.Decided:
			report.Draws++
		case rec.Winner == Red:
			report.RedWins++
		default:
			report.BlackWins++
		}
		plies = append(plies, float64(rec.Plies))
		nodes = append(nodes, float64(rec.Nodes))
		report.Records = append(report.Records, rec)

		log.Info().
			Int("game", i+1).
			Int("plies", rec.Plies).
			Bool("decided", rec.Decided).
			Str("winner", rec.Winner.String()).
			Msg("self-play game finished")
	}

	// Sample deviation is undefined for a single game
	if len(plies) > 1 {
		report.MeanPlies, report.StdPlies = stat.MeanStdDev(plies, nil)
		report.MeanNodes, report.StdNodes = stat.MeanStdDev(nodes, nil)
	} else {
		report.MeanPlies = stat.Mean(plies, nil)
		report.MeanNodes = stat.Mean(nodes, nil)
	}
	return report
}
