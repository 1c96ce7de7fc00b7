// ckengine - command line access to the checkers engine
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"github.com/yourusername/ckengine/internal/logging"
	"github.com/yourusername/ckengine/pkg/engine"
	"github.com/yourusername/ckengine/pkg/record"
)

var positionFlag = &cli.StringFlag{
	Name:    "position",
	Aliases: []string{"p"},
	Usage:   "position ID (default: starting position)",
}

var sideFlag = &cli.StringFlag{
	Name:    "side",
	Aliases: []string{"s"},
	Usage:   "side to analyze, R or B (default: side to move)",
}

var depthFlag = &cli.IntFlag{
	Name:    "depth",
	Aliases: []string{"d"},
	Usage:   "search depth in plies",
	Value:   engine.DefaultDepth,
}

func main() {
	app := &cli.App{
		Name:  "ckengine",
		Usage: "Checkers analysis engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "trace, debug, info, warn or error",
				Value: "warn",
			},
		},
		Before: func(c *cli.Context) error {
			logging.Configure(c.String("log-level"), true)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "board",
				Usage:  "Print a position",
				Flags:  []cli.Flag{positionFlag},
				Action: cmdBoard,
			},
			{
				Name:   "moves",
				Usage:  "List the legal moves",
				Flags:  []cli.Flag{positionFlag, sideFlag},
				Action: cmdMoves,
			},
			{
				Name:   "best",
				Usage:  "Search for the best move",
				Flags: []cli.Flag{positionFlag, sideFlag, depthFlag,
					&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "rank every legal move"},
				},
				Action: cmdBest,
			},
			{
				Name:   "eval",
				Usage:  "Static material evaluation",
				Flags:  []cli.Flag{positionFlag, sideFlag},
				Action: cmdEval,
			},
			{
				Name:  "selfplay",
				Usage: "Play engine against engine and report the results",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "games", Aliases: []string{"n"}, Value: 10, Usage: "number of games"},
					&cli.IntFlag{Name: "red-depth", Value: engine.DefaultDepth, Usage: "search depth for Red"},
					&cli.IntFlag{Name: "black-depth", Value: engine.DefaultDepth, Usage: "search depth for Black"},
					&cli.IntFlag{Name: "random-plies", Value: 4, Usage: "random opening plies per game"},
					&cli.IntFlag{Name: "max-plies", Value: 200, Usage: "plies before a game is drawn"},
					&cli.Int64Flag{Name: "seed", Usage: "random seed (0 = time based)"},
					&cli.IntFlag{Name: "cache-size", Value: 1 << 16, Usage: "search cache entries"},
					&cli.BoolFlag{Name: "moves", Usage: "print the moves of each game"},
					&cli.StringFlag{Name: "pdn", Usage: "write the games to this PDN file"},
				},
				Action: cmdSelfPlay,
			},
			{
				Name:      "replay",
				Usage:     "Check the games of a PDN file and print their final positions",
				ArgsUsage: "<file.pdn>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "tutor", Aliases: []string{"t"}, Usage: "rate every move against the engine"},
					depthFlag,
				},
				Action: cmdReplay,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parsePosition(c *cli.Context) (*engine.Board, error) {
	id := c.String("position")
	if id == "" {
		return engine.NewBoard(), nil
	}
	b, err := engine.BoardFromPositionID(id)
	if err != nil {
		return nil, fmt.Errorf("invalid position ID: %w", err)
	}
	return b, nil
}

func parseSide(c *cli.Context, b *engine.Board) (engine.Side, error) {
	if !c.IsSet("side") {
		return b.Turn(), nil
	}
	return engine.ParseSide(c.String("side"))
}

func cmdBoard(c *cli.Context) error {
	b, err := parsePosition(c)
	if err != nil {
		return err
	}
	fmt.Print(b)
	fmt.Printf("Position ID: %s\n", b.PositionID())
	fmt.Printf("To move:     %s\n", b.Turn())
	if chain, ok := b.MultiCapture(); ok {
		fmt.Printf("Capturing:   %v must jump again\n", chain)
	}
	if winner, over := b.Winner(); over {
		fmt.Printf("Game over:   %s wins\n", winner)
	}
	return nil
}

func cmdMoves(c *cli.Context) error {
	b, err := parsePosition(c)
	if err != nil {
		return err
	}
	side, err := parseSide(c, b)
	if err != nil {
		return err
	}

	moves := b.PossibleMoves(side)
	if len(moves) == 0 {
		fmt.Printf("No legal moves for %s\n", side)
		return nil
	}
	kind := "moves"
	if b.MustCapture(side) {
		kind = "captures"
	}
	fmt.Printf("Legal %s for %s:\n", kind, side)
	for i, m := range moves {
		fmt.Printf("  %2d. %-6s  %v -> %v\n", i+1, m, m.From, m.To)
	}
	return nil
}

func cmdBest(c *cli.Context) error {
	b, err := parsePosition(c)
	if err != nil {
		return err
	}
	side, err := parseSide(c, b)
	if err != nil {
		return err
	}

	e := engine.NewEngine(engine.EngineOptions{Depth: c.Int("depth")})
	if c.Bool("all") {
		return printRanking(e.RankMoves(b, side, c.Int("depth")))
	}
	r := e.Analyze(b, side, c.Int("depth"))
	if !r.Found {
		fmt.Printf("No legal moves for %s\n", side)
		return nil
	}
	fmt.Printf("Best move for %s: %s (%v -> %v)\n", side, r.Move, r.Move.From, r.Move.To)
	fmt.Printf("  Score: %+d at depth %d\n", r.Score, r.Depth)
	fmt.Printf("  Nodes: %d (%d cutoffs) in %v\n", r.Nodes, r.Cutoffs, r.Elapsed.Round(time.Microsecond))
	return nil
}

func printRanking(r engine.AnalysisResult) error {
	if r.NumMoves == 0 {
		fmt.Printf("No legal moves for %s\n", r.Side)
		return nil
	}
	fmt.Printf("Moves for %s at depth %d:\n", r.Side, r.Depth)
	for i, sm := range r.Moves {
		loss := r.BestScore - sm.Score
		fmt.Printf("  %2d. %-6s %+6d  %-2s\n", i+1, sm.Move, sm.Score, engine.ClassifySkill(loss).Abbr())
	}
	fmt.Printf("  Nodes: %d in %v\n", r.Nodes, r.Elapsed.Round(time.Microsecond))
	return nil
}

func cmdEval(c *cli.Context) error {
	b, err := parsePosition(c)
	if err != nil {
		return err
	}
	side, err := parseSide(c, b)
	if err != nil {
		return err
	}

	men, kings := b.Count(side)
	oppMen, oppKings := b.Count(side.Opponent())
	fmt.Printf("Evaluation for %s: %+d\n", side, engine.Evaluate(b, side))
	fmt.Printf("  %s: %d men, %d kings\n", side, men, kings)
	fmt.Printf("  %s: %d men, %d kings\n", side.Opponent(), oppMen, oppKings)
	return nil
}

func cmdSelfPlay(c *cli.Context) error {
	seed := c.Int64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	e := engine.NewEngine(engine.EngineOptions{CacheSize: c.Int("cache-size")})

	opts := engine.SelfPlayOptions{
		Games:        c.Int("games"),
		MaxPlies:     c.Int("max-plies"),
		RandomPlies:  c.Int("random-plies"),
		RedDepth:     c.Int("red-depth"),
		BlackDepth:   c.Int("black-depth"),
		Seed:         seed,
		KeepMoveList: c.Bool("moves") || c.IsSet("pdn"),
	}
	log.Info().Int("games", opts.Games).Int64("seed", seed).Msg("self-play started")

	start := time.Now()
	report := e.SelfPlay(opts)
	elapsed := time.Since(start)

	fmt.Printf("Self-play (%d games, %.1fs, seed %d):\n", report.Games, elapsed.Seconds(), seed)
	fmt.Printf("  Red wins:   %d (depth %d)\n", report.RedWins, opts.RedDepth)
	fmt.Printf("  Black wins: %d (depth %d)\n", report.BlackWins, opts.BlackDepth)
	fmt.Printf("  Draws:      %d\n", report.Draws)
	fmt.Printf("  Plies:      %.1f ± %.1f\n", report.MeanPlies, report.StdPlies)
	fmt.Printf("  Nodes:      %.0f ± %.0f\n", report.MeanNodes, report.StdNodes)

	if path := c.String("pdn"); path != "" {
		if err := writeSelfPlayPDN(path, report, seed); err != nil {
			return err
		}
		fmt.Printf("Games written to %s\n", path)
	}

	if c.Bool("moves") {
		for i, g := range report.Records {
			result := "draw"
			if g.Decided {
				result = g.Winner.String() + " wins"
			}
			fmt.Printf("Game %d (%s, %d plies):", i+1, result, g.Plies)
			for _, m := range g.Moves {
				fmt.Printf(" %s", m)
			}
			fmt.Println()
		}
	}
	return nil
}

func writeSelfPlayPDN(path string, report engine.SelfPlayReport, seed int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	date := time.Now().Format("2006.01.02")
	games := make([]*record.Game, len(report.Records))
	for i, rec := range report.Records {
		g := record.FromSelfPlay(rec, "ckengine", "ckengine")
		g.Event = fmt.Sprintf("Self-play seed %d game %d", seed, i+1)
		g.Date = date
		games[i] = g
	}
	if err := record.Write(f, games...); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func cmdReplay(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: ckengine replay <file.pdn>")
	}
	f, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()

	games, err := record.Parse(f)
	if err != nil {
		return err
	}
	var e *engine.Engine
	if c.Bool("tutor") {
		e = engine.NewEngine(engine.EngineOptions{Depth: c.Int("depth")})
	}
	for i, g := range games {
		final, err := g.Replay()
		if err != nil {
			return fmt.Errorf("game %d: %w", i+1, err)
		}
		fmt.Printf("Game %d: %s vs %s, %d moves, result %s\n", i+1, g.Red, g.Black, len(g.Moves), g.Result)
		if winner, over := final.Winner(); over && record.WinnerResult(winner) != g.Result {
			fmt.Printf("  warning: final position is a win for %s\n", winner)
		}
		if e != nil {
			if err := tutorGame(e, g, c.Int("depth")); err != nil {
				return fmt.Errorf("game %d: %w", i+1, err)
			}
		}
		fmt.Print(final)
		fmt.Printf("Position ID: %s\n\n", final.PositionID())
	}
	return nil
}

// tutorGame rates each move of g and prints the mistakes and a summary per
// side.
func tutorGame(e *engine.Engine, g *record.Game, depth int) error {
	b, err := g.Start()
	if err != nil {
		return err
	}
	var skill [2]engine.GameSkill
	for i, m := range g.Moves {
		side := b.Turn()
		r, err := e.RateMove(b, m, depth)
		if err != nil {
			return fmt.Errorf("move %d: %w", i+1, err)
		}
		skill[side].Add(r)
		if r.Skill != engine.SkillNone {
			fmt.Printf("  %3d. %-5s %-6s%-2s best %s (%+d, loss %d)\n",
				i+1, side, m, r.Skill.Abbr(), r.Best, r.BestScore, r.Loss)
		}
		if res := b.ApplyPlayerMove(m.From, m.To); !res.Accepted {
			return fmt.Errorf("move %d (%s): %w", i+1, m, engine.ErrIllegalMove)
		}
	}
	for _, side := range []engine.Side{engine.Red, engine.Black} {
		s := skill[side]
		fmt.Printf("  %-5s %d moves, loss %.1f per move, %d ??, %d ?, %d ?!\n",
			side, s.Moves, s.LossPerMove,
			s.Counts[engine.SkillVeryBad], s.Counts[engine.SkillBad], s.Counts[engine.SkillDoubtful])
	}
	return nil
}
