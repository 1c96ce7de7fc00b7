// Package session keeps in-memory checkers games between HTTP requests and
// plays the CPU side of each game.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yourusername/ckengine/pkg/engine"
)

var (
	ErrNotFound     = errors.New("game not found")
	ErrTooManyGames = errors.New("too many games")
	ErrGameOver     = errors.New("game is over")
	ErrCPUTurn      = errors.New("it is the CPU's turn")
	ErrNoMove       = errors.New("no move available")
)

// Settings controls who plays a game.
type Settings struct {
	CPU     bool        // the engine plays CPUSide
	CPUSide engine.Side // ignored unless CPU is set
	Depth   int         // search depth, 0 = engine default
}

// Snapshot is a consistent copy of a game's state.
type Snapshot struct {
	ID           string
	Version      int // increments on every change
	Board        *engine.Board
	Settings     Settings
	History      []engine.Move
	GameOver     bool
	Winner       engine.Side // valid when GameOver
	NoLegalMoves bool        // the winner is stuck as well
	Created      time.Time
	Updated      time.Time
}

// Outcome reports a player's move and the CPU replies it triggered.
type Outcome struct {
	Result   engine.MoveResult
	CPUMoves []engine.Move
	State    Snapshot
}

// Game is one running game. All methods are safe for concurrent use; moves
// on the same game are serialised.
type Game struct {
	id      string
	engine  *engine.Engine
	created time.Time

	mu       sync.Mutex
	board    *engine.Board
	settings Settings
	history  []engine.Move
	version  int
	updated  time.Time
	subs     map[chan Snapshot]struct{}
}

func newGame(id string, e *engine.Engine, settings Settings) *Game {
	now := time.Now()
	return &Game{
		id:       id,
		engine:   e,
		created:  now,
		updated:  now,
		board:    engine.NewBoard(),
		settings: settings,
		subs:     make(map[chan Snapshot]struct{}),
	}
}

// ID returns the game id.
func (g *Game) ID() string {
	return g.id
}

// State returns the current state.
func (g *Game) State() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// Move plays a move for the side to move and, if the CPU holds the turn
// afterwards, lets it reply until the turn comes back or the game ends.
// A rejected move is reported in Outcome.Result, not as an error.
func (g *Game) Move(ctx context.Context, from, to engine.Pos) (Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.board.IsGameOver() {
		return Outcome{State: g.snapshotLocked()}, ErrGameOver
	}
	if g.cpuToMoveLocked() {
		return Outcome{State: g.snapshotLocked()}, ErrCPUTurn
	}

	res := g.board.ApplyPlayerMove(from, to)
	out := Outcome{Result: res}
	if res.Accepted {
		g.history = append(g.history, res.Applied.Move)
		out.CPUMoves = g.playCPULocked(ctx)
		g.changedLocked()
	}
	out.State = g.snapshotLocked()

	log.Debug().
		Str("game", g.id).
		Bool("accepted", res.Accepted).
		Str("move", engine.Move{From: from, To: to}.String()).
		Int("cpu_moves", len(out.CPUMoves)).
		Msg("player move")
	return out, nil
}

// PlayEngine lets the engine play the whole turn of the side to move,
// including any capture chain, then hands over to the CPU if it holds the
// turn next.
func (g *Game) PlayEngine(ctx context.Context) ([]engine.Move, Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.board.IsGameOver() {
		return nil, g.snapshotLocked(), ErrGameOver
	}

	side := g.board.Turn()
	moves := g.playSideLocked(ctx, side)
	if len(moves) == 0 {
		return nil, g.snapshotLocked(), ErrNoMove
	}
	moves = append(moves, g.playCPULocked(ctx)...)
	g.changedLocked()
	return moves, g.snapshotLocked(), nil
}

// Reset restarts the game from the initial position, keeping its settings.
func (g *Game) Reset(ctx context.Context) Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.board = engine.NewBoard()
	g.history = nil
	g.playCPULocked(ctx)
	g.changedLocked()
	return g.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every change. The
// current state is delivered first. Slow subscribers miss updates rather
// than block the game. Call the returned function to unsubscribe.
func (g *Game) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	g.mu.Lock()
	g.subs[ch] = struct{}{}
	ch <- g.snapshotLocked()
	g.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			g.mu.Lock()
			if _, ok := g.subs[ch]; ok {
				delete(g.subs, ch)
				close(ch)
			}
			g.mu.Unlock()
		})
	}
}

// close ends all subscriptions; used when the game is deleted.
func (g *Game) close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for ch := range g.subs {
		delete(g.subs, ch)
		close(ch)
	}
}

// start runs the CPU's opening moves when it plays Red.
func (g *Game) start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.playCPULocked(ctx)) > 0 {
		g.changedLocked()
	}
}

func (g *Game) cpuToMoveLocked() bool {
	return g.settings.CPU && g.board.Turn() == g.settings.CPUSide
}

// playCPULocked moves for the CPU while it holds the turn.
func (g *Game) playCPULocked(ctx context.Context) []engine.Move {
	if !g.settings.CPU {
		return nil
	}
	return g.playSideLocked(ctx, g.settings.CPUSide)
}

// playSideLocked searches and plays moves for side while side is to move.
// A capture chain keeps the turn, so this can play several moves. It stops
// early if ctx is cancelled.
func (g *Game) playSideLocked(ctx context.Context, side engine.Side) []engine.Move {
	var played []engine.Move
	for g.board.Turn() == side && !g.board.IsGameOver() {
		if ctx.Err() != nil {
			log.Warn().Str("game", g.id).Err(ctx.Err()).Msg("engine turn interrupted")
			break
		}
		r := g.engine.Analyze(g.board, side, g.settings.Depth)
		if !r.Found {
			break
		}
		res := g.board.ApplyPlayerMove(r.Move.From, r.Move.To)
		if !res.Accepted {
			log.Error().Str("game", g.id).Str("move", r.Move.String()).Msg("engine chose a rejected move")
			break
		}
		played = append(played, r.Move)
		g.history = append(g.history, r.Move)
	}
	return played
}

func (g *Game) changedLocked() {
	g.version++
	g.updated = time.Now()
	snap := g.snapshotLocked()
	for ch := range g.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (g *Game) snapshotLocked() Snapshot {
	s := Snapshot{
		ID:       g.id,
		Version:  g.version,
		Board:    g.board.Clone(),
		Settings: g.settings,
		History:  append([]engine.Move(nil), g.history...),
		Created:  g.created,
		Updated:  g.updated,
	}
	s.Winner, s.GameOver = g.board.Winner()
	if s.GameOver {
		s.NoLegalMoves = !g.board.HasAnyMove(s.Winner)
	}
	return s
}
