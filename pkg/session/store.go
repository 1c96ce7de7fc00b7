package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/yourusername/ckengine/pkg/engine"
)

// DefaultMaxGames bounds the number of live games when no limit is given.
const DefaultMaxGames = 1000

// Store holds the live games, keyed by id.
type Store struct {
	engine   *engine.Engine
	maxGames int

	mu    sync.RWMutex
	games map[string]*Game
}

// NewStore creates an empty store whose games search with e.
func NewStore(e *engine.Engine, maxGames int) *Store {
	if maxGames <= 0 {
		maxGames = DefaultMaxGames
	}
	return &Store{
		engine:   e,
		maxGames: maxGames,
		games:    make(map[string]*Game),
	}
}

// Create starts a new game. If the CPU plays Red it makes its first move
// before Create returns.
func (s *Store) Create(ctx context.Context, settings Settings) (*Game, error) {
	s.mu.Lock()
	if len(s.games) >= s.maxGames {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManyGames, s.maxGames)
	}
	g := newGame(uuid.NewString(), s.engine, settings)
	s.games[g.id] = g
	n := len(s.games)
	s.mu.Unlock()

	g.start(ctx)

	ev := log.Info().Str("game", g.id).Int("games", n).Int("depth", settings.Depth)
	if settings.CPU {
		ev = ev.Str("cpu", settings.CPUSide.String())
	}
	ev.Msg("game created")
	return g, nil
}

// Get returns the game with the given id.
func (s *Store) Get(id string) (*Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return g, nil
}

// Delete removes a game and closes its subscriptions.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	g, ok := s.games[id]
	delete(s.games, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	g.close()
	log.Info().Str("game", id).Msg("game deleted")
	return nil
}

// Len returns the number of live games.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// Engine returns the engine shared by the store's games.
func (s *Store) Engine() *engine.Engine {
	return s.engine
}
