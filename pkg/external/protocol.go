// Package external implements a line based external player protocol.
// This allows other checkers programs to use the engine over a TCP socket.
//
// Protocol overview:
// - Server listens on a TCP address
// - Client connects and sends one command per line
// - Commands include: best, eval, moves, set, version, exit
// - Positions are sent as board text (see ParseBoardText)
// - Each command gets exactly one response line
package external

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/yourusername/ckengine/pkg/engine"
	"github.com/yourusername/ckengine/pkg/record"
)

// ProtocolVersion is reported by the version command.
const ProtocolVersion = "ckengine external player protocol 1.0"

// Server implements the external player protocol server.
type Server struct {
	engine   *engine.Engine
	listener net.Listener
	mu       sync.Mutex
	running  bool
	active   map[net.Conn]struct{}
	conns    sync.WaitGroup
	options  ServerOptions
}

// ServerOptions configures the external player server.
type ServerOptions struct {
	Addr          string // TCP address to listen on
	Depth         int    // Search depth for new connections
	PromptEnabled bool   // Send prompts after responses
}

// DefaultServerOptions returns sensible defaults.
func DefaultServerOptions() ServerOptions {
	return ServerOptions{
		Addr:  ":1234",
		Depth: engine.DefaultDepth,
	}
}

// NewServer creates a new external player server.
func NewServer(eng *engine.Engine, opts ServerOptions) *Server {
	return &Server{
		engine:  eng,
		active:  make(map[net.Conn]struct{}),
		options: opts,
	}
}

// Start begins listening for connections.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.options.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.options.Addr, err)
	}

	s.listener = listener
	s.running = true
	log.Info().Str("addr", listener.Addr().String()).Msg("external player protocol listening")

	go s.acceptLoop()

	return nil
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop stops accepting connections, closes open sessions and waits for
// their handlers to return.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	err := s.listener.Close()
	for conn := range s.active {
		conn.Close()
	}
	s.mu.Unlock()

	s.conns.Wait()
	return err
}

// acceptLoop accepts incoming connections.
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()
			if !running || errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn().Err(err).Msg("external accept failed")
			continue
		}

		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.active[conn] = struct{}{}
		s.conns.Add(1)
		s.mu.Unlock()

		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)

			s.mu.Lock()
			delete(s.active, conn)
			s.mu.Unlock()
		}()
	}
}

// session is the per-connection state.
type session struct {
	depth int
}

// handleConnection handles a single client connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("external client connected")

	sess := &session{depth: s.options.Depth}
	reader := bufio.NewReader(conn)

	if s.options.PromptEnabled {
		conn.Write([]byte("> "))
	}

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				log.Debug().Err(err).Msg("external client read failed")
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		response := s.processCommand(sess, line)
		if _, err := conn.Write([]byte(response)); err != nil {
			return
		}

		command := strings.ToLower(strings.Fields(line)[0])
		if command == "exit" || command == "quit" {
			return
		}

		if s.options.PromptEnabled {
			conn.Write([]byte("> "))
		}
	}
}

// processCommand processes a single command and returns the response.
func (s *Server) processCommand(sess *session, cmd string) string {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return "Error: empty command\n"
	}

	command := strings.ToLower(parts[0])

	switch command {
	case "version":
		return ProtocolVersion + "\n"

	case "help":
		return helpResponse

	case "exit", "quit":
		return "Goodbye\n"

	case "set":
		return s.handleSet(sess, parts[1:])

	case "evaluation", "eval":
		return s.handleEvaluation(cmd)

	case "moves":
		return s.handleMoves(cmd)

	case "best":
		return s.handleBest(sess, cmd)

	default:
		// A bare board asks for the best move
		if strings.HasPrefix(cmd, boardPrefix) {
			return s.handleBest(sess, cmd)
		}
		return fmt.Sprintf("Error: unknown command '%s'\n", command)
	}
}

const helpResponse = "commands: version, help, set depth <n>, eval <board>, moves <board>, best <board>, exit\n"

// boardArg extracts the board text of a command.
func boardArg(cmd string) (*engine.Board, error) {
	start := strings.Index(cmd, boardPrefix)
	if start < 0 {
		return nil, fmt.Errorf("no board specified")
	}
	return ParseBoardText(cmd[start:])
}

// handleSet handles the set command.
func (s *Server) handleSet(sess *session, args []string) string {
	if len(args) < 2 {
		return "Error: set requires option and value\n"
	}

	option := strings.ToLower(args[0])
	value := args[1]

	switch option {
	case "depth", "plies":
		depth, err := strconv.Atoi(value)
		if err != nil || depth < 1 || depth > engine.MaxDepth {
			return fmt.Sprintf("Error: depth must be 1-%d\n", engine.MaxDepth)
		}
		sess.depth = depth
		return fmt.Sprintf("depth set to %d\n", depth)

	default:
		return fmt.Sprintf("Error: unknown option '%s'\n", option)
	}
}

// handleEvaluation returns the material balance for the side to move.
func (s *Server) handleEvaluation(cmd string) string {
	b, err := boardArg(cmd)
	if err != nil {
		return fmt.Sprintf("Error: %v\n", err)
	}
	return fmt.Sprintf("%d\n", s.engine.Evaluate(b, b.Turn()))
}

// handleMoves lists the legal moves of the side to move.
func (s *Server) handleMoves(cmd string) string {
	b, err := boardArg(cmd)
	if err != nil {
		return fmt.Sprintf("Error: %v\n", err)
	}
	moves := b.PossibleMoves(b.Turn())
	if len(moves) == 0 {
		return "cannot move\n"
	}
	strs := make([]string, len(moves))
	for i, m := range moves {
		strs[i] = m.String()
	}
	return strings.Join(strs, " ") + "\n"
}

// handleBest returns the engine's whole turn for the side to move, so a
// capture chain comes back as one move such as "25x18x11".
func (s *Server) handleBest(sess *session, cmd string) string {
	b, err := boardArg(cmd)
	if err != nil {
		return fmt.Sprintf("Error: %v\n", err)
	}

	side := b.Turn()
	turn := record.Turn{Side: side}
	for b.Turn() == side && !b.IsGameOver() {
		r := s.engine.Analyze(b, side, sess.depth)
		if !r.Found {
			break
		}
		if res := b.ApplyPlayerMove(r.Move.From, r.Move.To); !res.Accepted {
			return fmt.Sprintf("Error: engine move %s rejected\n", r.Move)
		}
		turn.Moves = append(turn.Moves, r.Move)
	}

	if len(turn.Moves) == 0 {
		return "cannot move\n"
	}
	return turn.String() + "\n"
}
