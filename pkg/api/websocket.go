package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/yourusername/ckengine/pkg/engine"
	"github.com/yourusername/ckengine/pkg/session"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins - configure properly in production
	},
}

// WSMessage is a request from the client.
type WSMessage struct {
	Type    string          `json:"type"`              // "move", "cpu", "reset", "state", "ping"
	ID      string          `json:"id,omitempty"`      // Request ID for correlating responses
	Payload json.RawMessage `json:"payload,omitempty"` // Type-specific payload
}

// WSResponse is a message to the client. Besides replies to requests, a
// "state" message without ID is pushed after every change to the game.
type WSResponse struct {
	Type    string      `json:"type"`              // "result", "state", "error", "pong", "done"
	ID      string      `json:"id,omitempty"`      // Request ID
	Payload interface{} `json:"payload,omitempty"` // Response data
	Error   string      `json:"error,omitempty"`   // Error message if any
	Code    string      `json:"code,omitempty"`    // Error code if any
}

// WSClient is one socket attached to a game.
type WSClient struct {
	conn     *websocket.Conn
	handlers *Handlers
	game     *session.Game
	sendChan chan WSResponse
	done     chan struct{}
}

// WebSocket attaches a socket to a game.
// GET /api/games/{id}/ws
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	g, ok := h.game(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("game", g.ID()).Msg("websocket upgrade failed")
		return
	}

	c := &WSClient{
		conn:     conn,
		handlers: h,
		game:     g,
		sendChan: make(chan WSResponse, 64),
		done:     make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates, unsubscribe := g.Subscribe()
	defer unsubscribe()

	go c.writePump()
	go c.forward(updates)
	c.readPump(ctx)
}

// send queues a message unless the client is gone.
func (c *WSClient) send(msg WSResponse) {
	select {
	case c.sendChan <- msg:
	case <-c.done:
	}
}

func (c *WSClient) sendError(id string, code string, msg string) {
	c.send(WSResponse{Type: "error", ID: id, Error: msg, Code: code})
}

// forward pushes game updates to the client.
func (c *WSClient) forward(updates <-chan session.Snapshot) {
	for {
		select {
		case <-c.done:
			return
		case st, open := <-updates:
			if !open {
				c.send(WSResponse{Type: "done"})
				return
			}
			c.send(WSResponse{Type: "state", Payload: GameToResponse(st)})
		}
	}
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
			return
		case msg := <-c.sendChan:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) readPump(ctx context.Context) {
	defer close(c.done)
	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("game", c.game.ID()).Msg("websocket closed")
			}
			return
		}
		c.handleMessage(ctx, msg)
	}
}

func (c *WSClient) handleMessage(ctx context.Context, msg WSMessage) {
	switch msg.Type {
	case "move":
		c.handleMove(ctx, msg)
	case "cpu":
		c.handleEngineMove(ctx, msg)
	case "reset":
		c.withSlot(ctx, msg.ID, c.game.State().Settings.CPU, func() {
			c.send(WSResponse{Type: "result", ID: msg.ID, Payload: GameToResponse(c.game.Reset(ctx))})
		})
	case "state":
		c.send(WSResponse{Type: "result", ID: msg.ID, Payload: GameToResponse(c.game.State())})
	case "ping":
		c.send(WSResponse{Type: "pong", ID: msg.ID})
	default:
		c.sendError(msg.ID, "UNKNOWN_TYPE", "unknown message type")
	}
}

// withSlot runs fn inside a worker pool slot.
func (c *WSClient) withSlot(ctx context.Context, id string, search bool, fn func()) {
	pool := c.handlers.pool
	if pool == nil {
		fn()
		return
	}
	acquire, release := pool.AcquireFast, pool.ReleaseFast
	if search {
		acquire, release = pool.AcquireSlow, pool.ReleaseSlow
	}
	if err := acquire(ctx); err != nil {
		c.sendError(id, CodeServerBusy, "server busy")
		return
	}
	defer release()
	fn()
}

func (c *WSClient) handleMove(ctx context.Context, msg WSMessage) {
	var req MoveRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		c.sendError(msg.ID, CodeInvalidJSON, "invalid payload")
		return
	}
	from := engine.Pos{Row: req.Start[0], Col: req.Start[1]}
	to := engine.Pos{Row: req.End[0], Col: req.End[1]}

	c.withSlot(ctx, msg.ID, c.game.State().Settings.CPU, func() {
		out, err := c.game.Move(ctx, from, to)
		if err != nil {
			_, code := sessionErrorStatus(err)
			c.sendError(msg.ID, code, err.Error())
			return
		}
		c.send(WSResponse{Type: "result", ID: msg.ID, Payload: OutcomeToResponse(out)})
	})
}

func (c *WSClient) handleEngineMove(ctx context.Context, msg WSMessage) {
	c.withSlot(ctx, msg.ID, true, func() {
		moves, st, err := c.game.PlayEngine(ctx)
		if err != nil {
			_, code := sessionErrorStatus(err)
			c.sendError(msg.ID, code, err.Error())
			return
		}
		c.send(WSResponse{Type: "result", ID: msg.ID, Payload: EngineMoveResponse{Moves: movesToJSON(moves), Game: GameToResponse(st)}})
	})
}
