package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/ckengine/pkg/engine"
	"github.com/yourusername/ckengine/pkg/session"
)

// newTestServer returns a server with a shallow engine so CPU replies are fast.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	e := engine.NewEngine(engine.EngineOptions{Depth: 2, CacheSize: 1024})
	return NewServer(session.NewStore(e, 10), DefaultConfig(), "test-version")
}

// do sends a JSON request to the router and decodes the response into out.
func do(t *testing.T, h http.Handler, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if out != nil && w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), "body: %s", w.Body.String())
	}
	return w.Code
}

func createGame(t *testing.T, h http.Handler, req CreateGameRequest) *GameResponse {
	t.Helper()
	var game GameResponse
	require.Equal(t, http.StatusCreated, do(t, h, "POST", "/api/games", req, &game))
	return &game
}

func sideOpt(s string) *string {
	return &s
}

func TestHealthHandler(t *testing.T) {
	h := newTestServer(t).Routes()
	createGame(t, h, CreateGameRequest{})

	var health HealthResponse
	require.Equal(t, http.StatusOK, do(t, h, "GET", "/api/health", nil, &health))
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "test-version", health.Version)
	require.True(t, health.Ready)
	require.Equal(t, 1, health.Games)
	require.NotNil(t, health.Pool)
	require.Equal(t, 4, health.Pool.MaxSlow)
	require.NotNil(t, health.Cache)
}

func TestCreateGame(t *testing.T) {
	h := newTestServer(t).Routes()

	t.Run("defaults", func(t *testing.T) {
		var game GameResponse
		require.Equal(t, http.StatusCreated, do(t, h, "POST", "/api/games", nil, &game))
		require.NotEmpty(t, game.ID)
		require.Equal(t, "B", game.CPUSide)
		require.Equal(t, "R", game.CurrentPlayer)
		require.Equal(t, "B", game.Board[0][1])
		require.Equal(t, "", game.Board[0][0])
		require.Equal(t, "R", game.Board[7][0])
		require.Len(t, game.LegalMoves, 7)
		require.Empty(t, game.History)
		require.Nil(t, game.Winner)
		require.False(t, game.GameOver)
		require.Len(t, game.Position, 18)
	})

	t.Run("cpu opens as red", func(t *testing.T) {
		game := createGame(t, h, CreateGameRequest{CPUSide: sideOpt("R"), Depth: 1})
		require.Equal(t, "B", game.CurrentPlayer)
		require.Len(t, game.History, 1)
		require.Equal(t, 1, game.Depth)
	})

	t.Run("bad settings", func(t *testing.T) {
		var errResp ErrorResponse
		require.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/api/games", CreateGameRequest{CPUSide: sideOpt("X")}, &errResp))
		require.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/api/games", CreateGameRequest{Depth: 99}, &errResp))
		require.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/api/games", "{not json", &errResp))
		require.Equal(t, CodeInvalidJSON, errResp.Code)
	})
}

func TestGameLifecycle(t *testing.T) {
	h := newTestServer(t).Routes()
	game := createGame(t, h, CreateGameRequest{CPUSide: sideOpt("")})
	path := "/api/games/" + game.ID

	var got GameResponse
	require.Equal(t, http.StatusOK, do(t, h, "GET", path, nil, &got))
	require.Equal(t, game.ID, got.ID)
	require.Empty(t, got.CPUSide)

	require.Equal(t, http.StatusNoContent, do(t, h, "DELETE", path, nil, nil))

	var errResp ErrorResponse
	require.Equal(t, http.StatusNotFound, do(t, h, "GET", path, nil, &errResp))
	require.Equal(t, CodeGameNotFound, errResp.Code)
	require.Equal(t, http.StatusNotFound, do(t, h, "DELETE", path, nil, &errResp))
	require.Equal(t, http.StatusNotFound, do(t, h, "POST", path+"/move", MoveRequest{}, &errResp))
}

func TestMoveHandlerTwoPlayers(t *testing.T) {
	h := newTestServer(t).Routes()
	game := createGame(t, h, CreateGameRequest{CPUSide: sideOpt("")})
	path := "/api/games/" + game.ID + "/move"

	move := func(start, end [2]int) MoveResponse {
		var resp MoveResponse
		require.Equal(t, http.StatusOK, do(t, h, "POST", path, MoveRequest{Start: start, End: end}, &resp))
		return resp
	}

	resp := move([2]int{5, 0}, [2]int{3, 0})
	require.False(t, resp.Valid)
	require.Equal(t, CodeIllegalMove, resp.Code)

	resp = move([2]int{5, 2}, [2]int{4, 3})
	require.True(t, resp.Valid)
	require.Equal(t, "B", resp.CurrentPlayer)
	require.Empty(t, resp.CPUMoves)

	resp = move([2]int{5, 0}, [2]int{4, 1})
	require.False(t, resp.Valid)
	require.Equal(t, CodeNotYourTurn, resp.Code)

	require.True(t, move([2]int{2, 3}, [2]int{3, 4}).Valid)
	require.True(t, move([2]int{4, 3}, [2]int{3, 2}).Valid)

	resp = move([2]int{2, 5}, [2]int{3, 6})
	require.False(t, resp.Valid)
	require.True(t, resp.MandatoryCapture)
	require.Equal(t, CodeMustCapture, resp.Code)
	require.True(t, resp.Game.MandatoryCapture)

	resp = move([2]int{2, 1}, [2]int{4, 3})
	require.True(t, resp.Valid)
	require.False(t, resp.ContinueTurn)
	require.Equal(t, "R", resp.CurrentPlayer)
	require.Equal(t, "", resp.Board[3][2])
	require.Equal(t, "B", resp.Board[4][3])
	require.Equal(t, []string{"22-18", "10-15", "18-14", "9x18"}, resp.Game.History)

	var errResp ErrorResponse
	require.Equal(t, http.StatusBadRequest, do(t, h, "POST", path, "[", &errResp))
	require.Equal(t, CodeInvalidJSON, errResp.Code)

	req := httptest.NewRequest("GET", "/api/games/"+game.ID+"/pdn", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "application/x-pdn")
	require.Contains(t, w.Body.String(), `[Red "Player"]`)
	require.Contains(t, w.Body.String(), "1. 22-18 10-15 2. 18-14 9x18 *")
}

func TestMoveHandlerCPUReplies(t *testing.T) {
	h := newTestServer(t).Routes()
	game := createGame(t, h, CreateGameRequest{})

	var resp MoveResponse
	require.Equal(t, http.StatusOK, do(t, h, "POST", "/api/games/"+game.ID+"/move",
		MoveRequest{Start: [2]int{5, 2}, End: [2]int{4, 3}}, &resp))
	require.True(t, resp.Valid)
	require.NotEmpty(t, resp.CPUMoves)
	require.Equal(t, "R", resp.CurrentPlayer)
	require.Len(t, resp.Game.History, 1+len(resp.CPUMoves))
	require.Equal(t, resp.CPUMoves[0].Notation, resp.Game.History[1])
}

func TestResetAndEngineMove(t *testing.T) {
	h := newTestServer(t).Routes()
	game := createGame(t, h, CreateGameRequest{CPUSide: sideOpt("")})
	path := "/api/games/" + game.ID

	var played EngineMoveResponse
	require.Equal(t, http.StatusOK, do(t, h, "POST", path+"/cpu", nil, &played))
	require.Len(t, played.Moves, 1)
	require.Equal(t, "B", played.Game.CurrentPlayer)

	var reset GameResponse
	require.Equal(t, http.StatusOK, do(t, h, "POST", path+"/reset", nil, &reset))
	require.Empty(t, reset.History)
	require.Equal(t, "R", reset.CurrentPlayer)
	require.Equal(t, game.Position, reset.Position)
	require.Equal(t, 2, reset.Version)
}

func TestAnalyzeHandler(t *testing.T) {
	h := newTestServer(t).Routes()

	safeCapture := make([][]string, 8)
	for i := range safeCapture {
		safeCapture[i] = make([]string, 8)
	}
	safeCapture[5][0], safeCapture[6][7] = "R", "R"
	safeCapture[4][1], safeCapture[5][6], safeCapture[2][3], safeCapture[1][4] = "B", "B", "B", "B"

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		check      func(t *testing.T, resp AnalyzeResponse)
	}{
		{
			name:       "start position id",
			body:       AnalyzeRequest{Position: "27Zt2wYAAJAkSZIkAA", Depth: 2},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, resp AnalyzeResponse) {
				require.True(t, resp.Found)
				require.Equal(t, "R", resp.Side)
				require.Equal(t, 7, resp.NumLegal)
				require.Zero(t, resp.Evaluation)
			},
		},
		{
			name:       "board grid",
			body:       AnalyzeRequest{Board: safeCapture, Depth: 2, Rank: true},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, resp AnalyzeResponse) {
				require.True(t, resp.Found)
				require.Equal(t, [2]int{6, 7}, resp.Move.Start)
				require.Equal(t, [2]int{4, 5}, resp.Move.End)
				require.Equal(t, -100, resp.Score)
				require.Equal(t, -200, resp.Evaluation)
				require.Len(t, resp.Ranked, 2)
				require.Equal(t, "28x19", resp.Ranked[0].Move.Notation)
				require.Equal(t, -200, resp.Ranked[1].Score)
			},
		},
		{
			name:       "side without moves",
			body:       AnalyzeRequest{Board: [][]string{{"", "", "", "", "", "", "", ""}, {"", "", "", "", "", "", "", ""}, {"", "", "", "", "", "", "", ""}, {"", "", "", "", "", "", "", ""}, {"", "", "", "", "", "", "", ""}, {"R", "", "", "", "", "", "", ""}, {"", "", "", "", "", "", "", ""}, {"", "", "", "", "", "", "", ""}}, Side: "B"},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, resp AnalyzeResponse) {
				require.False(t, resp.Found)
				require.Nil(t, resp.Move)
			},
		},
		{
			name:       "bad position id",
			body:       AnalyzeRequest{Position: "not-a-position"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing position",
			body:       AnalyzeRequest{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad side",
			body:       AnalyzeRequest{Position: "27Zt2wYAAJAkSZIkAA", Side: "green"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "depth too deep",
			body:       AnalyzeRequest{Position: "27Zt2wYAAJAkSZIkAA", Depth: engine.MaxDepth + 1},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid JSON",
			body:       "{",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp AnalyzeResponse
			var out interface{} = &resp
			if tt.wantStatus != http.StatusOK {
				out = &ErrorResponse{}
			}
			require.Equal(t, tt.wantStatus, do(t, h, "POST", "/api/analyze", tt.body, out))
			if tt.check != nil {
				tt.check(t, resp)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t).Routes()
	req := httptest.NewRequest("OPTIONS", "/api/games", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

// readSSE returns the next event and its data.
func readSSE(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "" && event != "":
			return event, data
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEventsStream(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	game := createGame(t, s.Routes(), CreateGameRequest{CPUSide: sideOpt("")})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/api/games/"+game.ID+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	event, data := readSSE(t, r)
	require.Equal(t, "state", event)
	var st GameResponse
	require.NoError(t, json.Unmarshal([]byte(data), &st))
	require.Equal(t, 0, st.Version)

	body, _ := json.Marshal(MoveRequest{Start: [2]int{5, 2}, End: [2]int{4, 3}})
	moveResp, err := http.Post(srv.URL+"/api/games/"+game.ID+"/move", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	moveResp.Body.Close()

	event, data = readSSE(t, r)
	require.Equal(t, "state", event)
	require.NoError(t, json.Unmarshal([]byte(data), &st))
	require.Equal(t, 1, st.Version)
	require.Equal(t, "B", st.CurrentPlayer)

	delReq, _ := http.NewRequest("DELETE", srv.URL+"/api/games/"+game.ID, nil)
	delResp, err := http.DefaultClient.Do(delReq)
	require.NoError(t, err)
	delResp.Body.Close()

	event, _ = readSSE(t, r)
	require.Equal(t, "done", event)
}

// readUntil reads socket messages until one matches.
func readUntil(t *testing.T, ws *websocket.Conn, match func(WSResponse) bool) WSResponse {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg WSResponse
		require.NoError(t, ws.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func TestWebSocketGame(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	game := createGame(t, s.Routes(), CreateGameRequest{})
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/games/" + game.ID + "/ws"
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer ws.Close()
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	first := readUntil(t, ws, func(m WSResponse) bool { return true })
	require.Equal(t, "state", first.Type)

	require.NoError(t, ws.WriteJSON(WSMessage{Type: "ping", ID: "p1"}))
	pong := readUntil(t, ws, func(m WSResponse) bool { return m.ID == "p1" })
	require.Equal(t, "pong", pong.Type)

	payload, _ := json.Marshal(MoveRequest{Start: [2]int{5, 2}, End: [2]int{4, 3}})
	require.NoError(t, ws.WriteJSON(WSMessage{Type: "move", ID: "m1", Payload: payload}))
	result := readUntil(t, ws, func(m WSResponse) bool { return m.ID == "m1" })
	require.Equal(t, "result", result.Type)

	raw, _ := json.Marshal(result.Payload)
	var moveResp MoveResponse
	require.NoError(t, json.Unmarshal(raw, &moveResp))
	require.True(t, moveResp.Valid)
	require.NotEmpty(t, moveResp.CPUMoves)

	require.NoError(t, ws.WriteJSON(WSMessage{Type: "bogus", ID: "b1"}))
	bogus := readUntil(t, ws, func(m WSResponse) bool { return m.ID == "b1" })
	require.Equal(t, "error", bogus.Type)
	require.Equal(t, "UNKNOWN_TYPE", bogus.Code)

	require.NoError(t, ws.WriteJSON(WSMessage{Type: "move", ID: "m2", Payload: json.RawMessage(`"nope"`)}))
	bad := readUntil(t, ws, func(m WSResponse) bool { return m.ID == "m2" })
	require.Equal(t, CodeInvalidJSON, bad.Code)

	require.Equal(t, http.StatusNoContent, do(t, s.Routes(), "DELETE", "/api/games/"+game.ID, nil, nil))
	readUntil(t, ws, func(m WSResponse) bool { return m.Type == "done" })
}

func TestWebSocketUnknownGame(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Routes())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/games/missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
