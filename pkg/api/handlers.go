package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/yourusername/ckengine/pkg/engine"
	"github.com/yourusername/ckengine/pkg/record"
	"github.com/yourusername/ckengine/pkg/session"
)

// Handlers holds the HTTP handlers and the game store.
type Handlers struct {
	store    *session.Store
	engine   *engine.Engine
	version  string
	pool     *WorkerPool
	defaults session.Settings
}

// NewHandlers creates a new Handlers instance without a worker pool.
func NewHandlers(store *session.Store, version string) *Handlers {
	return NewHandlersWithPool(store, version, nil)
}

// NewHandlersWithPool creates a new Handlers instance with a worker pool.
func NewHandlersWithPool(store *session.Store, version string, pool *WorkerPool) *Handlers {
	return &Handlers{
		store:    store,
		engine:   store.Engine(),
		version:  version,
		pool:     pool,
		defaults: session.Settings{CPU: true, CPUSide: engine.Black},
	}
}

// SetDefaults sets the settings used for games created without explicit
// options.
func (h *Handlers) SetDefaults(s session.Settings) {
	h.defaults = s
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("writing response")
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, msg string, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: msg,
		Code:  code,
	})
}

// sessionErrorStatus maps session errors to a status code and error code.
func sessionErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, CodeGameNotFound
	case errors.Is(err, session.ErrTooManyGames):
		return http.StatusServiceUnavailable, CodeTooManyGames
	case errors.Is(err, session.ErrGameOver):
		return http.StatusConflict, CodeGameOver
	case errors.Is(err, session.ErrCPUTurn):
		return http.StatusConflict, CodeNotYourTurn
	case errors.Is(err, session.ErrNoMove):
		return http.StatusConflict, CodeNoMove
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func writeSessionError(w http.ResponseWriter, err error) {
	status, code := sessionErrorStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("unexpected session error")
	}
	writeError(w, status, err.Error(), code)
}

// acquire takes a pool slot for the request. Searches use the slow lane.
// On failure the error response has been written and ok is false.
func (h *Handlers) acquire(w http.ResponseWriter, r *http.Request, search bool) (release func(), ok bool) {
	if h.pool == nil {
		return func() {}, true
	}
	if search {
		if err := h.pool.AcquireSlow(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "server busy", CodeServerBusy)
			return nil, false
		}
		return h.pool.ReleaseSlow, true
	}
	if err := h.pool.AcquireFast(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", CodeServerBusy)
		return nil, false
	}
	return h.pool.ReleaseFast, true
}

func (h *Handlers) game(w http.ResponseWriter, r *http.Request) (*session.Game, bool) {
	g, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeSessionError(w, err)
		return nil, false
	}
	return g, true
}

// Health handles GET /api/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
		Ready:   h.engine != nil,
		Games:   h.store.Len(),
	}
	if h.pool != nil {
		stats := h.pool.Stats()
		resp.Pool = &stats
	}
	if h.engine != nil && h.engine.Cache() != nil {
		stats := h.engine.Cache().Stats()
		resp.Cache = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

// settingsFromRequest fills in the request's options over the defaults.
func (h *Handlers) settingsFromRequest(req CreateGameRequest) (session.Settings, error) {
	s := h.defaults
	if req.CPUSide != nil {
		if *req.CPUSide == "" {
			s.CPU = false
		} else {
			side, err := engine.ParseSide(*req.CPUSide)
			if err != nil {
				return s, err
			}
			s.CPU, s.CPUSide = true, side
		}
	}
	if req.Depth < 0 || req.Depth > engine.MaxDepth {
		return s, fmt.Errorf("depth must be between 1 and %d", engine.MaxDepth)
	}
	if req.Depth > 0 {
		s.Depth = req.Depth
	}
	return s, nil
}

// CreateGame handles POST /api/games
func (h *Handlers) CreateGame(w http.ResponseWriter, r *http.Request) {
	// An empty body means defaults
	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON", CodeInvalidJSON)
		return
	}
	settings, err := h.settingsFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_SETTINGS")
		return
	}

	// The CPU opens when it plays Red
	release, ok := h.acquire(w, r, settings.CPU && settings.CPUSide == engine.Red)
	if !ok {
		return
	}
	defer release()

	g, err := h.store.Create(r.Context(), settings)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, GameToResponse(g.State()))
}

// GetGame handles GET /api/games/{id}
func (h *Handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	g, ok := h.game(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, GameToResponse(g.State()))
}

// DeleteGame handles DELETE /api/games/{id}
func (h *Handlers) DeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, "id")); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Move handles POST /api/games/{id}/move
func (h *Handlers) Move(w http.ResponseWriter, r *http.Request) {
	g, ok := h.game(w, r)
	if !ok {
		return
	}

	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", CodeInvalidJSON)
		return
	}

	release, ok := h.acquire(w, r, g.State().Settings.CPU)
	if !ok {
		return
	}
	defer release()

	from := engine.Pos{Row: req.Start[0], Col: req.Start[1]}
	to := engine.Pos{Row: req.End[0], Col: req.End[1]}
	out, err := g.Move(r.Context(), from, to)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OutcomeToResponse(out))
}

// Reset handles POST /api/games/{id}/reset
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	g, ok := h.game(w, r)
	if !ok {
		return
	}
	release, ok := h.acquire(w, r, g.State().Settings.CPU)
	if !ok {
		return
	}
	defer release()

	writeJSON(w, http.StatusOK, GameToResponse(g.Reset(r.Context())))
}

// EngineMove handles POST /api/games/{id}/cpu
func (h *Handlers) EngineMove(w http.ResponseWriter, r *http.Request) {
	g, ok := h.game(w, r)
	if !ok {
		return
	}
	release, ok := h.acquire(w, r, true)
	if !ok {
		return
	}
	defer release()

	moves, st, err := g.PlayEngine(r.Context())
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EngineMoveResponse{Moves: movesToJSON(moves), Game: GameToResponse(st)})
}

func playerName(settings session.Settings, side engine.Side) string {
	if settings.CPU && settings.CPUSide == side {
		return "CPU"
	}
	return "Player"
}

// GameRecord handles GET /api/games/{id}/pdn
func (h *Handlers) GameRecord(w http.ResponseWriter, r *http.Request) {
	g, ok := h.game(w, r)
	if !ok {
		return
	}
	st := g.State()

	rec := record.NewGame(playerName(st.Settings, engine.Red), playerName(st.Settings, engine.Black))
	rec.Event = "Game " + st.ID
	rec.Date = st.Created.Format("2006.01.02")
	rec.Moves = st.History
	if st.GameOver {
		rec.Result = record.WinnerResult(st.Winner)
	}

	var buf bytes.Buffer
	if err := record.Write(&buf, rec); err != nil {
		log.Error().Err(err).Str("game", st.ID).Msg("game record export failed")
		writeError(w, http.StatusInternalServerError, "cannot export game", "INTERNAL")
		return
	}
	w.Header().Set("Content-Type", "application/x-pdn; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdn"`, st.ID))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// parseAnalyzeBoard builds the board of an analysis request.
func parseAnalyzeBoard(req AnalyzeRequest) (*engine.Board, error) {
	if req.Position != "" {
		return engine.BoardFromPositionID(req.Position)
	}
	if req.Board == nil {
		return nil, errors.New("position or board is required")
	}
	turn := engine.Red
	if req.Turn != "" {
		t, err := engine.ParseSide(req.Turn)
		if err != nil {
			return nil, err
		}
		turn = t
	}
	return engine.FromGrid(req.Board, turn)
}

// Analyze handles POST /api/analyze
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", CodeInvalidJSON)
		return
	}

	b, err := parseAnalyzeBoard(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidPosition)
		return
	}
	if req.Depth < 0 || req.Depth > engine.MaxDepth {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("depth must be between 1 and %d", engine.MaxDepth), "INVALID_SETTINGS")
		return
	}
	side := b.Turn()
	if req.Side != "" {
		if side, err = engine.ParseSide(req.Side); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidPosition)
			return
		}
	}

	release, ok := h.acquire(w, r, true)
	if !ok {
		return
	}
	defer release()

	res := h.engine.Analyze(b, side, req.Depth)
	resp := AnalyzeResponse{
		Found:      res.Found,
		Score:      res.Score,
		Evaluation: h.engine.Evaluate(b, side),
		Side:       side.String(),
		Depth:      res.Depth,
		Nodes:      res.Nodes,
		Cached:     res.Cached,
		ElapsedMs:  float64(res.Elapsed.Microseconds()) / 1000,
		NumLegal:   len(b.PossibleMoves(side)),
		Position:   b.PositionID(),
	}
	if res.Found {
		m := MoveToJSON(res.Move)
		resp.Move = &m
	}
	if req.Rank {
		ranked := h.engine.RankMoves(b, side, res.Depth)
		resp.Ranked = make([]RankedMove, len(ranked.Moves))
		for i, sm := range ranked.Moves {
			resp.Ranked[i] = RankedMove{Move: MoveToJSON(sm.Move), Score: sm.Score}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
