// internal/httpserver/server.go
//
// HTTP server wiring for the Just One backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/leaderboard", POST /session.
//   - Game endpoints (require a player session) under /games.
//   - Mapping engine errors to HTTP status codes (errors.go).
//
// Handlers stay thin: decode, call the engine once, render the view.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/robalobadob/justone/internal/apperr"
	"github.com/robalobadob/justone/internal/engine"
	"github.com/robalobadob/justone/internal/game"
	"github.com/robalobadob/justone/internal/results"
)

// Config holds transport settings.
type Config struct {
	JWTSecret     string
	TokenTTL      time.Duration
	CookieName    string
	SecureCookies bool
	ClientOrigin  string
}

// Leaderboard serves finished-game rankings.
type Leaderboard interface {
	Leaderboard(ctx context.Context, limit int) ([]results.Result, error)
}

// Server bundles router, engine and leaderboard.
type Server struct {
	r      *chi.Mux
	engine *engine.Engine
	board  Leaderboard
	cfg    Config
}

// New constructs a Server, installs middleware, and registers routes.
func New(eng *engine.Engine, board Leaderboard, cfg Config) *Server {
	if cfg.CookieName == "" {
		cfg.CookieName = "justone_token"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 14 * 24 * time.Hour
	}
	s := &Server{r: chi.NewRouter(), engine: eng, board: board, cfg: cfg}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(s.cors)                          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"service":"justone-go","endpoints":["/health","POST /session","/games","/leaderboard"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Post("/session", s.handleSession)
	s.r.Get("/leaderboard", s.handleLeaderboard)

	s.r.Route("/games", func(r chi.Router) {
		r.Use(s.requireAuth())
		r.Get("/", s.handleListGames)
		r.Post("/", s.handleCreateGame)
		r.Route("/{gameID}", func(r chi.Router) {
			r.Get("/", s.handleGetGame)
			r.Post("/start", s.handleStart)
			r.Post("/finish", s.handleFinish)
			r.Post("/players", s.handleJoin)
			r.Delete("/players/me", s.handleLeave)
			r.Post("/cards", s.handleDrawCard)
			r.Put("/word", s.handleProposeWord)
			r.Post("/word/decisions", s.handleDecide)
			r.Post("/clues", s.handleSubmitClue)
			r.Put("/clues/invalid", s.handleInvalidateClues)
			r.Post("/skip", s.handleSkip)
			r.Get("/guess", s.handleGetGuess)
			r.Post("/guess", s.handleSubmitGuess)
		})
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apperr.NotFound("no route for %s", r.URL.Path))
	})

	return s
}

// Router exposes the internal router (useful for tests and custom servers).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- helpers -----------------------------------

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, apperr.Invalid("invalid json"))
		return false
	}
	return true
}

func (s *Server) renderGame(w http.ResponseWriter, r *http.Request, g *game.Game, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(newGameView(g, currentPlayer(r.Context()).ID))
}

// requireMember loads the game and fails unless the caller plays in it.
func (s *Server) requireMember(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "gameID")
	g, err := s.engine.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return "", false
	}
	if me := currentPlayer(r.Context()); !g.HasPlayer(me.ID) {
		writeError(w, r, apperr.Forbidden("player %s is not in game %s", me.ID, id))
		return "", false
	}
	return id, true
}

// ------------------------------- games -------------------------------------

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	gs, err := s.engine.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	me := currentPlayer(r.Context()).ID
	out := make([]gameView, 0, len(gs))
	for _, g := range gs {
		out = append(out, newGameView(g, me))
	}
	_ = json.NewEncoder(w).Encode(out)
}

type createGameRes struct {
	Token string   `json:"token"`
	Game  gameView `json:"game"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	me := currentPlayer(r.Context())
	g, err := s.engine.Create(r.Context(), me.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(createGameRes{Token: g.Token, Game: newGameView(g, me.ID)})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, err := s.engine.Get(r.Context(), chi.URLParam(r, "gameID"))
	s.renderGame(w, r, g, err)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireMember(w, r)
	if !ok {
		return
	}
	g, err := s.engine.Start(r.Context(), id)
	s.renderGame(w, r, g, err)
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireMember(w, r)
	if !ok {
		return
	}
	g, err := s.engine.Finish(r.Context(), id)
	s.renderGame(w, r, g, err)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	g, err := s.engine.Join(r.Context(), chi.URLParam(r, "gameID"), currentPlayer(r.Context()).ID)
	s.renderGame(w, r, g, err)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	g, err := s.engine.Leave(r.Context(), chi.URLParam(r, "gameID"), currentPlayer(r.Context()).ID)
	s.renderGame(w, r, g, err)
}

// ------------------------------- rounds ------------------------------------

func (s *Server) handleDrawCard(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireMember(w, r)
	if !ok {
		return
	}
	if _, err := s.engine.DrawCard(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.engine.Get(r.Context(), id)
	s.renderGame(w, r, g, err)
}

type wordReq struct {
	Word string `json:"word"`
}

func (s *Server) handleProposeWord(w http.ResponseWriter, r *http.Request) {
	var req wordReq
	if !decode(w, r, &req) {
		return
	}
	g, err := s.engine.ProposeWord(r.Context(), chi.URLParam(r, "gameID"), currentPlayer(r.Context()).ID, req.Word)
	s.renderGame(w, r, g, err)
}

type decisionReq struct {
	Accept *bool `json:"accept"`
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req decisionReq
	if !decode(w, r, &req) {
		return
	}
	if req.Accept == nil {
		writeError(w, r, apperr.Invalid("accept is required"))
		return
	}
	g, err := s.engine.Decide(r.Context(), chi.URLParam(r, "gameID"), currentPlayer(r.Context()).ID, *req.Accept)
	s.renderGame(w, r, g, err)
}

type submissionReq struct {
	Text    string `json:"text"`
	Seconds int    `json:"submittedAtSeconds"`
}

func (s *Server) handleSubmitClue(w http.ResponseWriter, r *http.Request) {
	var req submissionReq
	if !decode(w, r, &req) {
		return
	}
	c, err := s.engine.SubmitClue(r.Context(), chi.URLParam(r, "gameID"), currentPlayer(r.Context()).ID, req.Text, req.Seconds)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(c)
}

type invalidateReq struct {
	Clues []string `json:"clues"`
}

func (s *Server) handleInvalidateClues(w http.ResponseWriter, r *http.Request) {
	var req invalidateReq
	if !decode(w, r, &req) {
		return
	}
	id, ok := s.requireMember(w, r)
	if !ok {
		return
	}
	g, err := s.engine.InvalidateClues(r.Context(), id, req.Clues)
	s.renderGame(w, r, g, err)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireMember(w, r)
	if !ok {
		return
	}
	g, err := s.engine.SkipGuessing(r.Context(), id)
	s.renderGame(w, r, g, err)
}

func (s *Server) handleGetGuess(w http.ResponseWriter, r *http.Request) {
	g, err := s.engine.CurrentGuess(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(g)
}

func (s *Server) handleSubmitGuess(w http.ResponseWriter, r *http.Request) {
	var req submissionReq
	if !decode(w, r, &req) {
		return
	}
	g, err := s.engine.SubmitGuess(r.Context(), chi.URLParam(r, "gameID"), currentPlayer(r.Context()).ID, req.Text, req.Seconds)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(g)
}

// ----------------------------- leaderboard ---------------------------------

type leaderboardRes struct {
	Top []results.Result `json:"top"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			writeError(w, r, apperr.Invalid("limit must be 1-100"))
			return
		}
		limit = n
	}
	top, err := s.board.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if top == nil {
		top = []results.Result{}
	}
	_ = json.NewEncoder(w).Encode(leaderboardRes{Top: top})
}
