// apps/solver/internal/httpserver/server.go
//
// HTTP server wiring for the solver.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Play endpoints: POST /game/new, POST /game/guess. When a game ends the
//     session's strategy replays the same secret so the player can compare.
//   - Solver endpoints: /solve (Server-Sent Events), POST /compare.
//   - Daily endpoints: mounted under /daily.
//   - Admin endpoints (require auth): POST /admin/cache/rebuild, GET /bench.
//
// Notes:
//   - /solve and /compare run outside the request timeout; they stop when the
//     client goes away.
//   - Strategies needing the entropy cache hold a registry reference for the
//     duration of the request only.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/solver/internal/bench"
	"github.com/robalobadob/wordle/apps/solver/internal/config"
	"github.com/robalobadob/wordle/apps/solver/internal/entropy"
	"github.com/robalobadob/wordle/apps/solver/internal/game"
	"github.com/robalobadob/wordle/apps/solver/internal/solver"
	"github.com/robalobadob/wordle/apps/solver/internal/store"
	"github.com/robalobadob/wordle/apps/solver/internal/strategy"
	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

// BenchReader lists stored benchmark reports.
type BenchReader interface {
	RecentBench(ctx context.Context, language string, limit int) ([]bench.Stats, error)
}

// Deps are the collaborators a Server needs. Registry and Reports may be
// nil; Validator defaults to words.ForLanguage.
type Deps struct {
	Sessions  store.Store
	Registry  *entropy.Registry
	Reports   BenchReader
	Validator func(language string) words.Validator
}

var endpoints = []string{
	"/health", "/debug/words", "POST /game/new", "POST /game/guess", "/solve",
	"POST /compare", "POST /daily/new", "POST /admin/cache/rebuild", "/bench",
}

// Server bundles router, session store and the shared entropy registry.
type Server struct {
	r    *chi.Mux
	cfg  *config.Config
	deps Deps
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg *config.Config, deps Deps) *Server {
	if deps.Sessions == nil {
		deps.Sessions = store.NewMemoryStore()
	}
	if deps.Validator == nil {
		deps.Validator = func(language string) words.Validator {
			return words.ForLanguage(language, cfg.ValidatorTimeout)
		}
	}
	s := &Server{r: chi.NewRouter(), cfg: cfg, deps: deps}

	// --- middleware ---
	s.r.Use(chimw.RequestID)           // add X-Request-ID
	s.r.Use(chimw.RealIP)              // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)             // one structured line per request
	s.r.Use(chimw.Recoverer)           // recover from panics
	s.r.Use(jsonContentType)           // default JSON responses
	s.r.Use(corsFor(cfg.ClientOrigin)) // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":    "wordle-solver",
			"strategies": strategy.Names,
			"endpoints":  endpoints,
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	s.r.Get("/debug/words", s.handleWordStats)

	// Request-bounded endpoints
	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Post("/game/new", s.handleNewGame)
		r.Post("/game/guess", s.handleGuess)
		s.mountDaily(r)
	})

	// Long-running solver endpoints, bounded by the client connection
	s.r.Get("/solve", s.handleSolve)
	s.r.Post("/solve", s.handleSolve)
	s.r.Post("/compare", s.handleCompare)

	// Admin (require auth)
	s.r.Group(func(r chi.Router) {
		r.Use(s.requireAuth())
		r.Post("/admin/cache/rebuild", s.handleRebuild)
		r.Get("/bench", s.handleBench)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ------------------------------ helpers ------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	body := map[string]string{"error": code}
	if err != nil {
		body["detail"] = err.Error()
	}
	writeJSON(w, status, body)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, words.ErrUnknownLanguage),
		errors.Is(err, strategy.ErrUnknownStrategy),
		errors.Is(err, game.ErrInvalidGuess):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrGameOver), errors.Is(err, game.ErrNotStarted):
		return http.StatusConflict
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// newGame loads the language corpus and starts an environment on answer
// (random when empty).
func (s *Server) newGame(ctx context.Context, language, answer string) (*game.Environment, error) {
	corpus, err := words.Load(language)
	if err != nil {
		return nil, err
	}
	env := game.NewEnvironment(corpus,
		game.WithValidator(s.deps.Validator(language)),
		game.WithMaxGuesses(s.cfg.MaxGuesses),
	)
	if _, err := env.Reset(ctx, answer); err != nil {
		return nil, err
	}
	return env, nil
}

// strategyDeps prepares factory inputs over corpus. When one of names needs
// the entropy cache, a registry reference for the base corpus is taken; the
// returned release must be called once the strategies are done.
func (s *Server) strategyDeps(ctx context.Context, corpus *words.Corpus, names ...string) (strategy.Deps, func(), error) {
	d := strategy.Deps{Corpus: corpus, Tuning: s.cfg.Tuning}
	for _, n := range names {
		if !slices.Contains(strategy.Names, n) {
			return d, nil, fmt.Errorf("%w: %q", strategy.ErrUnknownStrategy, n)
		}
	}
	if s.deps.Registry == nil || !slices.Contains(names, strategy.NameEntropy) {
		return d, func() {}, nil
	}
	base, err := words.Load(corpus.Language())
	if err != nil {
		return d, nil, err
	}
	c, release, err := s.deps.Registry.Acquire(ctx, base)
	if err != nil {
		return d, nil, err
	}
	d.Entropy = c
	return d, release, nil
}

// ------------------------------ GAME ---------------------------------------

// newGameReq/Res payloads for POST /game/new.
type newGameReq struct {
	Language string `json:"language"` // "en" | "ar"; defaults to the first configured
	Answer   string `json:"answer"`   // optional fixed answer (testing)
	Strategy string `json:"strategy"` // solver replayed once the game ends
}
type newGameRes struct {
	GameID     string `json:"gameId"`
	Language   string `json:"language"`
	MaxGuesses int    `json:"maxGuesses"`
	Strategy   string `json:"strategy"`
	Date       string `json:"date,omitempty"`
}

func (s *Server) defaultLanguage() string {
	if len(s.cfg.Languages) > 0 {
		return s.cfg.Languages[0]
	}
	return "en"
}

// handleNewGame starts an in-memory play session.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	req.Language = orDefault(req.Language, s.defaultLanguage())
	req.Strategy = orDefault(req.Strategy, strategy.NameEntropy)
	if !slices.Contains(strategy.Names, req.Strategy) {
		writeError(w, http.StatusBadRequest, "unknown_strategy", nil)
		return
	}

	env, err := s.newGame(r.Context(), req.Language, req.Answer)
	if err != nil {
		writeError(w, statusFor(err), "new_game_failed", err)
		return
	}
	sess := &store.Session{Env: env, Language: req.Language, Strategy: req.Strategy}
	if err := s.deps.Sessions.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed", nil)
		return
	}
	log.Info().Str("gameId", env.ID).Str("language", req.Language).Msg("game started")
	writeJSON(w, http.StatusOK, newGameRes{
		GameID: env.ID, Language: req.Language, MaxGuesses: env.MaxGuesses(), Strategy: req.Strategy,
	})
}

// guessReq/Res payloads for POST /game/guess.
type guessReq struct {
	GameID string `json:"gameId"`
	Guess  string `json:"guess"`
}
type guessRes struct {
	Marks   []game.Tile    `json:"marks"`
	State   game.Status    `json:"state"` // "playing" | "won" | "lost"
	Guesses int            `json:"guesses"`
	Answer  string         `json:"answer,omitempty"` // revealed once the game is over
	Solver  *solver.Result `json:"solver,omitempty"`
}

// handleGuess applies a guess to a live session. A finished game also
// reports how the session's strategy fares on the same secret.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err)
		return
	}
	sess, err := s.deps.Sessions.Get(r.Context(), req.GameID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	sess.Mu.Lock()
	defer sess.Mu.Unlock()

	fb, err := sess.Env.SubmitGuess(r.Context(), req.Guess)
	if err != nil {
		code := "invalid_guess"
		if !errors.Is(err, game.ErrInvalidGuess) {
			code = "game_over"
		}
		writeError(w, statusFor(err), code, err)
		return
	}

	res := guessRes{Marks: fb[:], State: sess.Env.Status(), Guesses: len(sess.Env.Guesses())}
	if res.State.Terminal() {
		res.Answer = sess.Env.Secret().String()
		log.Info().Str("gameId", req.GameID).Stringer("state", res.State).
			Int("guesses", res.Guesses).Strs("rejected", sess.Env.Rejected()).Msg("game finished")
		if replay, err := s.replay(r.Context(), sess); err != nil {
			log.Warn().Err(err).Str("gameId", req.GameID).Msg("solver replay")
		} else {
			res.Solver = replay
		}
		// finished games accept nothing more; drop them from the store
		if err := s.deps.Sessions.Delete(r.Context(), req.GameID); err != nil {
			log.Warn().Err(err).Str("gameId", req.GameID).Msg("delete session")
		}
	}
	writeJSON(w, http.StatusOK, res)
}

// replay solves the session's secret with its strategy.
func (s *Server) replay(ctx context.Context, sess *store.Session) (*solver.Result, error) {
	deps, release, err := s.strategyDeps(ctx, sess.Env.Corpus(), sess.Strategy)
	if err != nil {
		return nil, err
	}
	defer release()
	results, err := solver.Compare(ctx, sess.Env.Secret(), []string{sess.Strategy}, deps,
		solver.CompareOptions{MaxGuesses: sess.Env.MaxGuesses()})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// ------------------------------ SOLVER -------------------------------------

// solveReq is accepted as JSON (POST) or query parameters (GET, for
// EventSource clients).
type solveReq struct {
	Language string `json:"language"`
	Answer   string `json:"answer"`
	Strategy string `json:"strategy"`
}

func decodeSolveReq(r *http.Request) (solveReq, error) {
	var req solveReq
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		req = solveReq{Language: q.Get("language"), Answer: q.Get("answer"), Strategy: q.Get("strategy")}
		return req, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, err
	}
	return req, nil
}

// handleSolve streams one solver run as Server-Sent Events: "cell" events
// per guessed letter, then a single "finished" event.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSolveReq(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err)
		return
	}
	req.Language = orDefault(req.Language, s.defaultLanguage())
	req.Strategy = orDefault(req.Strategy, strategy.NameEntropy)

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", nil)
		return
	}

	env, err := s.newGame(r.Context(), req.Language, req.Answer)
	if err != nil {
		writeError(w, statusFor(err), "new_game_failed", err)
		return
	}
	deps, release, err := s.strategyDeps(r.Context(), env.Corpus(), req.Strategy)
	if err != nil {
		writeError(w, statusFor(err), "strategy_failed", err)
		return
	}
	defer release()
	st, err := strategy.New(req.Strategy, deps)
	if err != nil {
		writeError(w, statusFor(err), "strategy_failed", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	runner := solver.NewRunner(st, env)
	for ev := range runner.Run(r.Context()) {
		b, err := json.Marshal(ev)
		if err != nil {
			log.Error().Err(err).Msg("encode solver event")
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, b); err != nil {
			// client is gone: drop the rest of the stream
			runner.Close()
			continue
		}
		flusher.Flush()
	}
}

// compareReq/Res payloads for POST /compare.
type compareReq struct {
	Language   string   `json:"language"`
	Answer     string   `json:"answer"`
	Strategies []string `json:"strategies"` // defaults to all
	Seed       uint64   `json:"seed"`
}
type compareRes struct {
	Language string          `json:"language"`
	Answer   string          `json:"answer"`
	Results  []solver.Result `json:"results"`
}

// handleCompare races the requested strategies on one secret.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err)
		return
	}
	req.Language = orDefault(req.Language, s.defaultLanguage())
	if len(req.Strategies) == 0 {
		req.Strategies = strategy.Names
	}

	env, err := s.newGame(r.Context(), req.Language, req.Answer)
	if err != nil {
		writeError(w, statusFor(err), "new_game_failed", err)
		return
	}
	deps, release, err := s.strategyDeps(r.Context(), env.Corpus(), req.Strategies...)
	if err != nil {
		writeError(w, statusFor(err), "strategy_failed", err)
		return
	}
	defer release()

	results, err := solver.Compare(r.Context(), env.Secret(), req.Strategies, deps,
		solver.CompareOptions{MaxGuesses: s.cfg.MaxGuesses, Seed: req.Seed})
	if err != nil {
		writeError(w, statusFor(err), "compare_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, compareRes{Language: req.Language, Answer: env.Secret().String(), Results: results})
}

// ---------------------------- diagnostics ----------------------------------

// handleWordStats reports corpus sizes per configured language.
func (s *Server) handleWordStats(w http.ResponseWriter, r *http.Request) {
	out := map[string]int{}
	for _, lang := range s.cfg.Languages {
		c, err := words.Load(lang)
		if err != nil {
			log.Warn().Err(err).Str("language", lang).Msg("load corpus")
			continue
		}
		out[lang] = c.Len()
	}
	writeJSON(w, http.StatusOK, out)
}

// ------------------------------- ADMIN -------------------------------------

type rebuildReq struct {
	Language string `json:"language"`
}
type rebuildRes struct {
	Language    string `json:"language"`
	Words       int    `json:"words"`
	Fingerprint string `json:"fingerprint"`
	Persisted   bool   `json:"persisted"`
}

// handleRebuild recomputes a language's entropy cache. A cache that could
// not be persisted is still served from memory.
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if s.deps.Registry == nil {
		writeError(w, http.StatusServiceUnavailable, "no_registry", nil)
		return
	}
	var req rebuildReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	corpus, err := words.Load(orDefault(req.Language, s.defaultLanguage()))
	if err != nil {
		writeError(w, statusFor(err), "unknown_language", err)
		return
	}

	c, err := s.deps.Registry.Rebuild(r.Context(), corpus)
	if c == nil {
		writeError(w, http.StatusInternalServerError, "rebuild_failed", err)
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("language", corpus.Language()).Msg("entropy cache not persisted")
	}
	log.Info().Str("admin", adminFrom(r.Context())).Str("language", corpus.Language()).Msg("entropy cache rebuilt")
	writeJSON(w, http.StatusOK, rebuildRes{
		Language: c.Language, Words: c.Len(), Fingerprint: c.Fingerprint, Persisted: err == nil,
	})
}

// handleBench lists recent benchmark reports for ?language= (default first
// configured), newest first.
func (s *Server) handleBench(w http.ResponseWriter, r *http.Request) {
	if s.deps.Reports == nil {
		writeJSON(w, http.StatusOK, []bench.Stats{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := s.deps.Reports.RecentBench(r.Context(), orDefault(r.URL.Query().Get("language"), s.defaultLanguage()), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
