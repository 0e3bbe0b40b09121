// apps/solver/internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes two endpoints under /daily:
//   - GET  /daily/today → today's date key and corpus size for a language
//   - POST /daily/new   → start a play session on today's secret
//
// Guesses go through POST /game/guess like any other session, so the daily
// game also gets the solver replay once it ends. Word selection is
// deterministic per (salt, language, date).

package httpserver

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/solver/internal/daily"
	"github.com/robalobadob/wordle/apps/solver/internal/store"
	"github.com/robalobadob/wordle/apps/solver/internal/strategy"
	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv  *Server
	salt string
	now  func() time.Time
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{srv: s, salt: s.cfg.DailySalt, now: time.Now}
	r.Route("/daily", func(r chi.Router) {
		r.Get("/today", dd.handleToday)
		r.Post("/new", dd.handleNew)
	})
}

// todayRes is returned by /daily/today.
type todayRes struct {
	Date     string `json:"date"`
	Language string `json:"language"`
	Words    int    `json:"words"`
}

func (d *dailyServer) handleToday(w http.ResponseWriter, r *http.Request) {
	lang := orDefault(r.URL.Query().Get("language"), d.srv.defaultLanguage())
	corpus, err := words.Load(lang)
	if err != nil {
		writeError(w, statusFor(err), "unknown_language", err)
		return
	}
	writeJSON(w, http.StatusOK, todayRes{Date: daily.DateKey(d.now()), Language: lang, Words: corpus.Len()})
}

// dailyNewReq is the request payload for /daily/new.
type dailyNewReq struct {
	Language string `json:"language"`
	Strategy string `json:"strategy"`
}

// handleNew starts a session whose secret is the word of the day.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	var req dailyNewReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	req.Language = orDefault(req.Language, d.srv.defaultLanguage())
	req.Strategy = orDefault(req.Strategy, strategy.NameEntropy)
	if !slices.Contains(strategy.Names, req.Strategy) {
		writeError(w, http.StatusBadRequest, "unknown_strategy", nil)
		return
	}

	corpus, err := words.Load(req.Language)
	if err != nil {
		writeError(w, statusFor(err), "unknown_language", err)
		return
	}
	now := d.now()
	secret := daily.Secret(now, d.salt, corpus)

	env, err := d.srv.newGame(r.Context(), req.Language, secret.String())
	if err != nil {
		writeError(w, statusFor(err), "new_game_failed", err)
		return
	}
	sess := &store.Session{Env: env, Language: req.Language, Strategy: req.Strategy}
	if err := d.srv.deps.Sessions.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save daily session")
		writeError(w, http.StatusInternalServerError, "save_failed", nil)
		return
	}
	writeJSON(w, http.StatusOK, newGameRes{
		GameID:     env.ID,
		Language:   req.Language,
		MaxGuesses: env.MaxGuesses(),
		Strategy:   req.Strategy,
		Date:       daily.DateKey(now),
	})
}
