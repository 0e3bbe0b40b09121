package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordle/apps/solver/internal/bench"
	"github.com/robalobadob/wordle/apps/solver/internal/config"
	"github.com/robalobadob/wordle/apps/solver/internal/daily"
	"github.com/robalobadob/wordle/apps/solver/internal/entropy"
	"github.com/robalobadob/wordle/apps/solver/internal/store"
	"github.com/robalobadob/wordle/apps/solver/internal/strategy"
	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

const testSecret = "test_secret"

type fakeReports struct{ lang string }

func (f *fakeReports) RecentBench(_ context.Context, language string, limit int) ([]bench.Stats, error) {
	f.lang = language
	return []bench.Stats{{RunID: "r1", Language: language, Strategy: "entropy", Games: 10, Trials: 1}}, nil
}

func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:    testSecret,
		ClientOrigin: "http://localhost:5173",
		DailySalt:    "salt",
		Languages:    []string{"en"},
		MaxGuesses:   6,
		Tuning:       strategy.DefaultTuning(),
	}
	if deps.Validator == nil {
		deps.Validator = func(string) words.Validator { return words.RejectAll }
	}
	return New(cfg, deps)
}

func do(t *testing.T, s *Server, method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndIndex(t *testing.T) {
	s := newTestServer(t, Deps{})

	rec := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, s, http.MethodGet, "/", nil)
	idx := decode[map[string]any](t, rec)
	assert.Len(t, idx["strategies"], len(strategy.Names))

	rec = do(t, s, http.MethodGet, "/debug/words", nil)
	counts := decode[map[string]int](t, rec)
	assert.Greater(t, counts["en"], 100)

	rec = do(t, s, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[map[string]string](t, rec)["error"])
}

func TestPreflight(t *testing.T) {
	s := newTestServer(t, Deps{})
	rec := do(t, s, http.MethodOptions, "/game/new", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPlayToWinWithReplay(t *testing.T) {
	sessions := store.NewMemoryStore()
	s := newTestServer(t, Deps{Sessions: sessions})

	rec := do(t, s, http.MethodPost, "/game/new", map[string]string{"answer": "crane", "strategy": strategy.NameConstraint})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	g := decode[newGameRes](t, rec)
	assert.NotEmpty(t, g.GameID)
	assert.Equal(t, "en", g.Language)
	assert.Equal(t, 6, g.MaxGuesses)

	rec = do(t, s, http.MethodPost, "/game/guess", guessReq{GameID: g.GameID, Guess: "trace"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var first struct {
		Marks  []string `json:"marks"`
		State  string   `json:"state"`
		Answer string   `json:"answer"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, []string{"absent", "correct", "correct", "present", "correct"}, first.Marks)
	assert.Equal(t, "playing", first.State)
	assert.Empty(t, first.Answer)

	rec = do(t, s, http.MethodPost, "/game/guess", guessReq{GameID: g.GameID, Guess: "CRANE"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var last struct {
		State   string `json:"state"`
		Guesses int    `json:"guesses"`
		Answer  string `json:"answer"`
		Solver  *struct {
			Strategy string   `json:"strategy"`
			Guesses  []string `json:"guesses"`
		} `json:"solver"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &last))
	assert.Equal(t, "won", last.State)
	assert.Equal(t, 2, last.Guesses)
	assert.Equal(t, "crane", last.Answer)
	require.NotNil(t, last.Solver)
	assert.Equal(t, strategy.NameConstraint, last.Solver.Strategy)
	assert.NotEmpty(t, last.Solver.Guesses)

	// finished sessions are dropped from the store
	_, err := sessions.Get(context.Background(), g.GameID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	rec = do(t, s, http.MethodPost, "/game/guess", guessReq{GameID: g.GameID, Guess: "trace"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLostGameIsDropped(t *testing.T) {
	sessions := store.NewMemoryStore()
	s := newTestServer(t, Deps{Sessions: sessions})
	g := decode[newGameRes](t, do(t, s, http.MethodPost, "/game/new", map[string]string{"answer": "crane", "strategy": strategy.NameFrequency}))

	var rec *httptest.ResponseRecorder
	for range g.MaxGuesses {
		rec = do(t, s, http.MethodPost, "/game/guess", guessReq{GameID: g.GameID, Guess: "trace"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	assert.Equal(t, "lost", decode[map[string]any](t, rec)["state"])

	_, err := sessions.Get(context.Background(), g.GameID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGuessErrors(t *testing.T) {
	s := newTestServer(t, Deps{})
	g := decode[newGameRes](t, do(t, s, http.MethodPost, "/game/new", map[string]string{"answer": "crane", "strategy": "frequency"}))

	for _, guess := range []string{"zzzzz", "toolong", "abc"} {
		rec := do(t, s, http.MethodPost, "/game/guess", guessReq{GameID: g.GameID, Guess: guess})
		assert.Equal(t, http.StatusBadRequest, rec.Code, guess)
		assert.Equal(t, "invalid_guess", decode[map[string]string](t, rec)["error"])
	}

	rec := do(t, s, http.MethodPost, "/game/guess", guessReq{GameID: "missing", Guess: "crane"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPost, "/game/new", map[string]string{"strategy": "oracle"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown_strategy", decode[map[string]string](t, rec)["error"])

	rec = do(t, s, http.MethodPost, "/game/new", map[string]string{"language": "xx"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// secrets outside the corpus must pass the validator
	rec = do(t, s, http.MethodPost, "/game/new", map[string]string{"answer": "qqqqq"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSolveStream(t *testing.T) {
	s := newTestServer(t, Deps{})

	rec := do(t, s, http.MethodPost, "/solve", solveReq{Answer: "steep", Strategy: strategy.NameConstraint})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: cell\ndata: ")
	assert.Equal(t, 1, strings.Count(body, "event: finished\n"))
	assert.True(t, strings.HasSuffix(body, "\n\n"))

	// the last frame is the finished event
	frames := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	last := frames[len(frames)-1]
	require.True(t, strings.HasPrefix(last, "event: finished\ndata: "))
	var fin struct {
		Kind    string `json:"kind"`
		Guesses int    `json:"guesses"`
		Reason  string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(last, "event: finished\ndata: ")), &fin))
	assert.Equal(t, "finished", fin.Kind)
	assert.Equal(t, len(frames)-1, fin.Guesses*words.Length)
	assert.NotEmpty(t, fin.Reason)
}

func TestSolveQueryForm(t *testing.T) {
	s := newTestServer(t, Deps{})
	rec := do(t, s, http.MethodGet, "/solve?answer=hello&strategy=frequency", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "event: finished")

	rec = do(t, s, http.MethodGet, "/solve?strategy=oracle", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompare(t *testing.T) {
	s := newTestServer(t, Deps{})
	rec := do(t, s, http.MethodPost, "/compare", compareReq{
		Answer:     "slate",
		Strategies: []string{strategy.NameConstraint, strategy.NameBayesian},
		Seed:       7,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Answer  string `json:"answer"`
		Results []struct {
			Strategy string `json:"strategy"`
			Reason   string `json:"reason"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "slate", res.Answer)
	require.Len(t, res.Results, 2)
	assert.Equal(t, strategy.NameConstraint, res.Results[0].Strategy)
	assert.Equal(t, strategy.NameBayesian, res.Results[1].Strategy)
	for _, r := range res.Results {
		assert.NotEmpty(t, r.Reason)
	}

	rec = do(t, s, http.MethodPost, "/compare", compareReq{Strategies: []string{"oracle"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEntropyUsesRegistry(t *testing.T) {
	reg := entropy.NewRegistry(nil)
	s := newTestServer(t, Deps{Registry: reg})

	rec := do(t, s, http.MethodPost, "/solve", solveReq{Answer: "crane", Strategy: strategy.NameEntropy})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "event: finished")

	corpus, err := words.Load("en")
	require.NoError(t, err)
	assert.Zero(t, reg.Refs(corpus), "request references are released")
}

func TestAdminAuth(t *testing.T) {
	reports := &fakeReports{}
	s := newTestServer(t, Deps{Registry: entropy.NewRegistry(nil), Reports: reports})

	rec := do(t, s, http.MethodPost, "/admin/cache/rebuild", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode[map[string]string](t, rec)["error"])

	bad, _, err := SignAdminToken("other_secret", "ops", time.Hour)
	require.NoError(t, err)
	rec = do(t, s, http.MethodGet, "/bench", nil, "Authorization", "Bearer "+bad)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", decode[map[string]string](t, rec)["error"])

	expired, _, err := SignAdminToken(testSecret, "ops", -time.Minute)
	require.NoError(t, err)
	rec = do(t, s, http.MethodGet, "/bench", nil, "Authorization", "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, exp, err := SignAdminToken(testSecret, "ops", time.Hour)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	rec = do(t, s, http.MethodGet, "/bench?language=en&limit=5", nil, "Authorization", "Bearer "+tok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]bench.Stats](t, rec), 1)
	assert.Equal(t, "en", reports.lang)

	rec = do(t, s, http.MethodPost, "/admin/cache/rebuild", rebuildReq{Language: "en"}, "Cookie", cookieName+"="+tok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[rebuildRes](t, rec)
	corpus, err := words.Load("en")
	require.NoError(t, err)
	assert.Equal(t, corpus.Len(), res.Words)
	assert.Equal(t, corpus.Fingerprint(), res.Fingerprint)
	assert.True(t, res.Persisted)
}

func TestBenchWithoutReports(t *testing.T) {
	s := newTestServer(t, Deps{})
	tok, _, err := SignAdminToken(testSecret, "ops", time.Hour)
	require.NoError(t, err)
	rec := do(t, s, http.MethodGet, "/bench", nil, "Authorization", "Bearer "+tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/admin/cache/rebuild", nil, "Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDaily(t *testing.T) {
	s := newTestServer(t, Deps{})
	today := daily.DateKey(time.Now())

	rec := do(t, s, http.MethodGet, "/daily/today?language=en", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	td := decode[todayRes](t, rec)
	assert.Equal(t, "en", td.Language)
	assert.Greater(t, td.Words, 0)

	rec = do(t, s, http.MethodPost, "/daily/new", dailyNewReq{Strategy: strategy.NameFrequency})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	g := decode[newGameRes](t, rec)
	assert.NotEmpty(t, g.GameID)
	assert.Equal(t, strategy.NameFrequency, g.Strategy)
	if g.Date != today {
		t.Skip("crossed midnight UTC during the test")
	}
	assert.Equal(t, td.Date, g.Date)

	corpus, err := words.Load("en")
	require.NoError(t, err)
	secret := daily.Secret(time.Now(), "salt", corpus)
	rec = do(t, s, http.MethodPost, "/game/guess", guessReq{GameID: g.GameID, Guess: secret.String()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "won", decode[map[string]any](t, rec)["state"])

	rec = do(t, s, http.MethodPost, "/daily/new", dailyNewReq{Strategy: "oracle"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
