package entropy

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

func corpus(t *testing.T, list ...string) *words.Corpus {
	t.Helper()
	if len(list) == 0 {
		list = []string{"crane", "trace", "sheep", "speed", "hello", "level", "those", "geese", "abbey", "pious"}
	}
	c, err := words.FromWords("en", list...)
	require.NoError(t, err)
	return c
}

// memPersister is an in-memory Persister that counts calls.
type memPersister struct {
	mu      sync.Mutex
	stored  map[string]*Artifact
	loads   atomic.Int32
	saves   atomic.Int32
	saveErr error
}

func newMemPersister() *memPersister { return &memPersister{stored: map[string]*Artifact{}} }

func (m *memPersister) Load(_ context.Context, language string) (*Artifact, error) {
	m.loads.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.stored[language]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *memPersister) Save(_ context.Context, a *Artifact) error {
	m.saves.Add(1)
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored[a.Language] = a
	return nil
}

func TestScore(t *testing.T) {
	c := corpus(t, "abcde", "fghij")
	assert.InDelta(t, 1.0, Score(words.MustParse("abcde"), c.Words()), 1e-12)
	assert.InDelta(t, 0.0, Score(words.MustParse("klmno"), c.Words()), 1e-12)
	assert.Zero(t, Score(words.MustParse("abcde"), nil))

	c4 := corpus(t, "abcde", "fghij", "klmno", "pqrst")
	// one hit, three identical misses
	assert.InDelta(t, 0.8112781244591328, Score(words.MustParse("abcde"), c4.Words()), 1e-12)
	// four distinct outcomes
	assert.InDelta(t, math.Log2(4), Score(words.MustParse("afkpz"), c4.Words()), 1e-12)
}

func TestScoresMatchesSequential(t *testing.T) {
	c := corpus(t)
	var calls atomic.Int32
	got, err := Scores(context.Background(), c.Words(), c.Words(), func(done, total int) {
		calls.Add(1)
		assert.Equal(t, c.Len(), total)
	})
	require.NoError(t, err)
	for i, w := range c.Words() {
		assert.Equal(t, Score(w, c.Words()), got[i], w.String())
	}
	assert.EqualValues(t, c.Len(), calls.Load())
}

func TestScoresCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := corpus(t)
	_, err := Scores(ctx, c.Words(), c.Words(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildDeterministic(t *testing.T) {
	c := corpus(t)
	a, err := Build(context.Background(), c, nil)
	require.NoError(t, err)
	b, err := Build(context.Background(), c, nil)
	require.NoError(t, err)

	assert.Equal(t, a.Artifact(), b.Artifact())
	assert.Equal(t, c.Len(), a.Len())
	assert.Equal(t, c.Fingerprint(), a.Fingerprint)

	best, v := a.Best(c.Words())
	for _, w := range c.Words() {
		x, ok := a.Value(w)
		require.True(t, ok)
		assert.LessOrEqual(t, x, v)
	}
	// ties resolve to the earliest word
	for _, w := range c.Words() {
		if x, _ := a.Value(w); x == v {
			assert.Equal(t, w, best)
			break
		}
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := corpus(t)
	built, err := Build(ctx, c, nil)
	require.NoError(t, err)

	fs := FileStore{Dir: filepath.Join(t.TempDir(), "cache")}
	_, err = fs.Load(ctx, "en")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, fs.Save(ctx, built.Artifact()))
	a, err := fs.Load(ctx, "en")
	require.NoError(t, err)
	assert.Equal(t, built.Artifact(), a, "values must survive bit-for-bit")

	loaded, err := fromArtifact(a, c)
	require.NoError(t, err)
	for _, w := range c.Words() {
		want, _ := built.Value(w)
		got, _ := loaded.Value(w)
		assert.Equal(t, math.Float64bits(want), math.Float64bits(got), w.String())
	}
}

func TestLoadOrBuild(t *testing.T) {
	ctx := context.Background()
	c := corpus(t)
	p := newMemPersister()

	first, err := LoadOrBuild(ctx, p, c, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, p.saves.Load())

	second, err := LoadOrBuild(ctx, p, c, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, p.saves.Load(), "valid artifact is reused")
	assert.Equal(t, first.Artifact(), second.Artifact())
}

func TestLoadOrBuildRebuildsOnCorpusChange(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	_, err := LoadOrBuild(ctx, p, corpus(t, "crane", "trace", "sheep"), nil)
	require.NoError(t, err)

	changed := corpus(t, "crane", "trace", "speed")
	got, err := LoadOrBuild(ctx, p, changed, nil)
	require.NoError(t, err)
	assert.Equal(t, changed.Fingerprint(), got.Fingerprint)
	assert.EqualValues(t, 2, p.saves.Load())
	_, ok := got.Value(words.MustParse("speed"))
	assert.True(t, ok)
}

func TestLoadOrBuildPersistFailure(t *testing.T) {
	p := newMemPersister()
	p.saveErr = errors.New("disk full")
	c, err := LoadOrBuild(context.Background(), p, corpus(t), nil)
	assert.ErrorIs(t, err, ErrCacheBuildFailure)
	require.NotNil(t, c, "the built cache is still usable")
	assert.Equal(t, corpus(t).Len(), c.Len())
}

func TestFileStoreUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "cache")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))

	c, err := LoadOrBuild(context.Background(), FileStore{Dir: blocker}, corpus(t), nil)
	assert.ErrorIs(t, err, ErrCacheBuildFailure)
	assert.NotNil(t, c)
}

func TestRegistrySharesOneBuild(t *testing.T) {
	p := newMemPersister()
	reg := NewRegistry(p)
	c := corpus(t)

	const n = 8
	caches := make([]*Cache, n)
	releases := make([]func(), n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache, release, err := reg.Acquire(context.Background(), c)
			assert.NoError(t, err)
			caches[i], releases[i] = cache, release
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, p.loads.Load())
	assert.EqualValues(t, 1, p.saves.Load())
	for _, cache := range caches {
		assert.Same(t, caches[0], cache)
	}
	assert.Equal(t, n, reg.Refs(c))

	for _, release := range releases {
		release()
	}
	assert.Zero(t, reg.Refs(c))
}

func TestRegistryRefcount(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	reg := NewRegistry(p)
	c := corpus(t)

	a, releaseA, err := reg.Acquire(ctx, c)
	require.NoError(t, err)
	b, releaseB, err := reg.Acquire(ctx, c)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 2, reg.Refs(c))

	releaseA()
	releaseA() // idempotent
	assert.Equal(t, 1, reg.Refs(c))
	releaseB()
	assert.Equal(t, 0, reg.Refs(c))

	// evicted: the next acquisition goes back to the persister
	_, releaseC, err := reg.Acquire(ctx, c)
	require.NoError(t, err)
	defer releaseC()
	assert.EqualValues(t, 2, p.loads.Load())
	assert.EqualValues(t, 1, p.saves.Load())
}

func TestRegistryPersistFailureIsNotFatal(t *testing.T) {
	p := newMemPersister()
	p.saveErr = errors.New("read-only")
	reg := NewRegistry(p)
	c, release, err := reg.Acquire(context.Background(), corpus(t))
	require.NoError(t, err)
	defer release()
	assert.NotNil(t, c)
}

func TestRegistryRebuild(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	reg := NewRegistry(p)
	c := corpus(t)

	held, release, err := reg.Acquire(ctx, c)
	require.NoError(t, err)
	defer release()

	fresh, err := reg.Rebuild(ctx, c)
	require.NoError(t, err)
	assert.NotSame(t, held, fresh)
	assert.Equal(t, held.Artifact(), fresh.Artifact())
	assert.EqualValues(t, 2, p.saves.Load())

	again, releaseAgain, err := reg.Acquire(ctx, c)
	require.NoError(t, err)
	defer releaseAgain()
	assert.Same(t, fresh, again)
}
