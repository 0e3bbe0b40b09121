package entropy

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

// Registry shares one Cache per (language, corpus) across every strategy
// instance in the process. Caches are reference counted: an entry lives
// while at least one holder has not released it. Concurrent first
// acquisitions share a single load-or-build.
type Registry struct {
	persister Persister
	progress  ProgressFunc
	log       zerolog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
}

type entry struct {
	cache *Cache
	refs  int
}

// NewRegistry returns a registry persisting through p (nil: memory only).
func NewRegistry(p Persister) *Registry {
	return &Registry{
		persister: p,
		log:       log.With().Str("component", "entropy").Logger(),
		entries:   make(map[string]*entry),
	}
}

// SetProgress installs a progress callback for builds started afterwards.
func (r *Registry) SetProgress(fn ProgressFunc) {
	r.mu.Lock()
	r.progress = fn
	r.mu.Unlock()
}

func key(corpus *words.Corpus) string {
	return corpus.Language() + "/" + corpus.Fingerprint()
}

// Acquire returns the shared cache for corpus and a release func that must
// be called exactly once when the caller is done with it.
func (r *Registry) Acquire(ctx context.Context, corpus *words.Corpus) (*Cache, func(), error) {
	k := key(corpus)

	r.mu.Lock()
	if e, ok := r.entries[k]; ok {
		e.refs++
		r.mu.Unlock()
		return e.cache, r.releaser(k), nil
	}
	progress := r.progress
	r.mu.Unlock()

	v, err, _ := r.group.Do(k, func() (any, error) {
		// a build that finished between the lookup above and this call
		// has already published its entry
		r.mu.Lock()
		if e, ok := r.entries[k]; ok {
			r.mu.Unlock()
			return e.cache, nil
		}
		r.mu.Unlock()

		c, err := LoadOrBuild(ctx, r.persister, corpus, progress)
		if errors.Is(err, ErrCacheBuildFailure) {
			r.log.Warn().Err(err).Str("language", corpus.Language()).Msg("entropy cache kept in memory only")
			err = nil
		}
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		if _, ok := r.entries[k]; !ok {
			r.entries[k] = &entry{cache: c}
		}
		r.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, nil, err
	}
	c := v.(*Cache)

	r.mu.Lock()
	e, ok := r.entries[k]
	if !ok {
		e = &entry{cache: c}
		r.entries[k] = e
	}
	e.refs++
	r.mu.Unlock()
	return e.cache, r.releaser(k), nil
}

func (r *Registry) releaser(k string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			e, ok := r.entries[k]
			if !ok {
				return
			}
			e.refs--
			if e.refs <= 0 {
				delete(r.entries, k)
			}
		})
	}
}

// Rebuild forces a fresh build for corpus, persists it and makes it the
// shared cache for later acquisitions. Current holders keep their cache.
func (r *Registry) Rebuild(ctx context.Context, corpus *words.Corpus) (*Cache, error) {
	r.mu.Lock()
	progress := r.progress
	r.mu.Unlock()

	c, err := Build(ctx, corpus, progress)
	if err != nil {
		return nil, err
	}
	var saveErr error
	if r.persister != nil {
		if err := r.persister.Save(ctx, c.Artifact()); err != nil {
			saveErr = errors.Join(ErrCacheBuildFailure, err)
		}
	}

	r.mu.Lock()
	if e, ok := r.entries[key(corpus)]; ok {
		e.cache = c
	}
	r.mu.Unlock()
	return c, saveErr
}

// Refs reports the live reference count for corpus, for diagnostics.
func (r *Registry) Refs(corpus *words.Corpus) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[key(corpus)]; ok {
		return e.refs
	}
	return 0
}
