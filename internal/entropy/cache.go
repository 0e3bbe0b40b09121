package entropy

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

var (
	// ErrCacheBuildFailure marks a cache that was built but could not be
	// persisted. The accompanying cache is complete and usable.
	ErrCacheBuildFailure = errors.New("entropy: cache persistence failed")
	// ErrNotFound is returned by persisters with no artifact for a language.
	ErrNotFound = errors.New("entropy: cache artifact not found")
)

// Cache maps each corpus word to its expected information gain in bits over
// the full corpus. It is immutable once built.
type Cache struct {
	Language    string
	Fingerprint string
	values      map[words.Word]float64
}

// Value returns the entropy of w and whether w is covered by the cache.
func (c *Cache) Value(w words.Word) (float64, bool) {
	v, ok := c.values[w]
	return v, ok
}

func (c *Cache) Len() int { return len(c.values) }

// Best returns the candidate with the highest cached entropy. Ties go to the
// earliest candidate; uncovered words count as zero.
func (c *Cache) Best(candidates []words.Word) (words.Word, float64) {
	var best words.Word
	bestV := -1.0
	for _, w := range candidates {
		v := c.values[w]
		if v > bestV {
			best, bestV = w, v
		}
	}
	return best, bestV
}

// Artifact is the persisted form of a Cache.
type Artifact struct {
	Language string             `json:"language"`
	Corpus   string             `json:"corpus"`
	Entropy  map[string]float64 `json:"entropy"`
}

// Artifact converts the cache to its persisted form.
func (c *Cache) Artifact() *Artifact {
	a := &Artifact{
		Language: c.Language,
		Corpus:   c.Fingerprint,
		Entropy:  make(map[string]float64, len(c.values)),
	}
	for w, v := range c.values {
		a.Entropy[w.String()] = v
	}
	return a
}

// fromArtifact rebuilds a cache for corpus, or reports why the artifact
// cannot serve it.
func fromArtifact(a *Artifact, corpus *words.Corpus) (*Cache, error) {
	if a.Language != corpus.Language() {
		return nil, fmt.Errorf("artifact language %q, want %q", a.Language, corpus.Language())
	}
	if a.Corpus != corpus.Fingerprint() {
		return nil, fmt.Errorf("artifact built for corpus %s, have %s", a.Corpus, corpus.Fingerprint())
	}
	c := &Cache{
		Language:    a.Language,
		Fingerprint: a.Corpus,
		values:      make(map[words.Word]float64, len(a.Entropy)),
	}
	for _, w := range corpus.Words() {
		v, ok := a.Entropy[w.String()]
		if !ok {
			return nil, fmt.Errorf("artifact missing word %q", w.String())
		}
		c.values[w] = v
	}
	return c, nil
}

// Persister stores one artifact per language.
type Persister interface {
	Load(ctx context.Context, language string) (*Artifact, error)
	Save(ctx context.Context, a *Artifact) error
}

// LoadOrBuild returns the cache for corpus, loading it from p when a valid
// artifact exists and building (then saving) it otherwise. A nil p keeps the
// cache in memory only.
//
// When saving fails the built cache is still returned, together with an
// error wrapping ErrCacheBuildFailure.
func LoadOrBuild(ctx context.Context, p Persister, corpus *words.Corpus, progress ProgressFunc) (*Cache, error) {
	logger := log.With().Str("language", corpus.Language()).Str("corpus", corpus.Fingerprint()).Logger()

	if p != nil {
		a, err := p.Load(ctx, corpus.Language())
		switch {
		case err == nil:
			c, verr := fromArtifact(a, corpus)
			if verr == nil {
				logger.Debug().Int("words", c.Len()).Msg("entropy cache hit")
				return c, nil
			}
			logger.Warn().Err(verr).Msg("entropy cache stale, rebuilding")
		case errors.Is(err, ErrNotFound):
			logger.Info().Msg("entropy cache missing, building")
		default:
			logger.Warn().Err(err).Msg("entropy cache unreadable, rebuilding")
		}
	}

	c, err := Build(ctx, corpus, progress)
	if err != nil {
		return nil, fmt.Errorf("build entropy cache: %w", err)
	}
	logger.Info().Int("words", c.Len()).Msg("entropy cache built")

	if p != nil {
		if err := p.Save(ctx, c.Artifact()); err != nil {
			return c, fmt.Errorf("%w: %v", ErrCacheBuildFailure, err)
		}
	}
	return c, nil
}
