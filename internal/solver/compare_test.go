package solver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordle/apps/solver/internal/entropy"
	"github.com/robalobadob/wordle/apps/solver/internal/strategy"
	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

func TestCompareAllStrategies(t *testing.T) {
	c, err := words.FromWords("en",
		"crane", "trace", "sheep", "speed", "hello", "level", "those", "geese",
		"abbey", "pious", "crate", "react", "caret", "steep", "sleep", "shelf")
	require.NoError(t, err)
	cache, err := entropy.Build(context.Background(), c, nil)
	require.NoError(t, err)

	secret := words.MustParse("steep")
	deps := strategy.Deps{Corpus: c, Entropy: cache, Tuning: strategy.DefaultTuning()}
	results, err := Compare(context.Background(), secret, strategy.Names, deps, CompareOptions{MaxGuesses: 20, Seed: 42})
	require.NoError(t, err)
	require.Len(t, results, len(strategy.Names))

	for i, res := range results {
		assert.Equal(t, strategy.Names[i], res.Strategy)
		assert.True(t, res.Won, res.Strategy)
		assert.Equal(t, ReasonSolved, res.Reason, res.Strategy)
		require.NotEmpty(t, res.Guesses, res.Strategy)
		assert.Equal(t, secret, res.Guesses[len(res.Guesses)-1], res.Strategy)
		assert.Len(t, res.Board, len(res.Guesses))
	}
}

func TestCompareSecretOutsideCorpus(t *testing.T) {
	c, err := words.FromWords("en", "crane", "trace", "sheep")
	require.NoError(t, err)

	secret := words.MustParse("pious")
	results, err := Compare(context.Background(), secret, []string{strategy.NameConstraint},
		strategy.Deps{Corpus: c}, CompareOptions{MaxGuesses: 10, Seed: 1})
	require.NoError(t, err)
	assert.True(t, results[0].Won)
	assert.False(t, c.Contains(secret), "the caller's corpus is left alone")
}

func TestCompareUnknownStrategy(t *testing.T) {
	c, err := words.FromWords("en", "crane", "trace")
	require.NoError(t, err)
	_, err = Compare(context.Background(), words.MustParse("crane"), []string{"oracle"},
		strategy.Deps{Corpus: c}, CompareOptions{})
	assert.ErrorIs(t, err, strategy.ErrUnknownStrategy)
}
