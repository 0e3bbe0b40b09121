// Package daily picks the deterministic secret of the day.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// WordIndex returns a deterministic index for a date using
// HMAC(salt, language|YYYY-MM-DD) % n.
func WordIndex(date time.Time, salt, language string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(language + "|" + DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for the modulus
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}

// Secret returns the corpus word of the day.
func Secret(date time.Time, salt string, corpus *words.Corpus) words.Word {
	return corpus.At(WordIndex(date, salt, corpus.Language(), corpus.Len()))
}
