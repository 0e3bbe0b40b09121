// Package words provides the word model and corpus management for the solver.
//
// A Word is a fixed-length, comparable sequence of lowercase letters. A Corpus
// is an ordered, deduplicated list of Words for one language; it is built once
// and treated as read-only afterwards so it can be shared across goroutines.
package words

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Length is the number of letters in every word.
const Length = 5

var (
	ErrWordLength = errors.New("words: word must have exactly 5 letters")
	ErrWordChar   = errors.New("words: word contains a non-letter")
)

// Word is an immutable five-letter word. The zero value is not a valid word.
type Word [Length]rune

// Parse normalizes s (trim + lowercase) and converts it into a Word.
func Parse(s string) (Word, error) {
	var w Word
	s = strings.ToLower(strings.TrimSpace(s))
	if utf8.RuneCountInString(s) != Length {
		return w, ErrWordLength
	}
	i := 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return Word{}, ErrWordChar
		}
		w[i] = r
		i++
	}
	return w, nil
}

// MustParse is Parse for literals known to be valid; it panics otherwise.
func MustParse(s string) Word {
	w, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return w
}

func (w Word) String() string {
	var b strings.Builder
	for _, r := range w {
		if r == 0 {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsZero reports whether w is the zero Word.
func (w Word) IsZero() bool { return w == Word{} }

// MarshalText encodes the word as its string form.
func (w Word) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

// UnmarshalText parses a word from text.
func (w *Word) UnmarshalText(b []byte) error {
	p, err := Parse(string(b))
	if err != nil {
		return err
	}
	*w = p
	return nil
}

// isLatin reports whether s consists only of ASCII a–z/A–Z.
func isLatin(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return s != ""
}
