// Word list management for the solver.
//
// Corpus sources, per language code:
//   1. WORDS_<LANG>_FILE (e.g. WORDS_EN_FILE=/path/to/english.txt), one word
//      per line.
//   2. The embedded list in the assets package.
//
// Loading rules:
//   • Lines are trimmed and lowercased; Arabic lines are cleaned of
//     diacritics first (see CleanArabic).
//   • Blank lines and comments are ignored, duplicates keep the first
//     occurrence, lines that are not five letters of the language's alphabet
//     are skipped.
//   • Each language is loaded at most once per process.

package words

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"

	"github.com/robalobadob/wordle/apps/solver/assets"
)

var (
	ErrUnknownLanguage = errors.New("words: unknown language")
	ErrEmptyCorpus     = errors.New("words: corpus is empty")
)

// Corpus is an ordered, deduplicated list of words for one language.
type Corpus struct {
	language string
	words    []Word
	index    map[Word]int

	fpOnce      sync.Once
	fingerprint string
}

// NewCorpus builds a corpus from raw lines. Blank lines, duplicates and
// lines that fail the language alphabet are dropped.
func NewCorpus(language string, lines []string) (*Corpus, error) {
	c := &Corpus{language: language, index: make(map[Word]int, len(lines))}
	skipped := 0
	for _, line := range lines {
		s := normalize(language, line)
		if s == "" {
			continue
		}
		if !inAlphabet(language, s) {
			skipped++
			continue
		}
		w, err := Parse(s)
		if err != nil {
			skipped++
			continue
		}
		if _, dup := c.index[w]; dup {
			continue
		}
		c.index[w] = len(c.words)
		c.words = append(c.words, w)
	}
	if skipped > 0 {
		log.Debug().Str("language", language).Int("skipped", skipped).Msg("corpus: skipped invalid lines")
	}
	if len(c.words) == 0 {
		return nil, fmt.Errorf("%w (%s)", ErrEmptyCorpus, language)
	}
	return c, nil
}

// FromWords builds a corpus from literal words, mostly for tests and tools.
func FromWords(language string, list ...string) (*Corpus, error) {
	return NewCorpus(language, list)
}

func (c *Corpus) Language() string { return c.language }

func (c *Corpus) Len() int { return len(c.words) }

// At returns the i-th word in corpus order.
func (c *Corpus) At(i int) Word { return c.words[i] }

// Words returns the corpus in order. Callers must not modify the slice.
func (c *Corpus) Words() []Word { return c.words }

// Index returns the position of w in the corpus.
func (c *Corpus) Index(w Word) (int, bool) {
	i, ok := c.index[w]
	return i, ok
}

func (c *Corpus) Contains(w Word) bool {
	_, ok := c.index[w]
	return ok
}

// Random draws a word uniformly. A nil r uses the global source.
func (c *Corpus) Random(r *rand.Rand) Word {
	if r == nil {
		return c.words[rand.IntN(len(c.words))]
	}
	return c.words[r.IntN(len(c.words))]
}

// With returns a corpus that also contains w. The receiver is returned as-is
// when w is already present; otherwise a copy is made so shared corpora are
// never mutated.
func (c *Corpus) With(w Word) *Corpus {
	if c.Contains(w) {
		return c
	}
	n := &Corpus{
		language: c.language,
		words:    make([]Word, len(c.words), len(c.words)+1),
		index:    make(map[Word]int, len(c.words)+1),
	}
	copy(n.words, c.words)
	for k, v := range c.index {
		n.index[k] = v
	}
	n.index[w] = len(n.words)
	n.words = append(n.words, w)
	return n
}

// Fingerprint identifies the corpus contents (blake2b-256 over the ordered
// words). Two corpora with the same words in the same order share it.
func (c *Corpus) Fingerprint() string {
	c.fpOnce.Do(func() {
		h, _ := blake2b.New256(nil)
		h.Write([]byte(c.language))
		for _, w := range c.words {
			h.Write([]byte{'\n'})
			h.Write([]byte(w.String()))
		}
		c.fingerprint = hex.EncodeToString(h.Sum(nil))[:32]
	})
	return c.fingerprint
}

// --- process-wide loading ---

var (
	loadMu  sync.Mutex
	corpora = map[string]*Corpus{}
)

// Load returns the corpus for language, reading it at most once.
func Load(language string) (*Corpus, error) {
	loadMu.Lock()
	defer loadMu.Unlock()
	if c, ok := corpora[language]; ok {
		return c, nil
	}

	var lines []string
	var err error
	if path := os.Getenv("WORDS_" + strings.ToUpper(language) + "_FILE"); path != "" {
		lines, err = readWordFile(path)
	} else {
		lines, err = assets.Lines(language)
		if err != nil {
			err = fmt.Errorf("%w: %q", ErrUnknownLanguage, language)
		}
	}
	if err != nil {
		return nil, err
	}

	c, err := NewCorpus(language, lines)
	if err != nil {
		return nil, err
	}
	corpora[language] = c
	log.Info().Str("language", language).Int("words", c.Len()).Msg("corpus loaded")
	return c, nil
}

// readWordFile loads one word per line from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

// normalize trims, lowercases and applies language-specific cleaning.
func normalize(language, s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "#") {
		return ""
	}
	if language == "ar" {
		s = CleanArabic(s)
	}
	return strings.ToLower(s)
}

// inAlphabet reports whether every letter of s belongs to the language.
func inAlphabet(language, s string) bool {
	switch language {
	case "en":
		return isLatin(s)
	case "ar":
		for _, r := range s {
			if !unicode.Is(unicode.Arabic, r) || !unicode.IsLetter(r) {
				return false
			}
		}
		return true
	default:
		for _, r := range s {
			if !unicode.IsLetter(r) {
				return false
			}
		}
		return true
	}
}
