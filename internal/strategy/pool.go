package strategy

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

// Pool is the set of corpus words still consistent with every observation.
// Members are tracked as corpus indices; the set only ever shrinks until
// Reset.
type Pool struct {
	corpus *words.Corpus
	live   *bitset.BitSet
}

// NewPool returns a pool holding the whole corpus.
func NewPool(corpus *words.Corpus) *Pool {
	p := &Pool{corpus: corpus}
	p.Reset()
	return p
}

// Reset restores the full corpus.
func (p *Pool) Reset() {
	n := uint(p.corpus.Len())
	p.live = bitset.New(n)
	p.live.FlipRange(0, n)
}

func (p *Pool) Len() int { return int(p.live.Count()) }

// Full reports whether nothing has been eliminated yet.
func (p *Pool) Full() bool { return p.Len() == p.corpus.Len() }

func (p *Pool) Contains(w words.Word) bool {
	i, ok := p.corpus.Index(w)
	return ok && p.live.Test(uint(i))
}

// Each calls fn for every member in corpus order.
func (p *Pool) Each(fn func(i int, w words.Word)) {
	for i, ok := p.live.NextSet(0); ok; i, ok = p.live.NextSet(i + 1) {
		fn(int(i), p.corpus.At(int(i)))
	}
}

// Words returns the members in corpus order.
func (p *Pool) Words() []words.Word {
	out := make([]words.Word, 0, p.Len())
	p.Each(func(_ int, w words.Word) { out = append(out, w) })
	return out
}

// Retain drops every member for which keep returns false.
func (p *Pool) Retain(keep func(i int, w words.Word) bool) {
	for i, ok := p.live.NextSet(0); ok; i, ok = p.live.NextSet(i + 1) {
		if !keep(int(i), p.corpus.At(int(i))) {
			p.live.Clear(i)
		}
	}
}

// Drop removes w if present.
func (p *Pool) Drop(w words.Word) {
	if i, ok := p.corpus.Index(w); ok {
		p.live.Clear(uint(i))
	}
}

// DropIndex removes the member at corpus index i.
func (p *Pool) DropIndex(i int) { p.live.Clear(uint(i)) }
