package words

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const tatweel = 'ـ'

// CleanArabic strips diacritics (tashkeel, Unicode Mn), the tatweel
// extender and any ASCII characters from s.
func CleanArabic(s string) string {
	t := transform.Chain(
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool {
			return r == tatweel || r < utf8.RuneSelf
		})),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
