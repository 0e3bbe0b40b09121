// Package assets carries the built-in word corpora used when no
// WORDS_<LANG>_FILE override is configured.
package assets

import (
	"bufio"
	"embed"
	"fmt"
	"strings"
)

//go:embed english.txt arabic.txt
var FS embed.FS

var files = map[string]string{
	"en": "english.txt",
	"ar": "arabic.txt",
}

// readLines returns the raw non-comment lines of an embedded list.
// Blank lines are dropped; cleaning and deduplication belong to the loader.
func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// Lines returns the embedded word list for a language code ("en", "ar").
func Lines(language string) ([]string, error) {
	name, ok := files[language]
	if !ok {
		return nil, fmt.Errorf("assets: no embedded list for language %q", language)
	}
	return readLines(name)
}

// Languages lists the language codes with an embedded list.
func Languages() []string {
	return []string{"en", "ar"}
}
