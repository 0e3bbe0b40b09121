package entropy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps one JSON artifact per language in Dir, named
// entropy_cache_<language>.json. Floats are written in shortest round-trip
// form, so a reload reproduces the built values exactly.
type FileStore struct {
	Dir string
}

func (s FileStore) path(language string) string {
	return filepath.Join(s.Dir, "entropy_cache_"+language+".json")
}

func (s FileStore) Load(_ context.Context, language string) (*Artifact, error) {
	b, err := os.ReadFile(s.path(language))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path(language), err)
	}
	return &a, nil
}

// Save writes the artifact to a temp file and renames it into place.
func (s FileStore) Save(_ context.Context, a *Artifact) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", s.Dir, err)
	}
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.Dir, ".entropy-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(a.Language))
}
