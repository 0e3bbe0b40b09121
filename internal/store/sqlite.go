// SQLite persistence for the solver.
// Responsibilities:
//   - Opening SQLite with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations from sql/*.sql (idempotent, recorded in
//     _migrations).
//   - Entropy cache artifacts (entropy.Persister).
//   - Benchmark reports (bench.Sink).

package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/solver/internal/bench"
	"github.com/robalobadob/wordle/apps/solver/internal/entropy"
)

//go:embed sql/*.sql
var migrations embed.FS

// SQLite wraps a migrated database handle.
type SQLite struct {
	DB *sql.DB
}

// OpenSQLite opens (creating if missing) the database at dsn and applies
// migrations. ":memory:" is accepted for tests.
func OpenSQLite(dsn string) (*SQLite, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{DB: db}, nil
}

func (s *SQLite) Close() error { return s.DB.Close() }

// openDB ensures the parent directory exists, then opens with busy timeout
// and WAL journaling.
func openDB(dsn string) (*sql.DB, error) {
	if dsn != ":memory:" {
		dir := filepath.Dir(dsn)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if dsn == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// migrate applies embedded migrations in lexical order, each in its own
// transaction, skipping the ones already recorded.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrations, "sql/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("query _migrations: %w", err)
		}

		b, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

/* --------------------------- entropy cache ----------------------------- */

// Load implements entropy.Persister.
func (s *SQLite) Load(ctx context.Context, language string) (*entropy.Artifact, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT corpus, word, value FROM entropy_cache WHERE language=?`, language)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	a := &entropy.Artifact{Language: language, Entropy: map[string]float64{}}
	for rows.Next() {
		var corpus, word string
		var v float64
		if err := rows.Scan(&corpus, &word, &v); err != nil {
			return nil, err
		}
		if a.Corpus != "" && a.Corpus != corpus {
			return nil, fmt.Errorf("entropy_cache: mixed corpora for %s", language)
		}
		a.Corpus = corpus
		a.Entropy[word] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(a.Entropy) == 0 {
		return nil, entropy.ErrNotFound
	}
	return a, nil
}

// Save implements entropy.Persister, replacing the language's rows.
func (s *SQLite) Save(ctx context.Context, a *entropy.Artifact) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entropy_cache WHERE language=?`, a.Language); err != nil {
		return fmt.Errorf("clear entropy_cache: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entropy_cache (language, corpus, word, value) VALUES (?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	words := make([]string, 0, len(a.Entropy))
	for w := range a.Entropy {
		words = append(words, w)
	}
	sort.Strings(words)
	for _, w := range words {
		if _, err := stmt.ExecContext(ctx, a.Language, a.Corpus, w, a.Entropy[w]); err != nil {
			return fmt.Errorf("insert %s: %w", w, err)
		}
	}
	return tx.Commit()
}

/* ----------------------------- benchmarks ------------------------------ */

// SaveBench implements bench.Sink.
func (s *SQLite) SaveBench(ctx context.Context, st bench.Stats) error {
	_, err := s.DB.ExecContext(ctx, `
        INSERT OR REPLACE INTO bench_results
            (run_id, language, strategy, games, trials, avg_guesses, win_rate, avg_time_ns)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.RunID, st.Language, st.Strategy, st.Games, st.Trials,
		st.AvgGuesses, st.WinRate, int64(st.AvgTime),
	)
	return err
}

// RecentBench returns the latest reports for a language, newest first.
func (s *SQLite) RecentBench(ctx context.Context, language string, limit int) ([]bench.Stats, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx, `
        SELECT run_id, language, strategy, games, trials, avg_guesses, win_rate, avg_time_ns
        FROM bench_results
        WHERE language=?
        ORDER BY created_at DESC, strategy ASC
        LIMIT ?`, strings.TrimSpace(language), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]bench.Stats, 0, limit)
	for rows.Next() {
		var st bench.Stats
		var ns int64
		if err := rows.Scan(&st.RunID, &st.Language, &st.Strategy, &st.Games, &st.Trials,
			&st.AvgGuesses, &st.WinRate, &ns); err != nil {
			return nil, err
		}
		st.AvgTime = time.Duration(ns)
		out = append(out, st)
	}
	return out, rows.Err()
}
