// In-memory implementation of the session Store.
// Holds live play sessions keyed by environment ID; state is lost on
// restart. Concurrency-safe via RWMutex.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/robalobadob/wordle/apps/solver/internal/game"
)

var ErrNotFound = errors.New("store: not found")

// Session is one human play session. Env is not goroutine-safe, so
// handlers hold Mu while using it.
type Session struct {
	Mu       sync.Mutex
	Env      *game.Environment
	Language string
	Strategy string // solver replayed on the same secret once the game ends
}

// Store defines the persistence interface for play sessions.
type Store interface {
	// Save persists or updates a session.
	Save(ctx context.Context, s *Session) error

	// Get retrieves a session by environment ID.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete forgets a session.
	Delete(ctx context.Context, id string) error
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Session)}
}

func (m *memory) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Env.ID] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
