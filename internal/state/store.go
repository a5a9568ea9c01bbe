package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	activeStoreName = "active_sessions"
	closedStoreName = "closed_sessions"
)

// backend is the physical storage of one logical store.
type backend interface {
	read(ctx context.Context) ([]WindowSession, error)
	write(ctx context.Context, sessions []WindowSession) error
	// recover discards unusable content so the next write starts fresh.
	recover(ctx context.Context, cause error)
}

// collection serializes every access to one backend.
type collection struct {
	name string
	mu   sync.Mutex
	b    backend
}

// Store manages the active and closed session stores.
type Store struct {
	active *collection
	closed *collection
	logger zerolog.Logger
	now    func() time.Time

	closeFn func() error
}

func newStore(active, closed backend, logger zerolog.Logger) *Store {
	return &Store{
		active: &collection{name: activeStoreName, b: active},
		closed: &collection{name: closedStoreName, b: closed},
		logger: logger.With().Str("component", "state").Logger(),
		now:    time.Now,
	}
}

// Close releases backend connections.
func (st *Store) Close() error {
	if st.closeFn == nil {
		return nil
	}
	return st.closeFn()
}

// SaveActive replaces the active store's content with s.
func (st *Store) SaveActive(ctx context.Context, s WindowSession) error {
	return st.replace(ctx, st.active, s)
}

// LoadActive returns the active record, if any.
func (st *Store) LoadActive(ctx context.Context) ([]WindowSession, error) {
	return st.load(ctx, st.active)
}

// ClearActive empties the active store. Called when the current window closes
// normally.
func (st *Store) ClearActive(ctx context.Context) error {
	return st.clear(ctx, st.active)
}

// SaveForRestore replaces the closed store's content with s. Called at
// shutdown.
func (st *Store) SaveForRestore(ctx context.Context, s WindowSession) error {
	return st.replace(ctx, st.closed, s)
}

// LoadForRestore returns the record written at the last shutdown, if any.
// It does not consume the record; see ClearRestored.
func (st *Store) LoadForRestore(ctx context.Context) ([]WindowSession, error) {
	return st.load(ctx, st.closed)
}

// ClearRestored empties the closed store once its record has been applied.
func (st *Store) ClearRestored(ctx context.Context) error {
	return st.clear(ctx, st.closed)
}

// PruneOlderThan drops closed records saved more than days ago.
func (st *Store) PruneOlderThan(ctx context.Context, days int) error {
	c := st.closed
	c.mu.Lock()
	defer c.mu.Unlock()

	sessions, err := c.b.read(ctx)
	if err != nil {
		st.recoverLocked(ctx, c, err)
		return nil
	}

	cutoff := st.now().AddDate(0, 0, -days)
	kept := sessions[:0]
	for _, s := range sessions {
		if !s.Timestamp.Before(cutoff) {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(sessions) {
		return nil
	}

	st.logger.Debug().Int("pruned", len(sessions)-len(kept)).Int("days", days).Msg("pruned closed sessions")
	if err := c.b.write(ctx, kept); err != nil {
		st.recoverLocked(ctx, c, err)
		return fmt.Errorf("prune %s: %w", c.name, err)
	}
	return nil
}

func (st *Store) replace(ctx context.Context, c *collection, s WindowSession) error {
	if err := s.Validate(); err != nil {
		return err
	}
	s = s.clone()
	s.Timestamp = st.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	// A damaged store is set aside before it is overwritten.
	if _, err := c.b.read(ctx); err != nil {
		st.recoverLocked(ctx, c, err)
	}

	if err := c.b.write(ctx, []WindowSession{s}); err != nil {
		st.recoverLocked(ctx, c, err)
		return fmt.Errorf("save %s: %w", c.name, err)
	}
	return nil
}

func (st *Store) load(ctx context.Context, c *collection) ([]WindowSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sessions, err := c.b.read(ctx)
	if err != nil {
		st.recoverLocked(ctx, c, err)
		return nil, nil
	}
	if len(sessions) > 1 {
		sessions = sessions[:1]
	}
	return sessions, nil
}

func (st *Store) clear(ctx context.Context, c *collection) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.b.write(ctx, nil); err != nil {
		st.recoverLocked(ctx, c, err)
		return fmt.Errorf("clear %s: %w", c.name, err)
	}
	return nil
}

func (st *Store) recoverLocked(ctx context.Context, c *collection, cause error) {
	st.logger.Warn().Err(cause).Str("store", c.name).Msg("session store unusable, recovering")
	c.b.recover(ctx, cause)
}
