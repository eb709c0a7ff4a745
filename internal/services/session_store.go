package services

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"flowpulse/internal/config"
	"flowpulse/internal/infrastructure"
	"flowpulse/pkg/contracts/domain"
)

// Session is one user's dashboard state. Tables are never mutated in
// place, so a copied Session is a consistent snapshot.
type Session struct {
	ID         string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	LastAccess time.Time
	// Filename is the last accepted upload; empty after a failed one.
	Filename string
	// Table holds the unit-converted readings.
	Table    domain.Table
	Controls domain.Controls
}

// HasData reports whether readings are loaded
func (s Session) HasData() bool {
	return len(s.Table.Columns) > 0
}

// SessionStore keeps sessions in memory and evicts them after an idle TTL
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl           time.Duration
	sweepInterval time.Duration
	maxSessions   int
	now           func() time.Time

	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewSessionStore creates an empty store. Call Start to run the sweeper.
func NewSessionStore(cfg config.SessionConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = config.DefaultSessionTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = config.DefaultSweepInterval
	}
	return &SessionStore{
		sessions:      make(map[string]*Session),
		ttl:           cfg.TTL,
		sweepInterval: cfg.SweepInterval,
		maxSessions:   cfg.MaxSessions,
		now:           time.Now,
		metrics:       metrics,
		logger:        logger.With(slog.String("component", "session_store")),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Create stores a new session with the given controls
func (s *SessionStore) Create(ctx context.Context, controls domain.Controls) (Session, error) {
	now := s.now()

	s.mu.Lock()
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		s.sweepLocked(ctx, now)
	}
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		s.mu.Unlock()
		return Session{}, ErrTooManySessions
	}
	sess := &Session{
		ID:         uuid.New().String(),
		CreatedAt:  now,
		UpdatedAt:  now,
		LastAccess: now,
		Controls:   controls,
	}
	s.sessions[sess.ID] = sess
	out := *sess
	s.mu.Unlock()

	infrastructure.RecordSessionChange(ctx, s.metrics, 1, false)
	s.logger.DebugContext(ctx, "session created", slog.String("session_id", out.ID))
	return out, nil
}

// Get returns a snapshot of a live session and refreshes its idle timer
func (s *SessionStore) Get(ctx context.Context, id string) (Session, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || s.expired(sess, now) {
		return Session{}, ErrSessionNotFound
	}
	sess.LastAccess = now
	return *sess, nil
}

// Update applies fn to a copy of the session and stores the result when fn
// succeeds. fn must not retain the pointer.
func (s *SessionStore) Update(ctx context.Context, id string, fn func(*Session) error) (Session, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || s.expired(sess, now) {
		return Session{}, ErrSessionNotFound
	}

	next := *sess
	if err := fn(&next); err != nil {
		return Session{}, err
	}
	next.ID = sess.ID
	next.CreatedAt = sess.CreatedAt
	next.UpdatedAt = now
	next.LastAccess = now
	*sess = next
	return next, nil
}

// Delete removes a session
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	infrastructure.RecordSessionChange(ctx, s.metrics, -1, false)
	s.logger.DebugContext(ctx, "session deleted", slog.String("session_id", id))
	return nil
}

// Len returns the number of stored sessions, expired ones included until
// the next sweep
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Capacity returns the session limit; zero means unlimited
func (s *SessionStore) Capacity() int {
	return s.maxSessions
}

// Sweep evicts idle sessions and returns how many were removed
func (s *SessionStore) Sweep(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(ctx, s.now())
}

func (s *SessionStore) sweepLocked(ctx context.Context, now time.Time) int {
	evicted := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			evicted++
			infrastructure.RecordSessionChange(ctx, s.metrics, -1, true)
		}
	}
	if evicted > 0 {
		s.logger.InfoContext(ctx, "idle sessions evicted",
			slog.Int("evicted", evicted),
			slog.Int("remaining", len(s.sessions)))
	}
	return evicted
}

func (s *SessionStore) expired(sess *Session, now time.Time) bool {
	return now.Sub(sess.LastAccess) > s.ttl
}

// Start runs the sweeper until ctx is cancelled or Stop is called. Only
// the first call starts it.
func (s *SessionStore) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Stop ends the sweeper and waits for it. It is safe to call more than
// once and without Start.
func (s *SessionStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	if s.started.Load() {
		<-s.done
	}
}
