package enrollment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ehr/enrollment/internal/domain/validation"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 30 * time.Minute

// Manager owns the live enrollment sessions.
type Manager struct {
	deps Deps
	ttl  time.Duration
	log  zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Controller
}

func NewManager(deps Deps, ttl time.Duration) *Manager {
	deps = deps.withDefaults()
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Manager{
		deps:     deps,
		ttl:      ttl,
		log:      deps.Logger,
		sessions: make(map[string]*Controller),
	}
}

// Start loads the practitioner and country lists and opens a new session.
// No session is created when either lookup fails.
func (m *Manager) Start(ctx context.Context, registrant validation.Registrant) (*Controller, error) {
	switch registrant {
	case "", validation.RegistrantPatient, validation.RegistrantCaregiver:
	default:
		return nil, fmt.Errorf("%w: registrant %q", ErrInvalidRegistrant, registrant)
	}

	var (
		practitioners []PractitionerEntry
		countries     []Option
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		practitioners, err = m.deps.Backend.ListPractitioners(gctx)
		if err != nil {
			return fmt.Errorf("list practitioners: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		countries, err = m.deps.Backend.ListCountries(gctx)
		if err != nil {
			return fmt.Errorf("list countries: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	c := NewController(id, registrant, NewPractitionerDirectory(practitioners), countries, m.deps)

	m.mu.Lock()
	m.sessions[id] = c
	n := len(m.sessions)
	m.mu.Unlock()

	m.deps.Observer.SessionsActive(n)
	m.log.Info().Str("session_id", id).Str("registrant", string(c.View().Registrant)).Msg("enrollment session started")
	return c, nil
}

// Get returns a live session. Sessions idle for longer than the TTL are
// dropped on access.
func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.Lock()
	c, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if c.expired(m.deps.now(), m.ttl) {
		m.remove(id)
		return nil, ErrSessionNotFound
	}
	return c, nil
}

// Delete abandons a session and clears its client storage.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if !m.remove(id) {
		return ErrSessionNotFound
	}
	if err := m.deps.Storage.Clear(ctx, id); err != nil {
		return fmt.Errorf("clear client storage: %w", err)
	}
	return nil
}

func (m *Manager) remove(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	if ok {
		m.deps.Observer.SessionsActive(n)
	}
	return ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops every session idle since before now minus the TTL and
// returns how many were removed. Sessions waiting on a backend call are kept. Client storage is kept so landing and
// error pages can still read it.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	var expired []string
	for id, c := range m.sessions {
		if c.expired(now, m.ttl) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(m.sessions, id)
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if len(expired) > 0 {
		m.deps.Observer.SessionsActive(n)
		m.log.Debug().Int("expired", len(expired)).Msg("swept idle enrollment sessions")
	}
	return len(expired)
}

// Run sweeps expired sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(m.deps.now())
		}
	}
}
