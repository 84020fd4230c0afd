package ledger

import (
	"context"
	"strconv"
	"sync"

	"github.com/savorsave/savorsave/internal/core/port"
	"go.uber.org/zap"
)

// Manager hands out one Session per owner and fans realtime events into the
// sessions that are actually loaded. Sessions are process-lifetime caches:
// once loaded, an owner's collection stays resident so the subscriber can
// keep merging into it. There is no eviction; restarting the process is the
// only way to drop a loaded owner.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	repo      port.Repository
	publisher port.EventPublisher
	logger    *zap.Logger
}

func NewManager(repo port.Repository, publisher port.EventPublisher, logger *zap.Logger) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Session returns the loaded session for owner, loading it on first use. All
// guest callers share the null-owner session.
func (m *Manager) Session(ctx context.Context, owner *uint64) (*Session, error) {
	key := ownerKey(owner)

	m.mu.Lock()
	sess, ok := m.sessions[key]
	if !ok {
		sess = newSession(owner, m.repo, m.publisher, m.logger.Named(key))
		m.sessions[key] = sess
		m.mu.Unlock()
		if err := sess.Reload(ctx); err != nil {
			m.mu.Lock()
			delete(m.sessions, key)
			m.mu.Unlock()
			return nil, err
		}
		return sess, nil
	}
	m.mu.Unlock()
	return sess, nil
}

// ApplyRemoteEvent routes a push notification to the owning session. Events
// for owners without a loaded session are dropped; their state is fetched
// fresh when the session loads.
func (m *Manager) ApplyRemoteEvent(ev port.ExpenseEvent) {
	m.mu.Lock()
	sess, ok := m.sessions[ownerKey(ev.OwnerID)]
	m.mu.Unlock()
	if ok {
		sess.ApplyRemoteEvent(ev)
	}
}

func ownerKey(owner *uint64) string {
	if owner == nil {
		return "guest"
	}
	return strconv.FormatUint(*owner, 10)
}
