package games

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"coinbot/utils"
)

// Session is an in-flight round tracked by the Manager
type Session interface {
	ID() string
	AccountID() int64
	Kind() Kind
	// Abandon ends the round without settlement; false if it already ended
	Abandon() bool
}

type managedSession struct {
	session Session
	timeout time.Duration
	timer   *time.Timer
	gen     uint64
}

// slotOpTimeout bounds slot calls made outside a request context
const slotOpTimeout = 2 * time.Second

// Manager enforces at most one active session per account and abandons
// sessions that see no input within their timeout.
type Manager struct {
	mu        sync.Mutex
	byAccount map[int64]*managedSession
	byID      map[string]*managedSession
	onAbandon func(Session)
	slots     SlotGuard
	closed    bool
}

func NewManager() *Manager {
	return &Manager{
		byAccount: make(map[int64]*managedSession),
		byID:      make(map[string]*managedSession),
	}
}

// OnAbandon sets the hook run after a session times out
func (m *Manager) OnAbandon(fn func(Session)) {
	m.mu.Lock()
	m.onAbandon = fn
	m.mu.Unlock()
}

// UseSlots shares session slots with other processes through g
func (m *Manager) UseSlots(g SlotGuard) {
	m.mu.Lock()
	m.slots = g
	m.mu.Unlock()
}

// Register tracks s and arms its timeout. A zero timeout never expires.
// When slots are shared, a session held by another process also counts
// as active; an unreachable slot store is logged and ignored.
func (m *Manager) Register(ctx context.Context, s Session, timeout time.Duration) error {
	m.mu.Lock()
	if _, active := m.byAccount[s.AccountID()]; active {
		m.mu.Unlock()
		return ErrSessionAlreadyActive
	}
	ms := &managedSession{session: s, timeout: timeout}
	m.byAccount[s.AccountID()] = ms
	m.byID[s.ID()] = ms
	slots := m.slots
	m.mu.Unlock()

	if slots != nil {
		ok, err := slots.Acquire(ctx, s.AccountID(), s.ID(), slotTTL+timeout)
		switch {
		case err != nil:
			log.Warn().Err(err).Int64("user_id", s.AccountID()).Msg("session slot store unavailable, enforcing in process only")
		case !ok:
			m.mu.Lock()
			m.removeLocked(s.ID())
			m.mu.Unlock()
			return ErrSessionAlreadyActive
		}
	}

	m.mu.Lock()
	if _, ok := m.byID[s.ID()]; !ok {
		// Closed while the slot was being acquired.
		m.mu.Unlock()
		m.releaseSlot(ms)
		return ErrSessionTimeout
	}
	m.arm(ms)
	m.mu.Unlock()

	utils.GamesStarted.WithLabelValues(string(s.Kind())).Inc()
	return nil
}

// Lookup returns the active session with id
func (m *Manager) Lookup(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, ok := m.byID[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ms.session, nil
}

// Touch restarts the session's timeout. It fails with ErrSessionTimeout
// once the session has expired or ended.
func (m *Manager) Touch(ctx context.Context, id string) error {
	m.mu.Lock()
	ms, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		return ErrSessionTimeout
	}
	m.arm(ms)
	slots := m.slots
	m.mu.Unlock()

	if slots != nil {
		if err := slots.Refresh(ctx, ms.session.AccountID(), id, slotTTL+ms.timeout); err != nil {
			log.Warn().Err(err).Str("session_id", id).Msg("failed to refresh session slot")
		}
	}
	return nil
}

// Remove stops tracking the session; the account may start a new one
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	ms, ok := m.removeLocked(id)
	m.mu.Unlock()

	if ok {
		m.releaseSlot(ms)
	}
}

// Stats returns the number of active sessions per game and in total
func (m *Manager) Stats() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := make(map[string]int)
	for _, ms := range m.byID {
		stats[string(ms.session.Kind())]++
	}
	stats["total"] = len(m.byID)
	return stats
}

// Close abandons every active session; used at shutdown
func (m *Manager) Close() {
	m.mu.Lock()
	removed := make([]*managedSession, 0, len(m.byID))
	for id := range m.byID {
		if ms, ok := m.removeLocked(id); ok {
			removed = append(removed, ms)
		}
	}
	m.closed = true
	m.mu.Unlock()

	for _, ms := range removed {
		ms.session.Abandon()
		m.releaseSlot(ms)
	}
}

// arm must be called with m.mu held
func (m *Manager) arm(ms *managedSession) {
	if ms.timer != nil {
		ms.timer.Stop()
	}
	ms.gen++
	if ms.timeout <= 0 || m.closed {
		return
	}

	id, gen := ms.session.ID(), ms.gen
	ms.timer = time.AfterFunc(ms.timeout, func() {
		m.expire(id, gen)
	})
}

func (m *Manager) expire(id string, gen uint64) {
	m.mu.Lock()
	ms, ok := m.byID[id]
	if !ok || ms.gen != gen {
		// Touched or removed after the timer fired.
		m.mu.Unlock()
		return
	}
	m.removeLocked(id)
	hook := m.onAbandon
	m.mu.Unlock()

	m.releaseSlot(ms)
	if !ms.session.Abandon() {
		return
	}

	log.Info().
		Str("session_id", id).
		Int64("user_id", ms.session.AccountID()).
		Str("game", string(ms.session.Kind())).
		Msg("session abandoned after timeout")

	if hook != nil {
		hook(ms.session)
	}
}

func (m *Manager) removeLocked(id string) (*managedSession, bool) {
	ms, ok := m.byID[id]
	if !ok {
		return nil, false
	}
	if ms.timer != nil {
		ms.timer.Stop()
	}
	delete(m.byID, id)
	if cur, ok := m.byAccount[ms.session.AccountID()]; ok && cur == ms {
		delete(m.byAccount, ms.session.AccountID())
	}
	return ms, true
}

// releaseSlot frees the shared slot; it must be called without m.mu held
func (m *Manager) releaseSlot(ms *managedSession) {
	m.mu.Lock()
	slots := m.slots
	m.mu.Unlock()
	if slots == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), slotOpTimeout)
	defer cancel()
	if err := slots.Release(ctx, ms.session.AccountID(), ms.session.ID()); err != nil {
		log.Warn().Err(err).Str("session_id", ms.session.ID()).Msg("failed to release session slot")
	}
}
