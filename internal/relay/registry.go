package relay

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Conn is the transport half of a session. WriteEvent must not block on a
// slow peer: implementations enqueue into a bounded buffer and report an
// error when the buffer is full so one stuck recipient cannot stall
// fan-out to the others.
type Conn interface {
	WriteEvent(Event) error
	Close() error
}

// Member is one entry of an active-set snapshot.
type Member struct {
	SessionID string
	Identity  string
	Conn      Conn
}

// RegistryListener observes session state transitions. Callbacks run on
// the goroutine that performed the mutation, after the registry lock has
// been released, so a listener may read the registry but must not mutate
// it.
type RegistryListener interface {
	SessionActivated(m Member, active []Member)
	SessionRemoved(identity string, active []Member)
}

type session struct {
	id       string
	conn     Conn
	identity string
	active   bool
}

// Registry is the single source of truth for broadcast membership. All
// mutations and snapshot reads go through one RWMutex; fan-out paths
// re-read it at delivery time instead of keeping their own copy.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	order    []string
	listener RegistryListener

	newID func() string
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		newID:    uuid.NewString,
	}
}

// SetListener installs the transition observer. Must be called before the
// first Register.
func (r *Registry) SetListener(l RegistryListener) {
	r.listener = l
}

// Register adds a connection in pending-join state and returns its
// session id. Ids are generated server-side and never reused while the
// process runs; a collision means the id source is broken and is treated
// as a fatal invariant violation.
func (r *Registry) Register(conn Conn) (string, error) {
	id := r.newID()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; ok {
		return "", ErrDuplicateConnection
	}
	r.sessions[id] = &session{id: id, conn: conn}
	r.order = append(r.order, id)
	return id, nil
}

// ConfirmJoin transitions a pending session to active under the given
// identity. The identity must be non-empty after trimming.
func (r *Registry) ConfirmJoin(sessionID, identity string) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return ErrInvalidIdentity
	}

	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return ErrUnknownSession
	}
	if s.active {
		r.mu.Unlock()
		return nil
	}
	s.identity = identity
	s.active = true
	m := Member{SessionID: s.id, Identity: s.identity, Conn: s.conn}
	active := r.snapshotLocked()
	r.mu.Unlock()

	if r.listener != nil {
		r.listener.SessionActivated(m, active)
	}
	return nil
}

// Deregister removes a session. Idempotent: removing an absent or
// pending session is not an error. Returns the identity and true when an
// active session was removed.
func (r *Registry) Deregister(sessionID string) (string, bool) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return "", false
	}
	delete(r.sessions, sessionID)
	for i, id := range r.order {
		if id == sessionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	wasActive := s.active
	identity := s.identity
	var active []Member
	if wasActive {
		active = r.snapshotLocked()
	}
	r.mu.Unlock()

	if wasActive && r.listener != nil {
		r.listener.SessionRemoved(identity, active)
	}
	return identity, wasActive
}

// SnapshotActive returns a point-in-time view of the active sessions in
// insertion order.
func (r *Registry) SnapshotActive() []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// ActiveMember looks up a single session, reporting whether it is active.
func (r *Registry) ActiveMember(sessionID string) (Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok || !s.active {
		return Member{}, false
	}
	return Member{SessionID: s.id, Identity: s.identity, Conn: s.conn}, true
}

func (r *Registry) snapshotLocked() []Member {
	members := make([]Member, 0, len(r.order))
	for _, id := range r.order {
		s := r.sessions[id]
		if s == nil || !s.active {
			continue
		}
		members = append(members, Member{SessionID: s.id, Identity: s.identity, Conn: s.conn})
	}
	return members
}

// Roster extracts the ordered identity list from a snapshot.
func Roster(members []Member) []string {
	roster := make([]string, 0, len(members))
	for _, m := range members {
		roster = append(roster, m.Identity)
	}
	return roster
}

// fanOut delivers one event to every member except the excluded session.
// Delivery is at-most-once and best-effort: a failed write is handed to
// onFail and never stops delivery to the remaining members.
func fanOut(members []Member, except string, ev Event, onFail func(Member, error)) {
	for _, m := range members {
		if m.SessionID == except {
			continue
		}
		if err := m.Conn.WriteEvent(ev); err != nil && onFail != nil {
			onFail(m, err)
		}
	}
}
