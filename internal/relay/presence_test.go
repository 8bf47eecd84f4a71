package relay

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTrackedRegistry(t *testing.T, mirror StatusMirror) *Registry {
	t.Helper()
	r := NewRegistry()
	r.SetListener(NewTracker(discardLogger(), mirror, nil))
	return r
}

func joinSession(t *testing.T, r *Registry, identity string) (string, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	id, err := r.Register(conn)
	require.NoError(t, err)
	require.NoError(t, r.ConfirmJoin(id, identity))
	return id, conn
}

func TestJoinAnnouncedToAllIncludingJoiner(t *testing.T) {
	r := newTrackedRegistry(t, nil)

	_, alice := joinSession(t, r, "alice")

	joined := alice.ofType(EventJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "alice", joined[0].User)
	assert.Equal(t, []string{"alice"}, joined[0].Roster)

	_, bob := joinSession(t, r, "bob")

	joined = alice.ofType(EventJoined)
	require.Len(t, joined, 2)
	assert.Equal(t, "bob", joined[1].User)
	assert.Equal(t, []string{"alice", "bob"}, joined[1].Roster)

	joined = bob.ofType(EventJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, []string{"alice", "bob"}, joined[0].Roster)
}

func TestLeaveAnnouncedWithUpdatedRoster(t *testing.T) {
	r := newTrackedRegistry(t, nil)

	_, alice := joinSession(t, r, "alice")
	bobID, bob := joinSession(t, r, "bob")

	r.Deregister(bobID)

	left := alice.ofType(EventLeft)
	require.Len(t, left, 1)
	assert.Equal(t, "bob", left[0].User)
	assert.Equal(t, []string{"alice"}, left[0].Roster)

	// The departed session receives nothing.
	assert.Empty(t, bob.ofType(EventLeft))
}

func TestPendingDisconnectEmitsNothing(t *testing.T) {
	r := newTrackedRegistry(t, nil)

	_, alice := joinSession(t, r, "alice")

	conn := &fakeConn{}
	id, err := r.Register(conn)
	require.NoError(t, err)
	r.Deregister(id)

	assert.Empty(t, alice.ofType(EventLeft))
}

type fakeMirror struct {
	mu      sync.Mutex
	online  []string
	offline []string
}

func (m *fakeMirror) SessionOnline(_ context.Context, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online = append(m.online, identity)
	return nil
}

func (m *fakeMirror) SessionOffline(_ context.Context, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline = append(m.offline, identity)
	return nil
}

func TestMirrorSeesTransitions(t *testing.T) {
	mirror := &fakeMirror{}
	r := newTrackedRegistry(t, mirror)

	id, _ := joinSession(t, r, "alice")
	r.Deregister(id)

	assert.Equal(t, []string{"alice"}, mirror.online)
	assert.Equal(t, []string{"alice"}, mirror.offline)
}
