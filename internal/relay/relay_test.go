package relay

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRelayFixture(t *testing.T, maxBody int) (*Registry, *Relay) {
	t.Helper()
	r := NewRegistry()
	return r, NewRelay(r, maxBody, discardLogger(), nil)
}

func TestPublishFansOutToAllIncludingSender(t *testing.T) {
	r, rl := newRelayFixture(t, 0)
	aliceID, alice := joinSession(t, r, "alice")
	_, bob := joinSession(t, r, "bob")

	msg, err := rl.Publish(aliceID, "hi")
	require.NoError(t, err)
	assert.Equal(t, "alice", msg.SenderIdentity)
	assert.Equal(t, aliceID, msg.SenderConnectionID)
	assert.Equal(t, "hi", msg.Body)
	assert.WithinDuration(t, time.Now(), msg.ServerTimestamp, time.Second)

	for _, conn := range []*fakeConn{alice, bob} {
		got := conn.ofType(EventMessage)
		require.Len(t, got, 1, "each recipient receives the message exactly once")
		assert.Equal(t, "alice", got[0].User)
		assert.Equal(t, aliceID, got[0].ConnID)
		assert.Equal(t, "hi", got[0].Body)
		assert.NotEmpty(t, got[0].SentAt)
	}
}

func TestPublishValidation(t *testing.T) {
	r, rl := newRelayFixture(t, 10)
	aliceID, alice := joinSession(t, r, "alice")

	pendingConn := &fakeConn{}
	pendingID, err := r.Register(pendingConn)
	require.NoError(t, err)

	goneID, _ := joinSession(t, r, "ghost")
	r.Deregister(goneID)

	tests := []struct {
		name    string
		sender  string
		body    string
		wantErr error
	}{
		{"pending sender", pendingID, "hi", ErrNotJoined},
		{"removed sender", goneID, "hi", ErrNotJoined},
		{"empty body", aliceID, "", ErrEmptyMessage},
		{"whitespace body", aliceID, " \t\n ", ErrEmptyMessage},
		{"over max length", aliceID, strings.Repeat("x", 11), ErrMessageTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(alice.ofType(EventMessage))
			_, err := rl.Publish(tt.sender, tt.body)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Len(t, alice.ofType(EventMessage), before, "failed publish must not broadcast")
		})
	}
}

func TestPublishTrimsBody(t *testing.T) {
	r, rl := newRelayFixture(t, 0)
	aliceID, alice := joinSession(t, r, "alice")

	msg, err := rl.Publish(aliceID, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Body)
	assert.Equal(t, "hello", alice.ofType(EventMessage)[0].Body)
}

func TestPublishSurvivesFailingRecipient(t *testing.T) {
	r := NewRegistry()
	var failed []string
	rl := NewRelay(r, 0, discardLogger(), func(m Member, err error) {
		failed = append(failed, m.Identity)
	})

	aliceID, alice := joinSession(t, r, "alice")
	_, charlie := joinSession(t, r, "charlie")

	stuck := &fakeConn{failWrites: true}
	stuckID, err := r.Register(stuck)
	require.NoError(t, err)
	require.NoError(t, r.ConfirmJoin(stuckID, "bob"))

	_, err = rl.Publish(aliceID, "hi")
	require.NoError(t, err, "a failed recipient write must not fail the publish")

	assert.Equal(t, []string{"bob"}, failed)
	assert.Len(t, alice.ofType(EventMessage), 1)
	assert.Len(t, charlie.ofType(EventMessage), 1)
}

func TestPublishDeliversToPublishTimeSnapshot(t *testing.T) {
	r, rl := newRelayFixture(t, 0)
	aliceID, _ := joinSession(t, r, "alice")
	bobID, bob := joinSession(t, r, "bob")

	r.Deregister(bobID)
	_, err := rl.Publish(aliceID, "after bob left")
	require.NoError(t, err)

	assert.Empty(t, bob.ofType(EventMessage), "deregistered session must not receive broadcasts")
}
