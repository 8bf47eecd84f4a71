package relay

import (
	"context"
	"log/slog"
	"time"
)

// StatusMirror receives presence transitions for external status tooling
// (the Redis mirror in production). It is write-only: nothing on the
// broadcast path ever reads it back.
type StatusMirror interface {
	SessionOnline(ctx context.Context, identity string) error
	SessionOffline(ctx context.Context, identity string) error
}

const mirrorTimeout = 2 * time.Second

// Tracker derives joined/left events from registry transitions and fans
// them out with the current roster. It holds no member state of its own;
// the roster always comes from the snapshot taken at the transition.
type Tracker struct {
	log    *slog.Logger
	mirror StatusMirror
	onFail func(Member, error)
}

func NewTracker(log *slog.Logger, mirror StatusMirror, onFail func(Member, error)) *Tracker {
	return &Tracker{log: log, mirror: mirror, onFail: onFail}
}

// SessionActivated announces a join to every active session, the new one
// included, so the joiner learns the roster it is part of.
func (t *Tracker) SessionActivated(m Member, active []Member) {
	ev := Event{Type: EventJoined, User: m.Identity, Roster: Roster(active)}
	fanOut(active, "", ev, t.onFail)
	t.log.Info("user joined", "user", m.Identity, "session", m.SessionID, "online", len(active))

	if t.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		if err := t.mirror.SessionOnline(ctx, m.Identity); err != nil {
			t.log.Warn("presence mirror update failed", "user", m.Identity, "error", err)
		}
	}
}

// SessionRemoved announces a leave to the remaining active sessions.
func (t *Tracker) SessionRemoved(identity string, active []Member) {
	ev := Event{Type: EventLeft, User: identity, Roster: Roster(active)}
	fanOut(active, "", ev, t.onFail)
	t.log.Info("user left", "user", identity, "online", len(active))

	if t.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		if err := t.mirror.SessionOffline(ctx, identity); err != nil {
			t.log.Warn("presence mirror update failed", "user", identity, "error", err)
		}
	}
}
