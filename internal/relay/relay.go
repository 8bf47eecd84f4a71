package relay

import (
	"log/slog"
	"strings"
	"time"
)

// Relay routes a published message to every session active at publish
// time, the sender included. Per-sender ordering holds because Publish is
// only ever called from the sender's own session goroutine.
type Relay struct {
	registry *Registry
	maxBody  int
	now      func() time.Time
	log      *slog.Logger
	onFail   func(Member, error)
}

func NewRelay(registry *Registry, maxBody int, log *slog.Logger, onFail func(Member, error)) *Relay {
	return &Relay{
		registry: registry,
		maxBody:  maxBody,
		now:      time.Now,
		log:      log,
		onFail:   onFail,
	}
}

// Publish validates and stamps the message, then fans it out to the
// active snapshot. Per-recipient delivery failures go to the failure
// callback and never fail the publish; the returned error only reflects
// the sender's own mistakes.
func (r *Relay) Publish(senderSessionID, body string) (ChatMessage, error) {
	sender, ok := r.registry.ActiveMember(senderSessionID)
	if !ok {
		return ChatMessage{}, ErrNotJoined
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return ChatMessage{}, ErrEmptyMessage
	}
	if r.maxBody > 0 && len(body) > r.maxBody {
		return ChatMessage{}, ErrMessageTooLong
	}

	msg := ChatMessage{
		SenderIdentity:     sender.Identity,
		SenderConnectionID: sender.SessionID,
		Body:               body,
		ServerTimestamp:    r.now(),
	}

	members := r.registry.SnapshotActive()
	fanOut(members, "", msg.Event(), r.onFail)
	r.log.Debug("message relayed", "user", sender.Identity, "recipients", len(members))
	return msg, nil
}
