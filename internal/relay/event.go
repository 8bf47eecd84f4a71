package relay

import "time"

// EventType identifies a frame on the event surface.
type EventType string

const (
	// Inbound events
	EventJoin    EventType = "join"
	EventMessage EventType = "message"
	EventTyping  EventType = "typing"

	// Outbound events
	EventJoined        EventType = "joined"
	EventLeft          EventType = "left"
	EventTypingStarted EventType = "typing_started"
	EventTypingStopped EventType = "typing_stopped"
	EventError         EventType = "error"
)

// Event is the JSON envelope exchanged with clients. Fields not carried
// by a given event type are omitted from the frame.
type Event struct {
	Type    EventType `json:"type"`
	User    string    `json:"user,omitempty"`
	ConnID  string    `json:"connId,omitempty"`
	Body    string    `json:"body,omitempty"`
	Roster  []string  `json:"roster,omitempty"`
	SentAt  string    `json:"sentAt,omitempty"`
	Code    string    `json:"code,omitempty"`
	Message string    `json:"message,omitempty"`
}

// ChatMessage is a published message stamped by the relay. It exists only
// transiently on the fan-out path and is never persisted.
type ChatMessage struct {
	SenderIdentity     string
	SenderConnectionID string
	Body               string
	ServerTimestamp    time.Time
}

// Event converts the message into its outbound frame. The sender is part
// of the recipient set; clients tell their own messages apart by connId,
// not by suppression.
func (m ChatMessage) Event() Event {
	return Event{
		Type:   EventMessage,
		User:   m.SenderIdentity,
		ConnID: m.SenderConnectionID,
		Body:   m.Body,
		SentAt: m.ServerTimestamp.Format(time.RFC3339),
	}
}

func errorEvent(err error) Event {
	return Event{Type: EventError, Code: ErrorCode(err), Message: err.Error()}
}
