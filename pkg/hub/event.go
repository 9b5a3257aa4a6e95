package hub

import "time"

// Event is one pipeline lifecycle notification pushed to subscribers.
type Event struct {
	// Type is the event kind: "request", "transcript", "reply",
	// "audio", or "error".
	Type string `json:"type"`

	// Route is the HTTP route that produced the event.
	Route string `json:"route,omitempty"`

	// SessionID scopes the event to a conversation, when there is one.
	SessionID string `json:"session_id,omitempty"`

	// Detail carries the event payload: transcript text, reply text,
	// artifact id, or error message.
	Detail string `json:"detail,omitempty"`

	Time time.Time `json:"time"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType, route, sessionID, detail string) Event {
	return Event{
		Type:      eventType,
		Route:     route,
		SessionID: sessionID,
		Detail:    detail,
		Time:      time.Now(),
	}
}
