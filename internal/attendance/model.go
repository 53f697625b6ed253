package attendance

import "time"

// Event is one gathering with its own roster and check-in log.
type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Guest is one invited-roster entry for an event. Guests are keyed by the
// normalized form of Name within an event.
type Guest struct {
	EventID   string    `json:"event_id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Checkin is one append-only check-in log row. OccurredAt is zero when the
// client supplied no timestamp; Invited is nil when the client did not say.
type Checkin struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	Name       string    `json:"name"`
	Contact    string    `json:"contact,omitempty"`
	PartySize  int       `json:"party_size"`
	OccurredAt time.Time `json:"occurred_at,omitempty"`
	PhotoRef   string    `json:"photo_ref,omitempty"`
	Invited    *bool     `json:"invited,omitempty"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
