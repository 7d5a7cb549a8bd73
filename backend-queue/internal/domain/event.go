package domain

import "time"

// Event is a queue that visitors take numbers from
type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	PinHash   string    `json:"-"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Counter is the per-event ticket number sequence
type Counter struct {
	EventID    string `json:"event_id"`
	LastNumber int64  `json:"last_number"`
}
