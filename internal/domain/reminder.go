package domain

import "time"

// Reminder is a study reminder set through the assistant. At is the clock
// time as shown to the user, e.g. "08:00 AM".
type Reminder struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	At        string    `json:"at"`
	CreatedAt time.Time `json:"created_at"`
}
