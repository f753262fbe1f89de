package models

import "time"

// Staff is a facility operator allowed to manage any reservation.
type Staff struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
