package domain

import "time"

// Customer is a known bettor. Names are matched case-insensitively and
// created on first approval when unknown.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Bazar is one market draw slot. The canonical short names are seeded at
// startup; DisplayName is what review screens show.
type Bazar struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	SortOrder   int    `json:"sort_order"`
}
