// Package entity defines the timestamp base embedded by hookgate records.
package entity

import "time"

// Entity carries creation and last-update timestamps.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// At returns an Entity with both timestamps set to t in UTC.
func At(t time.Time) Entity {
	t = t.UTC()
	return Entity{CreatedAt: t, UpdatedAt: t}
}
