package models

import "time"

// Timestamps is the shared created/updated pair embedded in every entity.
// Assigned once at construction; Touch is called by mutating operations.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewTimestamps(now time.Time) Timestamps {
	return Timestamps{CreatedAt: now, UpdatedAt: now}
}

// Touch refreshes UpdatedAt on a mutating operation.
func (t *Timestamps) Touch(now time.Time) {
	t.UpdatedAt = now
}
