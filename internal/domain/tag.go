package domain

import "time"

// Tag is immutable reference data describing a story interest.
// A fixed initial set is seeded at first run.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserTag is the many-to-many association of a user's explicit tag interests.
// Unique per (user, tag) pair.
type UserTag struct {
	UserID    string    `json:"user_id"`
	TagID     string    `json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Recommendation is the per-(user, tag) affinity score maintained by the
// recommendation aggregator and adjusted incrementally on tag updates.
// Unique per (user, tag): created on first occurrence, updated thereafter.
type Recommendation struct {
	UserID    string    `json:"user_id"`
	TagID     string    `json:"tag_id"`
	TagName   string    `json:"tag_name,omitempty"` // denormalized for responses
	TagCount  int       `json:"tag_count"`
	UpdatedAt time.Time `json:"updated_at"`
}
