// Package models defines server-side data models persisted in the database.
package models

import "time"

// Campaign is a named grouping of files exclusively owned by one user.
// OwnerID is immutable after creation. Names are not unique; duplicates
// are allowed.
type Campaign struct {
	// ID is the opaque unique identifier (uuid).
	ID string
	// OwnerID is the user that created the campaign.
	OwnerID string
	// Name is the display name. Non-empty, mutable by the owner.
	Name string
	// CreatedAt is the server-side creation timestamp.
	CreatedAt time.Time
}
