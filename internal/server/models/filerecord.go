package models

import "time"

// FileRecord links a campaign to an input blob's storage key. Records are
// created once, never mutated, and deleted only as part of a campaign
// cascade delete.
type FileRecord struct {
	// ID is the opaque unique identifier (uuid).
	ID string
	// OwnerID is the user that uploaded the file.
	OwnerID string
	// CampaignID is the parent campaign.
	CampaignID string
	// FileName is the stored file name shown in listings.
	FileName string
	// FileType is the declared content type (e.g. "application/pdf").
	FileType string
	// StorageKey is the object key in the input bucket. It starts with the
	// owner id as a path prefix, e.g. "u1/1622467890123.pdf".
	StorageKey string
	// CreatedAt is the server-side creation timestamp.
	CreatedAt time.Time
}

// FileListing is a FileRecord joined with its resolved URLs for a campaign
// listing. OutputURL is empty when the derived artifact has not been
// generated yet.
type FileListing struct {
	Record    FileRecord
	InputURL  string
	OutputURL string
}
