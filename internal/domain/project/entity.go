package project

import "time"

// Project is a collaborative workspace owned by a single user. Slugs are
// unique per owner.
type Project struct {
	ID        string
	OwnerID   string
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
