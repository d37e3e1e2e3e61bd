package domain

import "time"

// Campaign is a time-boxed fundraiser run by a profile against a product
// catalog. A campaign belongs to exactly one profile.
//
// The catalog reference is not validated against the catalog service; a
// campaign may point at a catalog id the engine has never seen.
type Campaign struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profile_id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CatalogID string    `json:"catalog_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
