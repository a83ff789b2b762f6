package models

import "time"

// ShortlistSortOrder selects the ordering of the shortlist view
type ShortlistSortOrder string

const (
	SortRecent        ShortlistSortOrder = "recent"
	SortCompatibility ShortlistSortOrder = "compatibility"
	SortPriceLow      ShortlistSortOrder = "price-low"
	SortPriceHigh     ShortlistSortOrder = "price-high"
)

// ShortlistViewMode selects how the shortlist is laid out
type ShortlistViewMode string

const (
	ViewGrid ShortlistViewMode = "grid"
	ViewList ShortlistViewMode = "list"
)

// ShortlistItem is a saved apartment with its metadata
type ShortlistItem struct {
	ApartmentID string    `json:"apartment_id" validate:"required"`
	CreatedAt   time.Time `json:"created_at" validate:"required"`
	Note        string    `json:"note,omitempty"`
}

// ShortlistExport is the portable form of the shortlist
type ShortlistExport struct {
	Items []ShortlistItem `json:"items" validate:"unique=ApartmentID,dive"`
	// Notes holds notes on apartment ids that are not saved
	Notes      map[string]string `json:"notes,omitempty"`
	ExportedAt time.Time         `json:"exported_at"`
	Version    string            `json:"version" validate:"required"`
}

// ShortlistSettings are the persisted presentation choices of the shortlist
type ShortlistSettings struct {
	SortOrder ShortlistSortOrder `json:"sort_order" validate:"omitempty,oneof=recent compatibility price-low price-high"`
	ViewMode  ShortlistViewMode  `json:"view_mode" validate:"omitempty,oneof=grid list"`
}
