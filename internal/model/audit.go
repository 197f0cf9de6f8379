package model

import "time"

// Revision is an immutable snapshot of an item's notes text. Every item has
// at least one, created together with the item.
type Revision struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	Notes     string    `json:"notes"`
	Timestamp time.Time `json:"timestamp"`
}

// ItemChange records one field-level edit. Never written when old and new
// string forms are equal.
type ItemChange struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	Timestamp time.Time `json:"timestamp"`
}

// ImageHistoryEntry records one mutating image operation. Metadata carries
// action-specific context, e.g. "from:<old_path>" for a replace.
type ImageHistoryEntry struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	ImagePath string    `json:"image_path"`
	Action    string    `json:"action"`
	Metadata  string    `json:"metadata,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PriceSample is one raw numeric value extracted from analysis text. The
// cached summary on the item supersedes these for display, but samples stay
// the source of truth for re-derivation.
type PriceSample struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
