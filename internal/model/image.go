package model

import "time"

// Image is a file-system reference associated with an item. ID 0 marks the
// item's legacy single-image reference, which has no row of its own.
type Image struct {
	ID         int64     `json:"id"`
	ItemID     int64     `json:"item_id"`
	Path       string    `json:"image_path"`
	Annotation string    `json:"annotation,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Image lifecycle actions recorded in image_history.
const (
	ImageActionAdd      = "add"
	ImageActionRemove   = "remove"
	ImageActionReplace  = "replace"
	ImageActionAnnotate = "annotate"
	ImageActionDelete   = "delete"
)
