package store

import "errors"

// ErrNotFound is returned when an operation references an unknown item,
// image, or setting.
var ErrNotFound = errors.New("not found")
