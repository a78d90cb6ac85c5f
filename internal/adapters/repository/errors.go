package repository

import "errors"

// Sentinel kinds for card store errors.
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidLimit = errors.New("invalid result limit")
	ErrEmptyCatalog = errors.New("catalog has no commanders")
)
