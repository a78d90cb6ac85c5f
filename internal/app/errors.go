package service

import "errors"

// Request-fatal conditions. Per-card failures never surface here.
var (
	ErrCommanderNotFound  = errors.New("commander not found")
	ErrTooManyCards       = errors.New("too many cards in request")
	ErrEmptyRequest       = errors.New("empty scoring request")
	ErrCardNotFound       = errors.New("card not found")
	ErrLookupUnavailable  = errors.New("catalog lookups are not configured")
	ErrServiceUnavailable = errors.New("scoring service is not configured")
)
