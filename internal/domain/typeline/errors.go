package typeline

import "errors"

// ErrMalformedTypeLine is returned only for empty or whitespace-only input.
var ErrMalformedTypeLine = errors.New("malformed type line")
