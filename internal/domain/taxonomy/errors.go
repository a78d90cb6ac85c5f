package taxonomy

import "errors"

// Sentinel errors for taxonomy persistence.
var (
	ErrFingerprintMismatch = errors.New("taxonomy fingerprint mismatch")
	ErrDecode              = errors.New("taxonomy decode failed")
	ErrEncode              = errors.New("taxonomy encode failed")
)
