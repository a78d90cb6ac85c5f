package loadtest

import "time"

// Defaults applied to zero Config fields.
const (
	DefaultRequests        = 200
	DefaultCardsPerRequest = 60
	DefaultTimeout         = 60 * time.Second
)

const (
	percentageMultiplier = 100
	directoryPermission  = 0750
	unknownCardPrefix    = "loadtest-unknown-"
)
