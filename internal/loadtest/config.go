// Package loadtest drives concurrent scoring requests against a running
// server and checks that every response accounts for the cards it was sent.
package loadtest

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL         string        // Base URL of the service
	Requests        int           // Number of scoring requests to send
	CardsPerRequest int           // Suggested cards pulled per commander
	Workers         int           // Number of concurrent workers
	Timeout         time.Duration // HTTP request timeout
	OutputFile      string        // Output file for the request plan
	Verbose         bool          // Log every response
}

// Plan is one scoring request to submit.
type Plan struct {
	Commander string   `json:"commander"`
	Cards     []string `json:"cards"`
	Unknown   string   `json:"unknown"`
}

// Stats holds run statistics.
type Stats struct {
	Planned    int
	Submitted  int
	Successful int
	Rejected   int
	Failed     int
	Mismatched int
	Scored     int
	Missing    int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

type randomCommander struct {
	CommanderName string `json:"commander_name"`
	Slug          string `json:"slug"`
}

type suggestion struct {
	Name string `json:"card_name"`
}

type suggestions struct {
	Suggestions []suggestion `json:"suggestions"`
}

type scoreResponse struct {
	RequestID string             `json:"request_id"`
	Scores    map[string]float64 `json:"scores"`
	Missing   []string           `json:"missing"`
	Failures  []failure          `json:"failures"`
}

type failure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}
