package loadtest

import "os"

// ShowHelp prints usage information for the load tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Card Cognition Scoring Load Tool
================================

Sends concurrent scoring requests built from random commanders and their
top suggestions, then checks every response accounts for each card sent.

Usage:
  go run ./cmd/score-load [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:5000")
  -requests int
        Number of scoring requests to send (default 200)
  -cards int
        Suggested cards per request (default 60)
  -workers int
        Number of concurrent workers (default CPU cores)
  -timeout duration
        HTTP request timeout (default 1m0s)
  -output string
        Write the request plan to this JSON file
  -verbose
        Log every scored response
  -help
        Show this help message

Examples:
  go run ./cmd/score-load -requests 1000 -workers 16
  go run ./cmd/score-load -url http://localhost:8080 -cards 100 -output plans.json
`)
}
