// Package loadgen generates synthetic claim batches and submits them to a
// running prediction service. It backs the score-client tool and is useful
// for smoke-testing a deployment end to end.
package loadgen

import "time"

// Config holds the load run parameters.
type Config struct {
	// BaseURL of the service, e.g. http://localhost:9080.
	BaseURL string

	// NumItems is the total number of claim items to generate.
	NumItems int

	// BatchSize is how many items go into each predictions request.
	BatchSize int

	// Workers is the number of concurrent submitters.
	Workers int

	// Timeout applies per HTTP request.
	Timeout time.Duration

	// Verbose enables per-batch logging.
	Verbose bool
}

// Stats accumulates the results of a load run.
type Stats struct {
	ItemsGenerated int
	BatchesSent    int
	BatchesOK      int
	BatchesFailed  int
	ItemsScored    int
	DummyItems     int
	Elapsed        time.Duration
}
